// Package metamodelapi serves the metamodel over HTTP: the loaded
// specifications, their members and facets, the validation report and a
// read-only view of objects.
package metamodelapi

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/introspect"
	"github.com/conduit-lang/metamodel/internal/metamodel/objectmanager"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
	"github.com/conduit-lang/metamodel/internal/web/middleware"
	"github.com/conduit-lang/metamodel/internal/web/profiling"
	"github.com/conduit-lang/metamodel/internal/web/query"
	"github.com/conduit-lang/metamodel/internal/web/response"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Specs is the part of the specification loader the API reads.
type Specs interface {
	Specifications() []*spec.Specification
	SpecificationByName(name string) (*spec.Specification, bool)
}

// Options configures the API handler.
type Options struct {
	Specs   Specs
	Manager *objectmanager.Manager
	Report  *validation.Report
	Logger  *zap.Logger
	// CORSOrigins enables cross-origin reads from the listed origins.
	CORSOrigins []string
	// Profiling mounts the pprof endpoints under /debug/pprof.
	Profiling bool
}

// API is the HTTP handler of the metamodel.
type API struct {
	specs   Specs
	manager *objectmanager.Manager
	report  *validation.Report
	logger  *zap.Logger
	mux     chi.Router
}

// New creates the handler and registers its routes.
func New(opts Options) *API {
	a := &API{
		specs:   opts.Specs,
		manager: opts.Manager,
		report:  opts.Report,
		logger:  logging.OrNop(opts.Logger).Named("metamodelapi"),
	}
	if a.report == nil {
		a.report = validation.NewReport()
	}

	r := chi.NewRouter()
	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(a.logger, "/healthz"),
		middleware.Recovery(a.logger),
	)
	if len(opts.CORSOrigins) > 0 {
		chain.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: opts.CORSOrigins, MaxAge: 600}))
	}
	r.Use(chain.Middlewares()...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})

	r.Get("/healthz", a.health)
	if opts.Profiling {
		profiling.Mount(r, profiling.DefaultPath)
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/specs", a.listSpecs)
		r.Get("/specs/{type}", a.getSpec)
		r.Get("/specs/{type}/members/{member}", a.getMember)
		r.Get("/validation", a.getValidation)
		if a.manager != nil {
			r.Get("/objects/{type}", a.listObjects)
			r.Get("/objects/{type}/{id}", a.getObject)
		}
	})
	a.mux = r
	return a
}

// ServeHTTP implements http.Handler
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	response.RenderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listSpecs lists the published specifications, optionally restricted to
// the bean sorts named in ?sort=entity,view_model. Specifications do not
// change once loaded, so their renderings carry ETags.
func (a *API) listSpecs(w http.ResponseWriter, r *http.Request) {
	sorts := query.ParseList(r, "sort")
	specs := a.specs.Specifications()
	if len(sorts) > 0 {
		specs = slices.DeleteFunc(slices.Clone(specs), func(s *spec.Specification) bool {
			return !slices.Contains(sorts, s.BeanSort().String())
		})
	}
	response.RenderCachedJSON(w, r, introspect.Summarize(specs))
}

func (a *API) getSpec(w http.ResponseWriter, r *http.Request) {
	s, ok := a.specFromPath(w, r)
	if !ok {
		return
	}
	response.RenderCachedJSON(w, r, introspect.Describe(s))
}

func (a *API) getMember(w http.ResponseWriter, r *http.Request) {
	s, ok := a.specFromPath(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "member")
	for _, m := range s.Members() {
		if m.ID() == id {
			response.RenderCachedJSON(w, r, introspect.DescribeMember(m))
			return
		}
	}
	response.RenderNotFound(w, fmt.Sprintf("%s has no member %q", s.LogicalTypeName(), id))
}

func (a *API) getValidation(w http.ResponseWriter, r *http.Request) {
	response.RenderJSON(w, http.StatusOK, map[string]any{
		"valid":    !a.report.HasFailures(),
		"failures": introspect.Failures(a.report),
	})
}

func (a *API) getObject(w http.ResponseWriter, r *http.Request) {
	s, ok := a.specFromPath(w, r)
	if !ok {
		return
	}
	mo, err := a.manager.Load(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		a.logger.Debug("Load failed", zap.String("type", s.LogicalTypeName()), zap.Error(err))
		response.RenderDomainError(w, err)
		return
	}
	d, err := introspect.Object(mo)
	if err != nil {
		response.RenderDomainError(w, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, d)
}

// listObjects queries entities. Filters are given in the encoded value
// form of each property: ?filter[Category]=work&filter[Due]=NULL.
func (a *API) listObjects(w http.ResponseWriter, r *http.Request) {
	s, ok := a.specFromPath(w, r)
	if !ok {
		return
	}
	where, err := decodeFilter(s, query.ParseFilter(r))
	if err != nil {
		response.RenderError(w, http.StatusBadRequest, err)
		return
	}
	page := query.ParsePagination(r, defaultPerPage, maxPerPage)

	objects, err := a.manager.Query(r.Context(), s, spec.Query{Where: where, Limit: page.PerPage, Offset: page.Offset})
	if err != nil {
		response.RenderDomainError(w, err)
		return
	}
	out := make([]introspect.ObjectDescription, 0, len(objects))
	for _, mo := range objects {
		d, err := introspect.Object(mo)
		if err != nil {
			response.RenderDomainError(w, err)
			return
		}
		out = append(out, d)
	}
	response.RenderJSON(w, http.StatusOK, map[string]any{
		"page":    page,
		"objects": out,
	})
}

func (a *API) specFromPath(w http.ResponseWriter, r *http.Request) (*spec.Specification, bool) {
	name := chi.URLParam(r, "type")
	s, ok := a.specs.SpecificationByName(name)
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown type %q", name))
		return nil, false
	}
	return s, true
}

func decodeFilter(s *spec.Specification, filter map[string]string) (map[string]any, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	where := make(map[string]any, len(filter))
	for id, encoded := range filter {
		p, ok := s.Property(id)
		if !ok {
			return nil, fmt.Errorf("%s has no property %q", s.LogicalTypeName(), id)
		}
		ps := p.Specification()
		if ps == nil {
			return nil, fmt.Errorf("property %s cannot be filtered on", p.Identifier())
		}
		vf, ok := facetapi.Lookup[*value.Facet](ps.Holder(), value.FacetType)
		if !ok {
			return nil, fmt.Errorf("property %s cannot be filtered on", p.Identifier())
		}
		v, err := vf.FromEncodedString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid filter on %s: %w", id, err)
		}
		where[id] = v
	}
	return where, nil
}
