// Package specloader introspects domain types into specifications and
// publishes them once post-processed, validated and sealed.
package specloader

import (
	"errors"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/progmodel"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// Options configures a Loader. Zero fields get defaults.
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      persistence.Store
	Authorizer spec.Authorizer
	Registry   *value.Registry
	Model      *progmodel.ProgrammingModel
}

// Loader is the specification loader. Types are introspected under a
// single assembly lock; published specifications are read lock-free.
type Loader struct {
	ctx       *facets.Context
	arena     *facetapi.Arena
	registry  *value.Registry
	model     *progmodel.ProgrammingModel
	processor *facets.Processor
	report    *validation.Report
	logger    *zap.Logger

	// mu guards assembly: specs, pending, mixins, mixinActions and errs.
	mu sync.Mutex
	// specs holds every specification by type, including those still
	// being assembled, so cyclic lookups terminate.
	specs        map[reflect.Type]*spec.Specification
	pending      []*spec.Specification
	mixins       map[reflect.Type][]reflect.Type
	mixinActions map[reflect.Type]*spec.Action
	errs         []error

	// published and byName hold sealed specifications only.
	published sync.Map
	byName    sync.Map
}

// New creates a loader.
func New(opts Options) *Loader {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = value.NewRegistry(cfg)
	}
	model := opts.Model
	if model == nil {
		model = progmodel.Default(registry)
	}

	l := &Loader{
		arena:        facetapi.NewArena(),
		registry:     registry,
		model:        model,
		processor:    model.Processor(),
		report:       validation.NewReport(),
		logger:       logging.OrNop(opts.Logger).Named("specloader"),
		specs:        make(map[reflect.Type]*spec.Specification),
		mixins:       make(map[reflect.Type][]reflect.Type),
		mixinActions: make(map[reflect.Type]*spec.Action),
	}
	l.ctx = &facets.Context{
		Config:      cfg,
		Specs:       l,
		Sink:        l.report,
		Logger:      l.logger,
		Store:       opts.Store,
		Authorizer:  opts.Authorizer,
		IsValueType: registry.IsValueType,
	}
	return l
}

// LoadSpecification implements spec.SpecificationLoader. A type first seen
// here is introspected, post-processed, validated and published before it
// is returned. Only published specifications are read without the lock.
func (l *Loader) LoadSpecification(t reflect.Type) *spec.Specification {
	if t == nil {
		return nil
	}
	t = l.normalize(t)
	if s, ok := l.published.Load(t); ok {
		return s.(*spec.Specification)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.published.Load(t); ok {
		return s.(*spec.Specification)
	}
	s := l.introspect(t)
	l.finish()
	for _, err := range l.takeErrors() {
		l.logger.Error("Failed to introspect type on demand", zap.Error(err))
	}
	return s
}

// SpecificationByName implements spec.SpecificationLoader. Only published
// specifications are found.
func (l *Loader) SpecificationByName(name string) (*spec.Specification, bool) {
	s, ok := l.byName.Load(name)
	if !ok {
		return nil, false
	}
	return s.(*spec.Specification), true
}

// LoadAll introspects types and every type they reach. Mixins among types
// contribute their action to their target. Structural problems are
// returned as an error; validation failures are collected in the report.
func (l *Loader) LoadAll(types ...reflect.Type) (*validation.Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.scanMixins(types)
	for _, t := range types {
		if t == nil {
			continue
		}
		l.introspect(l.normalize(t))
	}
	l.finish()

	if l.report.HasFailures() {
		l.logger.Warn("Metamodel validation failed", zap.Int("failures", l.report.Count()))
	}
	return l.report, errors.Join(l.takeErrors()...)
}

// Specifications returns the published specifications ordered by name.
func (l *Loader) Specifications() []*spec.Specification {
	var out []*spec.Specification
	l.byName.Range(func(_, v any) bool {
		out = append(out, v.(*spec.Specification))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].LogicalTypeName() < out[j].LogicalTypeName()
	})
	return out
}

// Report returns the validation report shared by every load.
func (l *Loader) Report() *validation.Report { return l.report }

// Arena returns the arena owning every holder.
func (l *Loader) Arena() *facetapi.Arena { return l.arena }

// Registry returns the value type registry.
func (l *Loader) Registry() *value.Registry { return l.registry }

// Context returns the context factories run with.
func (l *Loader) Context() *facets.Context { return l.ctx }

// normalize keeps value types, including the pointer form of value types,
// and strips pointers from everything else.
func (l *Loader) normalize(t reflect.Type) reflect.Type {
	if l.registry.IsValueType(t) {
		return t
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (l *Loader) logicalName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer && l.registry.IsValueType(t.Elem()) {
		return "*" + spec.LogicalTypeName(t)
	}
	return spec.LogicalTypeName(t)
}

// finish post-processes, validates, seals and publishes the pending
// specifications. Callers hold mu.
func (l *Loader) finish() {
	var batch []*spec.Specification
	for len(l.pending) > 0 {
		next := l.pending
		l.pending = nil
		for _, s := range next {
			for _, pp := range l.model.PostProcessors() {
				if err := pp.PostProcess(l.ctx, s); err != nil {
					l.errs = append(l.errs, err)
				}
			}
		}
		batch = append(batch, next...)
	}

	validators := l.model.Validators()
	for _, s := range batch {
		for _, v := range validators {
			v.Validate(s, l.ctx.Sink)
		}
	}

	for _, s := range batch {
		l.seal(s)
		s.SetState(spec.Ready)
	}
	for _, s := range batch {
		l.published.Store(s.Type(), s)
		l.byName.Store(s.LogicalTypeName(), s)
		l.logger.Debug("Published specification",
			zap.String("type", s.LogicalTypeName()),
			zap.Stringer("sort", s.BeanSort()),
			zap.Int("members", len(s.Members())),
		)
	}
}

func (l *Loader) seal(s *spec.Specification) {
	s.Holder().Seal()
	for _, m := range s.Members() {
		m.Holder().Seal()
	}
	for _, a := range s.Actions() {
		for _, p := range a.Parameters() {
			p.Holder().Seal()
		}
	}
	if a, ok := l.mixinActions[s.Type()]; ok {
		a.Holder().Seal()
		for _, p := range a.Parameters() {
			p.Holder().Seal()
		}
	}
}

func (l *Loader) takeErrors() []error {
	errs := l.errs
	l.errs = nil
	return errs
}
