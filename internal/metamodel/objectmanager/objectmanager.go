// Package objectmanager runs the lifecycle of managed objects: create, load,
// bulk load, bookmark, refresh, detach and serialize. Each phase is a
// collaborator that can be replaced on its own, so swapping the persistence
// technology means reimplementing one collaborator against the same
// request and response types.
package objectmanager

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/memento"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Options configures a Manager. Nil collaborators get the defaults.
type Options struct {
	Specs  spec.SpecificationLoader
	Logger *zap.Logger
	// Mementos keeps serialized objects for Stash and Unstash.
	Mementos   memento.Store
	MementoTTL time.Duration

	Creator    Creator
	Loader     Loader
	BulkLoader BulkLoader
	Bookmarker Bookmarker
	Refresher  Refresher
	Detacher   Detacher
	Serializer Serializer
}

// Manager orchestrates the lifecycle collaborators.
type Manager struct {
	specs      spec.SpecificationLoader
	logger     *zap.Logger
	mementos   memento.Store
	mementoTTL time.Duration

	creator    Creator
	loader     Loader
	bulkLoader BulkLoader
	bookmarker Bookmarker
	refresher  Refresher
	detacher   Detacher
	serializer Serializer
}

var _ spec.ObjectLoader = (*Manager)(nil)

// New creates a manager.
func New(opts Options) *Manager {
	m := &Manager{
		specs:      opts.Specs,
		logger:     logging.OrNop(opts.Logger).Named("objectmanager"),
		mementos:   opts.Mementos,
		mementoTTL: opts.MementoTTL,
		creator:    opts.Creator,
		loader:     opts.Loader,
		bulkLoader: opts.BulkLoader,
		bookmarker: opts.Bookmarker,
		refresher:  opts.Refresher,
		detacher:   opts.Detacher,
		serializer: opts.Serializer,
	}
	if m.creator == nil {
		m.creator = DefaultCreator{}
	}
	if m.loader == nil {
		m.loader = DefaultLoader{}
	}
	if m.bulkLoader == nil {
		m.bulkLoader = DefaultBulkLoader{}
	}
	if m.bookmarker == nil {
		m.bookmarker = DefaultBookmarker{}
	}
	if m.refresher == nil {
		m.refresher = DefaultRefresher{}
	}
	if m.detacher == nil {
		m.detacher = DefaultDetacher{}
	}
	if m.serializer == nil {
		m.serializer = &DefaultSerializer{Specs: opts.Specs, Loader: m.loader, Bookmarker: m.bookmarker}
	}
	return m
}

// NewDefault creates a manager with every default collaborator, for tests
// and tools.
func NewDefault(specs spec.SpecificationLoader) *Manager {
	return New(Options{Specs: specs})
}

func (m *Manager) Creator() Creator       { return m.creator }
func (m *Manager) Loader() Loader         { return m.loader }
func (m *Manager) BulkLoader() BulkLoader { return m.bulkLoader }
func (m *Manager) Bookmarker() Bookmarker { return m.bookmarker }
func (m *Manager) Refresher() Refresher   { return m.refresher }
func (m *Manager) Detacher() Detacher     { return m.detacher }
func (m *Manager) Serializer() Serializer { return m.serializer }

// Adapt wraps pojo with the specification of its type.
func (m *Manager) Adapt(pojo any) *spec.ManagedObject {
	return spec.Adapt(m.specs, pojo)
}

// Specification resolves the specification of t.
func (m *Manager) Specification(t reflect.Type) *spec.Specification {
	return m.specs.LoadSpecification(t)
}

// Create instantiates a new object of s.
func (m *Manager) Create(ctx context.Context, s *spec.Specification) (*spec.ManagedObject, error) {
	mo, err := m.creator.Create(ctx, CreateRequest{Spec: s})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Created object", zap.String("type", s.LogicalTypeName()))
	return mo, nil
}

// Load loads the object of s identified by id.
func (m *Manager) Load(ctx context.Context, s *spec.Specification, id string) (*spec.ManagedObject, error) {
	return m.loader.Load(ctx, LoadRequest{Spec: s, Identifier: id})
}

// LoadObject implements spec.ObjectLoader
func (m *Manager) LoadObject(ctx context.Context, s *spec.Specification, id string) (*spec.ManagedObject, error) {
	return m.Load(ctx, s, id)
}

// LoadBookmark loads the object a bookmark refers to.
func (m *Manager) LoadBookmark(ctx context.Context, b spec.Bookmark) (*spec.ManagedObject, error) {
	s, ok := m.specs.SpecificationByName(b.LogicalTypeName)
	if !ok {
		return nil, fmt.Errorf("unknown type %q: %w", b.LogicalTypeName, spec.ErrObjectNotFound)
	}
	return m.Load(ctx, s, b.Identifier)
}

// Query loads the entities of s matching q.
func (m *Manager) Query(ctx context.Context, s *spec.Specification, q spec.Query) ([]*spec.ManagedObject, error) {
	return m.bulkLoader.LoadAll(ctx, BulkLoadRequest{Spec: s, Query: q})
}

// Bookmark identifies mo.
func (m *Manager) Bookmark(ctx context.Context, mo *spec.ManagedObject) (spec.Bookmark, error) {
	return m.bookmarker.Bookmark(ctx, BookmarkRequest{Object: mo})
}

// Refresh re-reads mo from its store and returns the ids of the properties
// whose unsaved changes were discarded.
func (m *Manager) Refresh(ctx context.Context, mo *spec.ManagedObject) ([]string, error) {
	resp, err := m.refresher.Refresh(ctx, RefreshRequest{Object: mo})
	if err != nil {
		return nil, err
	}
	if len(resp.Discarded) > 0 {
		m.logger.Info("Discarded unsaved changes",
			zap.String("object", mo.String()), zap.Strings("properties", resp.Discarded))
	}
	return resp.Discarded, nil
}

// Detach ends the unit of work of mo.
func (m *Manager) Detach(ctx context.Context, mo *spec.ManagedObject) (*spec.ManagedObject, error) {
	return m.detacher.Detach(ctx, DetachRequest{Object: mo})
}

// Persist stores a transient or detached entity and updates an attached one.
func (m *Manager) Persist(ctx context.Context, mo *spec.ManagedObject) error {
	ef, err := entityFacet(mo)
	if err != nil {
		return err
	}
	return ef.Persist(ctx, mo.Pojo())
}

// Delete removes an attached entity from its store.
func (m *Manager) Delete(ctx context.Context, mo *spec.ManagedObject) error {
	ef, err := entityFacet(mo)
	if err != nil {
		return err
	}
	return ef.Delete(ctx, mo.Pojo())
}

// Serialize snapshots mo so it can cross a detach boundary.
func (m *Manager) Serialize(ctx context.Context, mo *spec.ManagedObject) (Memento, error) {
	return m.serializer.Serialize(ctx, mo)
}

// Deserialize recreates the object a memento was taken of.
func (m *Manager) Deserialize(ctx context.Context, mem Memento) (*spec.ManagedObject, error) {
	return m.serializer.Deserialize(ctx, mem)
}

func valueFacet(s *spec.Specification) (*value.Facet, bool) {
	if s == nil {
		return nil, false
	}
	return facetapi.Lookup[*value.Facet](s.Holder(), value.FacetType)
}
