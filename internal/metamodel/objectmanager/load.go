package objectmanager

import (
	"context"
	"fmt"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// LoadRequest asks for the object of Spec with the given identifier.
type LoadRequest struct {
	Spec       *spec.Specification
	Identifier string
}

// Loader loads single objects by identifier.
type Loader interface {
	Load(ctx context.Context, req LoadRequest) (*spec.ManagedObject, error)
}

// BulkLoadRequest asks for the entities of Spec matching Query.
type BulkLoadRequest struct {
	Spec  *spec.Specification
	Query spec.Query
}

// BulkLoader loads entities by query.
type BulkLoader interface {
	LoadAll(ctx context.Context, req BulkLoadRequest) ([]*spec.ManagedObject, error)
}

// DefaultLoader decodes values through their value semantics, recreates
// view models from their memento and reads entities from their store.
type DefaultLoader struct{}

func (DefaultLoader) Load(ctx context.Context, req LoadRequest) (*spec.ManagedObject, error) {
	s := req.Spec
	if s == nil {
		return nil, fmt.Errorf("cannot load %q without a specification", req.Identifier)
	}
	b := spec.Bookmark{LogicalTypeName: s.LogicalTypeName(), Identifier: req.Identifier}

	switch {
	case s.IsValue():
		vf, ok := valueFacet(s)
		if !ok {
			return nil, fmt.Errorf("%s has no value semantics", s.LogicalTypeName())
		}
		v, err := vf.FromEncodedString(req.Identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", b, err)
		}
		return spec.NewManagedObject(s, v), nil

	case s.IsViewModel():
		vm, ok := facetapi.Lookup[spec.ViewModelFacet](s.Holder(), spec.ViewModelFacetType)
		if !ok {
			return nil, fmt.Errorf("%s cannot be recreated", s.LogicalTypeName())
		}
		pojo, err := vm.Instantiate(req.Identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", b, err)
		}
		return spec.Identified(s, pojo, b), nil

	case s.IsEntity():
		ef, ok := facetapi.Lookup[spec.EntityFacet](s.Holder(), spec.EntityFacetType)
		if !ok {
			return nil, persistence.ErrNotPersistable
		}
		pojo, err := ef.Load(ctx, req.Identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", b, err)
		}
		return spec.NewManagedObject(s, pojo), nil
	}
	return nil, fmt.Errorf("%s %s cannot be loaded: %w", s.BeanSort(), s.LogicalTypeName(), spec.ErrNotIdentifiable)
}

// DefaultBulkLoader queries the entity store.
type DefaultBulkLoader struct{}

func (DefaultBulkLoader) LoadAll(ctx context.Context, req BulkLoadRequest) ([]*spec.ManagedObject, error) {
	s := req.Spec
	if s == nil || !s.IsEntity() {
		return nil, persistence.ErrNotPersistable
	}
	ef, ok := facetapi.Lookup[spec.EntityFacet](s.Holder(), spec.EntityFacetType)
	if !ok {
		return nil, persistence.ErrNotPersistable
	}
	pojos, err := ef.Query(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.LogicalTypeName(), err)
	}
	out := make([]*spec.ManagedObject, len(pojos))
	for i, pojo := range pojos {
		out[i] = spec.NewManagedObject(s, pojo)
	}
	return out, nil
}
