package objectmanager

import (
	"context"
	"fmt"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// BookmarkRequest asks for the identity of Object.
type BookmarkRequest struct {
	Object *spec.ManagedObject
}

// Bookmarker identifies objects.
type Bookmarker interface {
	Bookmark(ctx context.Context, req BookmarkRequest) (spec.Bookmark, error)
}

// DefaultBookmarker identifies entities by their store identifier, view
// models by their memento and values by their encoded form.
type DefaultBookmarker struct{}

func (DefaultBookmarker) Bookmark(ctx context.Context, req BookmarkRequest) (spec.Bookmark, error) {
	mo := req.Object
	if spec.IsValue(mo) && !mo.IsEmpty() {
		vf, ok := valueFacet(mo.Specification())
		if !ok {
			return spec.Bookmark{}, fmt.Errorf("%s: %w", mo, spec.ErrNotIdentifiable)
		}
		id, err := vf.ToEncodedString(mo.Pojo())
		if err != nil {
			return spec.Bookmark{}, fmt.Errorf("failed to bookmark %s: %w", mo, err)
		}
		return spec.Bookmark{LogicalTypeName: mo.Specification().LogicalTypeName(), Identifier: id}, nil
	}
	return spec.BookmarkElseFail(mo)
}

// RefreshRequest asks to re-read Object from its store.
type RefreshRequest struct {
	Object *spec.ManagedObject
}

// RefreshResponse lists the properties whose unsaved changes were lost.
type RefreshResponse struct {
	Discarded []string
}

// Refresher re-reads attached entities.
type Refresher interface {
	Refresh(ctx context.Context, req RefreshRequest) (RefreshResponse, error)
}

// DefaultRefresher re-reads entities through their EntityFacet. Other
// objects have no stored state and are left alone.
type DefaultRefresher struct{}

func (DefaultRefresher) Refresh(ctx context.Context, req RefreshRequest) (RefreshResponse, error) {
	if !spec.IsEntity(req.Object) || req.Object.IsEmpty() {
		return RefreshResponse{}, nil
	}
	ef, err := entityFacet(req.Object)
	if err != nil {
		return RefreshResponse{}, err
	}
	discarded, err := ef.Refresh(ctx, req.Object.Pojo())
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("failed to refresh %s: %w", req.Object, err)
	}
	return RefreshResponse{Discarded: discarded}, nil
}

// DetachRequest asks to end the unit of work of Object.
type DetachRequest struct {
	Object *spec.ManagedObject
}

// Detacher moves attached entities to detached.
type Detacher interface {
	Detach(ctx context.Context, req DetachRequest) (*spec.ManagedObject, error)
}

// DefaultDetacher detaches entities through their EntityFacet and returns
// every other object unchanged.
type DefaultDetacher struct{}

func (DefaultDetacher) Detach(ctx context.Context, req DetachRequest) (*spec.ManagedObject, error) {
	mo := req.Object
	if !spec.IsEntity(mo) || mo.IsEmpty() {
		return mo, nil
	}
	ef, err := entityFacet(mo)
	if err != nil {
		return nil, err
	}
	if err := ef.Detach(ctx, mo.Pojo()); err != nil {
		return nil, fmt.Errorf("failed to detach %s: %w", mo, err)
	}
	return mo, nil
}

func entityFacet(mo *spec.ManagedObject) (spec.EntityFacet, error) {
	if !spec.IsEntity(mo) {
		return nil, persistence.ErrNotPersistable
	}
	ef, ok := facetapi.Lookup[spec.EntityFacet](mo.Specification().Holder(), spec.EntityFacetType)
	if !ok {
		return nil, persistence.ErrNotPersistable
	}
	return ef, nil
}
