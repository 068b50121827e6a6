package spec

import (
	"context"
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// Facet types the runtime consults directly.
const (
	EntityFacetType           facetapi.FacetType = "EntityFacet"
	ViewModelFacetType        facetapi.FacetType = "ViewModelFacet"
	MixinFacetType            facetapi.FacetType = "MixinFacet"
	TitleFacetType            facetapi.FacetType = "TitleFacet"
	ActionInvocationFacetType facetapi.FacetType = "ActionInvocationFacet"
	ValueFacetType            facetapi.FacetType = "ValueSemanticsFacet"
)

// SpecificationLoader resolves the specification of a type.
type SpecificationLoader interface {
	// LoadSpecification returns the specification of t, introspecting it on
	// first use. Pointer types resolve to the specification of their element.
	LoadSpecification(t reflect.Type) *Specification
	// SpecificationByName resolves a logical type name such as "todo.Item".
	SpecificationByName(name string) (*Specification, bool)
}

// ObjectLoader loads an object by its identifier.
type ObjectLoader interface {
	LoadObject(ctx context.Context, s *Specification, id string) (*ManagedObject, error)
}

// Query selects entities by property values.
type Query struct {
	// Where maps property ids onto required values.
	Where  map[string]any
	Limit  int
	Offset int
}

// EntityFacet binds an entity type to its persistence store.
type EntityFacet interface {
	facetapi.Facet
	EntityState(pojo any) EntityState
	Identify(pojo any) (string, bool)
	Load(ctx context.Context, id string) (any, error)
	Query(ctx context.Context, q Query) ([]any, error)
	Persist(ctx context.Context, pojo any) error
	Delete(ctx context.Context, pojo any) error
	// Refresh re-reads pojo from the store and returns the ids of the
	// properties whose unsaved changes were discarded.
	Refresh(ctx context.Context, pojo any) ([]string, error)
	Detach(ctx context.Context, pojo any) error
}

// ViewModelFacet recreates a view model from a memento of its state.
type ViewModelFacet interface {
	facetapi.Facet
	Memento(pojo any) (string, error)
	Instantiate(memento string) (any, error)
}

// MixinFacet marks a type contributing a member to another type.
type MixinFacet interface {
	facetapi.Facet
	Target() reflect.Type
	// Instantiate returns a mixin instance bound to the mixee.
	Instantiate(mixee any) (any, error)
}

// TitleFacet renders the title of an object.
type TitleFacet interface {
	facetapi.Facet
	Title(pojo any) string
}

// ActionInvocationFacet runs an action.
type ActionInvocationFacet interface {
	facetapi.Facet
	Invoke(ctx context.Context, action *Action, target *ManagedObject, args []*ManagedObject) (*ManagedObject, error)
}

// VisibilityContext describes a visibility check.
type VisibilityContext struct {
	Target      *ManagedObject
	Identifier  facetapi.Identifier
	InitiatedBy InteractionInitiatedBy
	Where       applib.Where
}

// UsabilityContext describes a usability check.
type UsabilityContext struct {
	Target      *ManagedObject
	Identifier  facetapi.Identifier
	InitiatedBy InteractionInitiatedBy
	Where       applib.Where
}

// ValidityContext describes an argument validation.
type ValidityContext struct {
	Target      *ManagedObject
	Identifier  facetapi.Identifier
	Args        []*ManagedObject
	InitiatedBy InteractionInitiatedBy
}

// HidingAdvisor is implemented by facets that can hide a feature. Hides
// returns a non-empty reason to hide.
type HidingAdvisor interface {
	Hides(vc VisibilityContext) string
}

// DisablingAdvisor is implemented by facets that can disable a feature.
type DisablingAdvisor interface {
	Disables(uc UsabilityContext) string
}

// ValidatingAdvisor is implemented by facets that can reject arguments.
type ValidatingAdvisor interface {
	Invalidates(vc ValidityContext) string
}

// Authorizer decides whether the current user may see or use a feature.
type Authorizer interface {
	IsVisible(id facetapi.Identifier, target *ManagedObject) bool
	IsUsable(id facetapi.Identifier, target *ManagedObject) bool
}

// Consent is the outcome of a visibility, usability or validity check.
type Consent struct {
	Reason string
}

// Allowed is the non-vetoing consent.
var Allowed = Consent{}

// IsVetoed reports whether the check failed.
func (c Consent) IsVetoed() bool { return c.Reason != "" }

// IsAllowed reports whether the check passed.
func (c Consent) IsAllowed() bool { return c.Reason == "" }

func visibilityOf(h *facetapi.Holder, vc VisibilityContext) Consent {
	for f := range h.Facets() {
		if advisor, ok := f.(HidingAdvisor); ok {
			if reason := advisor.Hides(vc); reason != "" {
				return Consent{Reason: reason}
			}
		}
	}
	return Allowed
}

func usabilityOf(h *facetapi.Holder, uc UsabilityContext) Consent {
	for f := range h.Facets() {
		if advisor, ok := f.(DisablingAdvisor); ok {
			if reason := advisor.Disables(uc); reason != "" {
				return Consent{Reason: reason}
			}
		}
	}
	return Allowed
}

func validityOf(h *facetapi.Holder, vc ValidityContext) Consent {
	for f := range h.Facets() {
		if advisor, ok := f.(ValidatingAdvisor); ok {
			if reason := advisor.Invalidates(vc); reason != "" {
				return Consent{Reason: reason}
			}
		}
	}
	return Allowed
}
