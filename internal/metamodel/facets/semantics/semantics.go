// Package semantics records the side effects of actions.
package semantics

import (
	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
)

// FacetType is the type of ActionSemanticsFacet
const FacetType facetapi.FacetType = "ActionSemanticsFacet"

// ActionSemanticsFacet holds the semantics of an action.
type ActionSemanticsFacet struct {
	facetapi.Base
	Value applib.SemanticsOf
}

func (f *ActionSemanticsFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["semantics"] = f.Value.String()
}

// Of returns the semantics recorded on h.
func Of(h *facetapi.Holder) (applib.SemanticsOf, bool) {
	f, ok := facetapi.Lookup[*ActionSemanticsFacet](h, FacetType)
	if !ok {
		return applib.SemanticsNotSpecified, false
	}
	return f.Value, true
}

// ActionSemanticsFacetFactory reads the declared semantics. Actions without
// one are assumed non-idempotent.
type ActionSemanticsFacetFactory struct{}

func (ActionSemanticsFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ActionsOnly
}

func (ActionSemanticsFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	if ctx.Annotated && ctx.Annotation.Semantics != applib.SemanticsNotSpecified {
		return ctx.AddFacet(&ActionSemanticsFacet{
			Base:  facetapi.NewBase(FacetType),
			Value: ctx.Annotation.Semantics,
		})
	}
	return ctx.AddFacet(&ActionSemanticsFacet{
		Base:  facetapi.NewBase(FacetType, facetapi.AsFallback()),
		Value: applib.NonIdempotent,
	})
}
