// Package postprocessors refines specifications once every type they
// reach has been introspected.
package postprocessors

import (
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/choices"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/properties"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// DeriveChoicesFromExistingChoices offers the choices of a type, such as an
// enumeration, on every property and parameter of that type without
// choices of its own.
type DeriveChoicesFromExistingChoices struct{}

func (DeriveChoicesFromExistingChoices) PostProcess(_ *facets.Context, s *spec.Specification) error {
	for _, p := range s.Properties() {
		if err := deriveChoices(p.Holder(), choices.PropertyChoicesFacetType, p.Specification()); err != nil {
			return err
		}
	}
	for _, a := range s.Actions() {
		for _, p := range a.Parameters() {
			if err := deriveChoices(p.Holder(), choices.ParameterChoicesFacetType, p.Specification()); err != nil {
				return err
			}
		}
	}
	return nil
}

func deriveChoices(h *facetapi.Holder, t facetapi.FacetType, typeSpec *spec.Specification) error {
	if typeSpec == nil || h.ContainsNonFallback(t) {
		return nil
	}
	from, ok := facetapi.LookupNonFallback[choices.Provider](typeSpec.Holder(), choices.ChoicesFacetType)
	if !ok {
		return nil
	}
	_, err := h.AddFacet(choices.DerivedFrom(t, from))
	return err
}

// DeriveMandatoryForPrimitives makes parameters that cannot be nil
// mandatory unless they already say otherwise.
type DeriveMandatoryForPrimitives struct{}

func (DeriveMandatoryForPrimitives) PostProcess(_ *facets.Context, s *spec.Specification) error {
	for _, a := range s.Actions() {
		for _, p := range a.Parameters() {
			if p.Holder().Contains(properties.MandatoryFacetType) || properties.Nillable(p.Type()) {
				continue
			}
			if _, err := p.Holder().AddFacet(properties.NewMandatoryFacet(true, facetapi.Derived())); err != nil {
				return err
			}
		}
	}
	return nil
}
