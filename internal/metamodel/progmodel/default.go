package progmodel

import (
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/actions"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/bookmark"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/choices"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/named"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/object"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/properties"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/semantics"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/visibility"
	"github.com/conduit-lang/metamodel/internal/metamodel/postprocessors"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// Default returns the standard programming model over the value types of
// registry.
func Default(registry *value.Registry) *ProgrammingModel {
	m := New()

	// method removal and object nature come first so later factories see
	// the final candidates
	m.AddFactory(OrderEarly, object.RemoveMethodsFacetFactory{})
	m.AddFactory(OrderEarly, object.DomainObjectAnnotationFacetFactory{})
	m.AddFactory(OrderEarly, object.MixinFacetFactory{})
	m.AddFactory(OrderEarly, value.DefaultedFacetFactory{})
	m.AddFactory(OrderEarly, value.NewFacetFactory(registry))

	m.AddFactory(OrderMiddle, named.ObjectNamedFacetFactory{})
	m.AddFactory(OrderMiddle, object.TitleFacetFactory{})
	m.AddFactory(OrderMiddle, object.HiddenObjectFacetFactory{})
	m.AddFactory(OrderMiddle, choices.ChoicesFacetFromEnumFactory{})
	m.AddFactory(OrderMiddle, object.EntityFacetFactory{})
	m.AddFactory(OrderMiddle, object.ViewModelFacetFactory{})
	m.AddFactory(OrderMiddle, bookmark.BookmarkPolicyFacetFallbackFactory{})

	m.AddFactory(OrderMiddle, properties.PropertyAccessorFacetFactory{})
	m.AddFactory(OrderMiddle, named.MemberNamedFacetFactory{})
	m.AddFactory(OrderMiddle, visibility.HiddenFacetFactory{})
	m.AddFactory(OrderMiddle, visibility.DisabledFacetFactory{})
	m.AddFactory(OrderMiddle, properties.MandatoryFacetFactory{})
	m.AddFactory(OrderMiddle, properties.NotPersistedFacetFactory{})
	m.AddFactory(OrderMiddle, properties.KeyFacetFactory{})
	m.AddFactory(OrderMiddle, properties.BigDecimalDigitsFacetFactory{})
	m.AddFactory(OrderMiddle, properties.MaxLengthFacetFactory{})
	m.AddFactory(OrderMiddle, choices.PropertyChoicesFacetFactory{})

	m.AddFactory(OrderMiddle, actions.ActionInvocationFacetFactory{})
	m.AddFactory(OrderMiddle, semantics.ActionSemanticsFacetFactory{})
	m.AddFactory(OrderMiddle, actions.ActionValidateFacetFactory{})
	m.AddFactory(OrderMiddle, named.ParameterNamedFacetFactory{})
	m.AddFactory(OrderMiddle, choices.ActionParameterChoicesFacetFactory{})
	m.AddFactory(OrderMiddle, actions.ActionParameterDefaultsFacetFactory{})

	m.AddFactory(OrderLate, visibility.AuthorizationFacetFactory{})

	m.AddPostProcessor(postprocessors.DeriveChoicesFromExistingChoices{})
	m.AddPostProcessor(postprocessors.DeriveMandatoryForPrimitives{})

	m.AddValidator(facets.OrphanedSupportingMethodValidator())
	m.AddValidator(validation.AmbiguousMemberValidator())
	return m
}
