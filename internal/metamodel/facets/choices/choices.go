// Package choices offers the closed set of values a property or parameter
// may take.
package choices

import (
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
)

// Facet types contributed by this package
const (
	ChoicesFacetType          facetapi.FacetType = "ChoicesFacet"
	PropertyChoicesFacetType  facetapi.FacetType = "PropertyChoicesFacet"
	ParameterChoicesFacetType facetapi.FacetType = "ActionParameterChoicesFacet"
)

// Provider lists the choices available for a feature of target.
type Provider interface {
	facetapi.Facet
	Choices(target any) []any
}

// ChoicesFacet lists every instance of an enumerated type.
type ChoicesFacet struct {
	facetapi.Base
	values []any
}

// Choices implements Provider; the target is irrelevant.
func (f *ChoicesFacet) Choices(any) []any {
	return append([]any(nil), f.values...)
}

func (f *ChoicesFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["count"] = len(f.values)
}

var enumeratedType = reflect.TypeFor[applib.Enumerated]()

// ChoicesFacetFromEnumFactory reads the instances of applib.Enumerated types.
type ChoicesFacetFromEnumFactory struct{}

func (ChoicesFacetFromEnumFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (ChoicesFacetFromEnumFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	t := ctx.Class.Type
	var e applib.Enumerated
	switch {
	case t.Implements(enumeratedType) && t.Kind() != reflect.Pointer:
		e = reflect.Zero(t).Interface().(applib.Enumerated)
	case reflect.PointerTo(t).Implements(enumeratedType):
		e = reflect.New(t).Interface().(applib.Enumerated)
	default:
		return nil
	}
	return ctx.AddFacet(&ChoicesFacet{Base: facetapi.NewBase(ChoicesFacetType), values: e.EnumValues()})
}

// methodChoices calls a Choices supporting method on the target.
type methodChoices struct {
	facetapi.Base
	method *facets.Method
}

func (f *methodChoices) Choices(target any) []any {
	out, err := f.method.Call(target)
	if err != nil {
		return nil
	}
	return toSlice(out[0])
}

func (f *methodChoices) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.method.Name
}

func toSlice(v reflect.Value) []any {
	if v.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// derivedChoices lists the choices of the feature's type.
type derivedChoices struct {
	facetapi.Base
	from Provider
}

func (f *derivedChoices) Choices(target any) []any {
	return f.from.Choices(target)
}

// DerivedFrom returns a facet of type t offering the choices of the type
// facet from.
func DerivedFrom(t facetapi.FacetType, from Provider) Provider {
	return &derivedChoices{Base: facetapi.NewBase(t, facetapi.Derived()), from: from}
}

// returnsSliceOf matches a no-argument method returning []T for T.
func returnsSliceOf(elem reflect.Type) func(*facets.Method) bool {
	return func(m *facets.Method) bool {
		if m.NumParams() != 0 || m.Type.NumOut() != 1 {
			return false
		}
		out := m.Type.Out(0)
		return out.Kind() == reflect.Slice && out.Elem() == elem
	}
}

// PropertyChoicesFacetFactory reads Choices<Property>() []T methods.
type PropertyChoicesFacetFactory struct{}

func (PropertyChoicesFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesOnly
}

func (PropertyChoicesFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	name := facets.SupportingMethodName(facets.PrefixChoices, -1, ctx.Field.Name)
	m, ok := ctx.Class.TakeMethod(name, returnsSliceOf(ctx.Field.Type))
	if !ok {
		return nil
	}
	return ctx.AddFacet(&methodChoices{Base: facetapi.NewBase(PropertyChoicesFacetType), method: m})
}

// ActionParameterChoicesFacetFactory reads Choices<N><Action>() []T methods.
type ActionParameterChoicesFacetFactory struct{}

func (ActionParameterChoicesFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ParametersOnly
}

func (ActionParameterChoicesFacetFactory) ProcessParameter(ctx *facets.ProcessParameterContext) error {
	elem := ctx.Type
	if ctx.FeatureType == facetapi.ActionParameterCollection {
		elem = elem.Elem()
	}
	name := facets.SupportingMethodName(facets.PrefixChoices, ctx.Index, ctx.Method.Name)
	m, ok := ctx.Class.TakeMethod(name, returnsSliceOf(elem))
	if !ok {
		return nil
	}
	return ctx.AddFacet(&methodChoices{Base: facetapi.NewBase(ParameterChoicesFacetType), method: m})
}
