// Package named gives every feature a display name.
package named

import (
	"reflect"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
)

// FacetType is the type of NamedFacet
const FacetType facetapi.FacetType = "NamedFacet"

// NamedFacet is the display name of a feature.
type NamedFacet struct {
	facetapi.Base
	Name   string
	Plural string
}

func newFacet(name, plural string, derived bool) *NamedFacet {
	var opts []facetapi.Option
	if derived {
		opts = append(opts, facetapi.Derived())
	}
	return &NamedFacet{Base: facetapi.NewBase(FacetType, opts...), Name: name, Plural: plural}
}

func (f *NamedFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["name"] = f.Name
	if f.Plural != "" {
		attrs["plural"] = f.Plural
	}
}

// Derived returns a derived name facet, for features named after
// assembly.
func Derived(name string) *NamedFacet {
	return newFacet(name, "", true)
}

// NameOf returns the display name on h, or "".
func NameOf(h *facetapi.Holder) string {
	if f, ok := facetapi.Lookup[*NamedFacet](h, FacetType); ok {
		return f.Name
	}
	return ""
}

// ObjectNamedFacetFactory names types from their annotation or type name.
type ObjectNamedFacetFactory struct{}

func (ObjectNamedFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (ObjectNamedFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	a := ctx.Class.Annotations.Object
	if a.Named != "" {
		return ctx.AddFacet(newFacet(a.Named, a.Plural, false))
	}
	name := facets.NaturalName(ctx.Class.Type.Name())
	if name == "" {
		name = ctx.Class.LogicalName
	}
	plural := a.Plural
	if plural == "" {
		plural = name + "s"
	}
	return ctx.AddFacet(newFacet(name, plural, true))
}

// MemberNamedFacetFactory names properties, collections and actions from
// the name tag, the action annotation or the Go name.
type MemberNamedFacetFactory struct{}

func (MemberNamedFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.Members
}

func (MemberNamedFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if name := ctx.Field.Tag.Get("name"); name != "" {
		return ctx.AddFacet(newFacet(name, "", false))
	}
	return ctx.AddFacet(newFacet(facets.NaturalName(ctx.Field.Name), "", true))
}

func (MemberNamedFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	if ctx.Annotated && ctx.Annotation.Named != "" {
		return ctx.AddFacet(newFacet(ctx.Annotation.Named, "", false))
	}
	return ctx.AddFacet(newFacet(facets.NaturalName(ctx.MemberName()), "", true))
}

// ParameterNamedFacetFactory names parameters from the action annotation,
// falling back to the parameter's type.
type ParameterNamedFacetFactory struct{}

func (ParameterNamedFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ParametersOnly
}

func (ParameterNamedFacetFactory) ProcessParameter(ctx *facets.ProcessParameterContext) error {
	if ctx.Annotated && ctx.Index < len(ctx.Annotation.ParameterNames) {
		if name := ctx.Annotation.ParameterNames[ctx.Index]; name != "" {
			return ctx.AddFacet(newFacet(name, "", false))
		}
	}
	t := ctx.Type
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	name := facets.NaturalName(t.Name())
	if name == "" {
		name = t.String()
	}
	return ctx.AddFacet(newFacet(name, "", true))
}
