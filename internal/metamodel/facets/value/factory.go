package value

import (
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// FacetFactory attaches value semantics to registered value types.
type FacetFactory struct {
	registry *Registry
}

// NewFacetFactory returns a factory backed by registry.
func NewFacetFactory(registry *Registry) *FacetFactory {
	return &FacetFactory{registry: registry}
}

func (*FacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

// ProcessClass adds the value facet, a title facet rendering display titles
// and, unless the type declares its own, a derived default.
func (ff *FacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	f, ok := ff.registry.FacetFor(ctx.Class.Type, ctx.Specs)
	if !ok {
		return nil
	}
	if err := ctx.AddFacet(f); err != nil {
		return err
	}
	if err := ctx.AddFacet(&titleFacet{Base: facetapi.NewBase(spec.TitleFacetType), value: f}); err != nil {
		return err
	}
	if def, ok := f.DefaultValue(); ok {
		// an explicit default already present keeps precedence
		return ctx.AddFacet(NewDefaultedFacet(func() any { return def }, facetapi.Derived()))
	}
	return nil
}

type titleFacet struct {
	facetapi.Base
	value *Facet
}

func (t *titleFacet) Title(pojo any) string {
	return t.value.DisplayTitleOf(pojo)
}

// DefaultedFacetFactory reads the default of types implementing
// applib.Defaulted.
type DefaultedFacetFactory struct{}

func (DefaultedFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (DefaultedFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	t := ctx.Class.Type
	proto, ok := defaultedProto(t)
	if !ok {
		return nil
	}
	return ctx.AddFacet(NewDefaultedFacet(proto.DefaultValue))
}

// defaultedProto returns a zero instance of t through which DefaultValue
// can be called.
func defaultedProto(t reflect.Type) (applib.Defaulted, bool) {
	defaulted := reflect.TypeFor[applib.Defaulted]()
	switch {
	case t.Implements(defaulted):
		if t.Kind() == reflect.Pointer {
			return reflect.New(t.Elem()).Interface().(applib.Defaulted), true
		}
		return reflect.Zero(t).Interface().(applib.Defaulted), true
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(defaulted):
		return reflect.New(t).Interface().(applib.Defaulted), true
	}
	return nil, false
}
