package object

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Facet types contributed by this package
const (
	DomainObjectFacetType facetapi.FacetType = "DomainObjectFacet"
	HiddenObjectFacetType facetapi.FacetType = "HiddenObjectFacet"
)

var (
	stringType   = reflect.TypeFor[string]()
	boolType     = reflect.TypeFor[bool]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

// DomainObjectFacet records the declared nature of a type.
type DomainObjectFacet struct {
	facetapi.Base
	Nature  applib.Nature
	Bounded bool
	// Table names the SQL table of an entity.
	Table string
}

func (f *DomainObjectFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["nature"] = f.Nature.String()
	attrs["bounded"] = f.Bounded
	if f.Table != "" {
		attrs["table"] = f.Table
	}
}

// DomainObjectAnnotationFacetFactory reads the object annotation.
type DomainObjectAnnotationFacetFactory struct{}

func (DomainObjectAnnotationFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (DomainObjectAnnotationFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	if !ctx.Class.Annotated {
		return nil
	}
	a := ctx.Class.Annotations.Object
	return ctx.AddFacet(&DomainObjectFacet{
		Base:    facetapi.NewBase(DomainObjectFacetType),
		Nature:  a.Nature,
		Bounded: a.Bounded,
		Table:   a.Table,
	})
}

// NatureOf returns the declared nature of the type s describes.
func NatureOf(h *facetapi.Holder) applib.Nature {
	if f, ok := facetapi.Lookup[*DomainObjectFacet](h, DomainObjectFacetType); ok {
		return f.Nature
	}
	return applib.NatureNotSpecified
}

type titleMethodFacet struct {
	facetapi.Base
	method *facets.Method
}

func (f *titleMethodFacet) Title(pojo any) string {
	out, err := f.method.Call(pojo)
	if err != nil {
		return ""
	}
	return out[0].String()
}

type stringerTitleFacet struct {
	facetapi.Base
}

func (f *stringerTitleFacet) Title(pojo any) string {
	if s, ok := pojo.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// TitleFacetFactory titles objects with their Title method or, failing
// that, their String method.
type TitleFacetFactory struct{}

func (TitleFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (TitleFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	c := ctx.Class
	if ctx.ValueType(c.Type) {
		return nil
	}
	if m, ok := c.TakeMethod("Title", func(m *facets.Method) bool {
		return m.NumParams() == 0 && m.Returns(stringType)
	}); ok {
		return ctx.AddFacet(&titleMethodFacet{Base: facetapi.NewBase(spec.TitleFacetType), method: m})
	}
	if c.PtrType().Implements(stringerType) {
		return ctx.AddFacet(&stringerTitleFacet{Base: facetapi.NewBase(spec.TitleFacetType, facetapi.Derived())})
	}
	return nil
}

type hiddenObjectFacet struct {
	facetapi.Base
	method *facets.Method
}

func (f *hiddenObjectFacet) Hides(vc spec.VisibilityContext) string {
	if vc.Target == nil || vc.Target.Pojo() == nil {
		return ""
	}
	out, err := f.method.Call(vc.Target.Pojo())
	if err != nil || !out[0].Bool() {
		return ""
	}
	return "hidden"
}

// HiddenObjectFacetFactory hides instances whose Hidden method returns true.
type HiddenObjectFacetFactory struct{}

func (HiddenObjectFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (HiddenObjectFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	m, ok := ctx.Class.TakeMethod("Hidden", func(m *facets.Method) bool {
		return m.NumParams() == 0 && m.Returns(boolType)
	})
	if !ok {
		return nil
	}
	return ctx.AddFacet(&hiddenObjectFacet{Base: facetapi.NewBase(HiddenObjectFacetType), method: m})
}
