package postprocessors

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/choices"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/properties"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

type shade int

func (shade) EnumValues() []any { return []any{shade(0), shade(1)} }

type paint struct {
	Shade shade
	Name  string
}

func (p *paint) Mix(s shade, count int, note *string) {}

type stubLoader map[reflect.Type]*spec.Specification

func (l stubLoader) LoadSpecification(t reflect.Type) *spec.Specification {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return l[t]
}

func (l stubLoader) SpecificationByName(string) (*spec.Specification, bool) { return nil, false }

type fixture struct {
	arena  *facetapi.Arena
	loader stubLoader
	ctx    *facets.Context
	paint  *spec.Specification
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{arena: facetapi.NewArena(), loader: stubLoader{}}
	f.ctx = facets.NewContext(f.loader)

	for _, typ := range []reflect.Type{reflect.TypeFor[shade](), reflect.TypeFor[string](), reflect.TypeFor[int]()} {
		s := f.newSpec(typ)
		class := facets.NewClass(typ, s.LogicalTypeName())
		require.NoError(t, choices.ChoicesFacetFromEnumFactory{}.ProcessClass(
			&facets.ProcessClassContext{Context: f.ctx, Class: class, Holder: s.Holder()}))
	}

	typ := reflect.TypeFor[paint]()
	f.paint = f.newSpec(typ)
	for _, name := range []string{"Shade", "Name"} {
		field, _ := typ.FieldByName(name)
		h := f.arena.NewHolder(f.paint.Identifier().Member(name), facetapi.Property)
		f.paint.AddProperty(spec.NewProperty(f.paint, field, h))
	}

	m, _ := reflect.PointerTo(typ).MethodByName("Mix")
	h := f.arena.NewHolder(f.paint.Identifier().Member("Mix"), facetapi.Action)
	a := spec.NewAction(f.paint, "Mix", spec.NewMethod(h.Identifier(), m), h)
	for i := 1; i < m.Type.NumIn(); i++ {
		ph := f.arena.NewHolder(h.Identifier().Parameter(i-1), facetapi.ActionParameterScalar)
		a.AddParameter(spec.NewParameter(a, i-1, m.Type.In(i), ph))
	}
	f.paint.AddAction(a)
	return f
}

func (f *fixture) newSpec(t reflect.Type) *spec.Specification {
	name := spec.LogicalTypeName(t)
	s := spec.New(t, name, f.arena.NewHolder(facetapi.ClassIdentifier(name), facetapi.Object), f.loader)
	f.loader[t] = s
	return s
}

func TestDeriveChoicesFromExistingChoices(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, DeriveChoicesFromExistingChoices{}.PostProcess(f.ctx, f.paint))

	shadeProp, _ := f.paint.Property("Shade")
	provider, ok := facetapi.Lookup[choices.Provider](shadeProp.Holder(), choices.PropertyChoicesFacetType)
	require.True(t, ok)
	assert.True(t, provider.IsDerived())
	assert.Equal(t, []any{shade(0), shade(1)}, provider.Choices(nil))

	nameProp, _ := f.paint.Property("Name")
	assert.False(t, nameProp.Holder().Contains(choices.PropertyChoicesFacetType))

	mix, _ := f.paint.Action("Mix")
	params := mix.Parameters()
	assert.True(t, params[0].Holder().Contains(choices.ParameterChoicesFacetType))
	assert.False(t, params[1].Holder().Contains(choices.ParameterChoicesFacetType))
}

type fixedChoices struct {
	facetapi.Base
}

func (fixedChoices) Choices(any) []any { return []any{shade(1)} }

func TestDeriveChoicesFromExistingChoices_KeepsOwnChoices(t *testing.T) {
	f := newFixture(t)
	shadeProp, _ := f.paint.Property("Shade")
	own := &fixedChoices{Base: facetapi.NewBase(choices.PropertyChoicesFacetType)}
	_, err := shadeProp.Holder().AddFacet(own)
	require.NoError(t, err)

	require.NoError(t, DeriveChoicesFromExistingChoices{}.PostProcess(f.ctx, f.paint))

	assert.Same(t, own, shadeProp.Holder().Facet(choices.PropertyChoicesFacetType))
}

func TestDeriveMandatoryForPrimitives(t *testing.T) {
	f := newFixture(t)
	mix, _ := f.paint.Action("Mix")
	params := mix.Parameters()
	explicit := properties.NewMandatoryFacet(false)
	_, err := params[1].Holder().AddFacet(explicit)
	require.NoError(t, err)

	require.NoError(t, DeriveMandatoryForPrimitives{}.PostProcess(f.ctx, f.paint))

	assert.True(t, properties.IsMandatory(params[0].Holder()))
	derived, _ := facetapi.Lookup[*properties.MandatoryFacet](params[0].Holder(), properties.MandatoryFacetType)
	assert.True(t, derived.IsDerived())
	assert.Same(t, explicit, params[1].Holder().Facet(properties.MandatoryFacetType))
	assert.False(t, params[2].Holder().Contains(properties.MandatoryFacetType))
}
