package progmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/object"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

type namedFactory struct {
	name string
}

func (namedFactory) FeatureTypes() facetapi.FeatureSet { return facetapi.ObjectsOnly }

type refiningFactory struct {
	namedFactory
	calls int
}

func (f *refiningFactory) RefineProgrammingModel(r facets.Refinement) {
	f.calls++
	r.AddValidator(validation.ValidatorFunc(func(*spec.Specification, validation.Sink) {}))
}

func names(fs []facets.Factory) []string {
	var out []string
	for _, f := range fs {
		switch f := f.(type) {
		case namedFactory:
			out = append(out, f.name)
		case *refiningFactory:
			out = append(out, f.name)
		}
	}
	return out
}

func TestProgrammingModel_FactoryOrder(t *testing.T) {
	m := New()
	m.AddFactory(OrderLate, namedFactory{"late"})
	m.AddFactory(OrderMiddle, namedFactory{"middle-1"})
	m.AddFactory(OrderEarly, namedFactory{"early"})
	m.AddFactory(OrderMiddle, namedFactory{"middle-2"})
	m.AddFactory(Order(42), namedFactory{"out of range"})

	assert.Equal(t, []string{"early", "middle-1", "middle-2", "out of range", "late"}, names(m.Factories()))
}

func TestProgrammingModel_RefineRunsOnce(t *testing.T) {
	m := New()
	refiner := &refiningFactory{namedFactory: namedFactory{"refiner"}}
	m.AddFactory(OrderMiddle, refiner)

	m.Refine()
	m.Refine()
	require.NotNil(t, m.Processor())

	assert.Equal(t, 1, refiner.calls)
	assert.Len(t, m.Validators(), 1)
}

func TestProgrammingModel_PostProcessors(t *testing.T) {
	m := New()
	var ran []string
	m.AddPostProcessor(PostProcessorFunc(func(*facets.Context, *spec.Specification) error {
		ran = append(ran, "first")
		return nil
	}))
	m.AddPostProcessor(PostProcessorFunc(func(*facets.Context, *spec.Specification) error {
		ran = append(ran, "second")
		return nil
	}))

	for _, p := range m.PostProcessors() {
		require.NoError(t, p.PostProcess(nil, nil))
	}
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestDefault(t *testing.T) {
	m := Default(value.NewRegistry(nil))
	factories := m.Factories()

	require.NotEmpty(t, factories)
	assert.IsType(t, object.RemoveMethodsFacetFactory{}, factories[0])
	assert.Len(t, m.PostProcessors(), 2)

	before := len(m.Validators())
	m.Refine()
	assert.Equal(t, before+1, len(m.Validators()), "bookmark validator registered by refinement")
}

func TestOrder_String(t *testing.T) {
	assert.Equal(t, "early", OrderEarly.String())
	assert.Equal(t, "middle", OrderMiddle.String())
	assert.Equal(t, "late", OrderLate.String())
	assert.Equal(t, "unknown", Order(7).String())
}
