package object

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

type stamped struct{}

func (stamped) Stamp() {}

type ledger struct {
	stamped
	Owner string
	Total int
}

func (l *ledger) String() string        { return l.Owner }
func (l *ledger) XXX_Size() int         { return 0 }
func (l *ledger) Created()              {}
func (l *ledger) Loaded(reason string)  {}
func (l *ledger) SetOwner(owner string) { l.Owner = owner }
func (l *ledger) SetTotal(total int)    { l.Total = total }
func (l *ledger) Close()                {}
func (l *ledger) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{
		Object:  applib.ObjectAnnotation{Nature: applib.NatureEntity},
		Actions: map[string]applib.ActionAnnotation{"SetTotal": {Semantics: applib.Idempotent}},
	}
}

func processClass(t *testing.T, typ reflect.Type, configure func(*facets.Context)) (*facets.Class, *facetapi.Holder, *facets.Context) {
	t.Helper()
	ctx := facets.NewContext(nil)
	if configure != nil {
		configure(ctx)
	}
	class := facets.NewClass(typ, spec.LogicalTypeName(typ))
	h := facetapi.NewArena().NewHolder(facetapi.ClassIdentifier(class.LogicalName), facetapi.Object)
	require.NoError(t, RemoveMethodsFacetFactory{}.ProcessClass(&facets.ProcessClassContext{Context: ctx, Class: class, Holder: h}))
	return class, h, ctx
}

func methodNames(c *facets.Class) []string {
	var names []string
	for _, m := range c.Methods() {
		names = append(names, m.Name)
	}
	return names
}

func TestRemoveMethodsFacetFactory(t *testing.T) {
	class, _, _ := processClass(t, reflect.TypeFor[ledger](), nil)

	assert.ElementsMatch(t,
		[]string{"Stamp", "Loaded", "SetOwner", "SetTotal", "Close"},
		methodNames(class))
}

func TestRemoveMethodsFacetFactory_ExplicitActions(t *testing.T) {
	class, _, _ := processClass(t, reflect.TypeFor[ledger](), func(ctx *facets.Context) {
		ctx.Config.ProgrammingModel.ExplicitActions = true
	})

	names := methodNames(class)
	assert.NotContains(t, names, "SetOwner")
	assert.Contains(t, names, "SetTotal", "annotated setters stay")
}

func TestRemoveMethodsFacetFactory_IgnoredBaseTypes(t *testing.T) {
	class, _, _ := processClass(t, reflect.TypeFor[ledger](), func(ctx *facets.Context) {
		ctx.Config.ProgrammingModel.IgnoredBaseTypes = []string{"object.stamped"}
	})

	assert.NotContains(t, methodNames(class), "Stamp")
}

type note struct {
	Text string
}

type noteShare struct {
	Note *note
	With string
}

func (s *noteShare) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{Object: applib.ObjectAnnotation{Nature: applib.NatureMixin, MixinFor: (*note)(nil)}}
}

type brokenMixin int

func (brokenMixin) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{Object: applib.ObjectAnnotation{Nature: applib.NatureMixin}}
}

func TestMixinFacetFactory(t *testing.T) {
	typ := reflect.TypeFor[noteShare]()
	ctx := facets.NewContext(nil)
	class := facets.NewClass(typ, "object.noteShare")
	h := facetapi.NewArena().NewHolder(facetapi.ClassIdentifier(class.LogicalName), facetapi.Object)

	require.NoError(t, MixinFacetFactory{}.ProcessClass(&facets.ProcessClassContext{Context: ctx, Class: class, Holder: h}))

	mf, ok := facetapi.Lookup[*MixinFacet](h, spec.MixinFacetType)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[note](), mf.Target())
	assert.Equal(t, DefaultMixinMethod, mf.Method)

	mixee := &note{Text: "hello"}
	mixin, err := mf.Instantiate(mixee)
	require.NoError(t, err)
	assert.Same(t, mixee, mixin.(*noteShare).Note)

	_, err = mf.Instantiate(42)
	assert.Error(t, err)
}

func TestMixinFacetFactory_RequiresTarget(t *testing.T) {
	typ := reflect.TypeFor[brokenMixin]()
	ctx := facets.NewContext(nil)
	class := facets.NewClass(typ, "object.brokenMixin")
	h := facetapi.NewArena().NewHolder(facetapi.ClassIdentifier(class.LogicalName), facetapi.Object)

	require.NoError(t, MixinFacetFactory{}.ProcessClass(&facets.ProcessClassContext{Context: ctx, Class: class, Holder: h}))

	assert.False(t, h.Contains(spec.MixinFacetType))
	report := ctx.Sink.(*validation.Report)
	require.Equal(t, 1, report.Count())
	assert.Contains(t, report.Failures()[0].Message, "MixinFor")
}

type draft struct {
	Title string
	Words int
}

func (d *draft) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{Object: applib.ObjectAnnotation{Nature: applib.NatureViewModel}}
}

func TestViewModelFacet_MementoRoundTrip(t *testing.T) {
	typ := reflect.TypeFor[draft]()
	class := facets.NewClass(typ, "object.draft")
	h := facetapi.NewArena().NewHolder(facetapi.ClassIdentifier(class.LogicalName), facetapi.Object)
	require.NoError(t, ViewModelFacetFactory{}.ProcessClass(
		&facets.ProcessClassContext{Context: facets.NewContext(nil), Class: class, Holder: h}))

	vm, ok := facetapi.Lookup[spec.ViewModelFacet](h, spec.ViewModelFacetType)
	require.True(t, ok)

	m, err := vm.Memento(&draft{Title: "intro", Words: 120})
	require.NoError(t, err)
	back, err := vm.Instantiate(m)
	require.NoError(t, err)
	assert.Equal(t, &draft{Title: "intro", Words: 120}, back)

	_, err = vm.Memento(&note{})
	assert.Error(t, err)
}
