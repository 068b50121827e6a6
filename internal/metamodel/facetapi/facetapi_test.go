package facetapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	namedType    FacetType = "NamedFacet"
	maxLenType   FacetType = "MaxLengthFacet"
	digitsType   FacetType = "DigitsFacet"
	choicesType  FacetType = "ChoicesFacet"
	disabledType FacetType = "DisabledFacet"
)

type testFacet struct {
	Base
	value string
}

func (f *testFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["value"] = f.value
}

func newTestFacet(t FacetType, value string, opts ...Option) *testFacet {
	return &testFacet{Base: NewBase(t, opts...), value: value}
}

func newHolder(t *testing.T) (*Arena, *Holder) {
	t.Helper()
	arena := NewArena()
	return arena, arena.NewHolder(ClassIdentifier("todo.Item").Member("Description"), Property)
}

func TestHolder_AddFacet_Precedence(t *testing.T) {
	t.Run("stores into empty slot", func(t *testing.T) {
		_, h := newHolder(t)
		f := newTestFacet(namedType, "a")

		res, err := h.AddFacet(f)

		require.NoError(t, err)
		assert.True(t, res.Added)
		assert.Same(t, f, h.Facet(namedType))
		assert.Equal(t, h.ID(), f.HolderID())
	})

	t.Run("replaced fallback is detached", func(t *testing.T) {
		arena, h := newHolder(t)
		fallback := newTestFacet(namedType, "fallback", AsFallback())
		_, err := h.AddFacet(fallback)
		require.NoError(t, err)
		require.Same(t, h, arena.HolderOf(fallback))

		_, err = h.AddFacet(newTestFacet(namedType, "explicit"))
		require.NoError(t, err)

		assert.Nil(t, arena.HolderOf(fallback))
		assert.Zero(t, fallback.HolderID())
	})

	t.Run("non-fallback replaces fallback in either order", func(t *testing.T) {
		_, h1 := newHolder(t)
		fallback := newTestFacet(namedType, "fallback", AsFallback())
		explicit := newTestFacet(namedType, "explicit")
		_, err := h1.AddFacet(fallback)
		require.NoError(t, err)
		res, err := h1.AddFacet(explicit)
		require.NoError(t, err)
		assert.True(t, res.Added)
		assert.Same(t, fallback, res.Replaced)
		assert.False(t, res.Chained)
		assert.Same(t, explicit, h1.Facet(namedType))
		assert.Nil(t, explicit.Underlying())

		_, h2 := newHolder(t)
		explicit2 := newTestFacet(namedType, "explicit")
		fallback2 := newTestFacet(namedType, "fallback", AsFallback())
		_, err = h2.AddFacet(explicit2)
		require.NoError(t, err)
		res, err = h2.AddFacet(fallback2)
		require.NoError(t, err)
		assert.False(t, res.Added)
		assert.Same(t, explicit2, h2.Facet(namedType))
	})

	t.Run("later non-fallback is discarded", func(t *testing.T) {
		_, h := newHolder(t)
		first := newTestFacet(namedType, "first")
		second := newTestFacet(namedType, "second")
		_, _ = h.AddFacet(first)

		res, err := h.AddFacet(second)

		require.NoError(t, err)
		assert.False(t, res.Added)
		assert.Same(t, first, h.Facet(namedType))
	})

	t.Run("always-replace chains the existing facet", func(t *testing.T) {
		_, h := newHolder(t)
		first := newTestFacet(namedType, "first")
		second := newTestFacet(namedType, "second", ReplacingAlways())
		_, _ = h.AddFacet(first)

		res, err := h.AddFacet(second)

		require.NoError(t, err)
		assert.True(t, res.Chained)
		assert.Same(t, second, h.Facet(namedType))
		assert.Same(t, first, second.Underlying())

		var chain []Facet
		for f := range Chained(h.Facet(namedType)) {
			chain = append(chain, f)
		}
		assert.Equal(t, []Facet{second, first}, chain)
	})

	t.Run("chain option decorates the existing facet", func(t *testing.T) {
		_, h := newHolder(t)
		first := newTestFacet(disabledType, "first")
		decorator := newTestFacet(disabledType, "decorator")
		_, _ = h.AddFacet(first)

		res, err := h.AddFacet(decorator, Chain())

		require.NoError(t, err)
		assert.True(t, res.Added)
		assert.Same(t, first, decorator.Underlying())
	})

	t.Run("fallback replaces fallback", func(t *testing.T) {
		_, h := newHolder(t)
		a := newTestFacet(namedType, "a", AsFallback())
		b := newTestFacet(namedType, "b", AsFallback())
		_, _ = h.AddFacet(a)
		res, err := h.AddFacet(b)
		require.NoError(t, err)
		assert.True(t, res.Added)
		assert.Same(t, b, h.Facet(namedType))
	})
}

func TestHolder_Aliases(t *testing.T) {
	t.Run("lookup by alias", func(t *testing.T) {
		_, h := newHolder(t)
		f := newTestFacet(digitsType, "10,2", WithAlias(maxLenType))
		_, err := h.AddFacet(f)
		require.NoError(t, err)

		assert.Same(t, f, h.Facet(maxLenType))
		got, ok := Lookup[*testFacet](h, maxLenType)
		require.True(t, ok)
		assert.Equal(t, "10,2", got.value)
	})

	t.Run("alias equal to registered type fails at add time", func(t *testing.T) {
		_, h := newHolder(t)
		_, err := h.AddFacet(newTestFacet(maxLenType, "12"))
		require.NoError(t, err)

		_, err = h.AddFacet(newTestFacet(digitsType, "10,2", WithAlias(maxLenType)))

		require.Error(t, err)
		assert.True(t, IsAliasCollision(err))
		assert.Contains(t, err.Error(), "todo.Item#Description")
	})

	t.Run("type equal to registered alias fails at add time", func(t *testing.T) {
		_, h := newHolder(t)
		_, err := h.AddFacet(newTestFacet(digitsType, "10,2", WithAlias(maxLenType)))
		require.NoError(t, err)

		_, err = h.AddFacet(newTestFacet(maxLenType, "12"))

		assert.True(t, IsAliasCollision(err))
	})

	t.Run("same alias on another type fails", func(t *testing.T) {
		_, h := newHolder(t)
		_, err := h.AddFacet(newTestFacet(digitsType, "10,2", WithAlias(maxLenType)))
		require.NoError(t, err)

		_, err = h.AddFacet(newTestFacet(choicesType, "x", WithAlias(maxLenType)))

		assert.True(t, IsAliasCollision(err))
	})

	t.Run("replacing fallback releases its alias", func(t *testing.T) {
		_, h := newHolder(t)
		_, err := h.AddFacet(newTestFacet(digitsType, "fallback", AsFallback(), WithAlias(maxLenType)))
		require.NoError(t, err)

		explicit := newTestFacet(digitsType, "explicit")
		_, err = h.AddFacet(explicit)
		require.NoError(t, err)

		assert.Nil(t, h.Facet(maxLenType))
		assert.Same(t, explicit, h.Facet(digitsType))
	})
}

func TestHolder_FallbackQueries(t *testing.T) {
	_, h := newHolder(t)
	_, _ = h.AddFacet(newTestFacet(namedType, "x", AsFallback()))

	assert.True(t, h.Contains(namedType))
	assert.False(t, h.ContainsNonFallback(namedType))
	assert.Nil(t, h.LookupNonFallback(namedType))
	_, ok := LookupNonFallback[*testFacet](h, namedType)
	assert.False(t, ok)
}

func TestHolder_Facets(t *testing.T) {
	_, h := newHolder(t)
	_, _ = h.AddFacet(newTestFacet(namedType, "a", AsFallback()))
	_, _ = h.AddFacet(newTestFacet(choicesType, "b"))

	seen := map[FacetType]bool{}
	for f := range h.Facets() {
		seen[f.FacetType()] = true
	}
	assert.Equal(t, map[FacetType]bool{namedType: true, choicesType: true}, seen)

	// restartable and stoppable
	count := 0
	for range h.Facets() {
		count++
		break
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, h.Len())
}

func TestHolder_RemoveFacet(t *testing.T) {
	_, h := newHolder(t)
	f := newTestFacet(digitsType, "x", WithAlias(maxLenType))
	_, _ = h.AddFacet(f)

	removed, err := h.RemoveFacet(maxLenType)

	require.NoError(t, err)
	assert.Same(t, f, removed)
	assert.False(t, h.Contains(digitsType))
	assert.False(t, h.Contains(maxLenType))
	assert.Zero(t, f.HolderID())
}

func TestArena_Reparent(t *testing.T) {
	arena := NewArena()
	mixin := arena.NewHolder(ClassIdentifier("todo.ItemArchive").Member("Act"), Action)
	target := arena.NewHolder(ClassIdentifier("todo.Item").Member("archive"), Action)
	f := newTestFacet(namedType, "archive")
	_, err := mixin.AddFacet(f)
	require.NoError(t, err)

	res, err := arena.Reparent(f, target)

	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.False(t, mixin.Contains(namedType))
	assert.Same(t, f, target.Facet(namedType))
	assert.Same(t, target, arena.HolderOf(f))
}

func TestArena_Reparent_ForeignHolder(t *testing.T) {
	arena := NewArena()
	other := NewArena().NewHolder(ClassIdentifier("x.Y"), Object)

	_, err := arena.Reparent(newTestFacet(namedType, "a"), other)

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, MissingHolder, se.Kind)
}

func TestArena_Seal(t *testing.T) {
	arena, h := newHolder(t)
	f := newTestFacet(namedType, "a")
	_, _ = h.AddFacet(f)
	arena.Seal()

	_, err := h.AddFacet(newTestFacet(choicesType, "b"))
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Sealed, se.Kind)

	_, err = h.RemoveFacet(namedType)
	assert.True(t, IsStructural(err))

	other := arena.NewHolder(ClassIdentifier("todo.Other"), Object)
	_, err = other.AddFacet(f)
	assert.True(t, IsStructural(err))
	assert.Same(t, f, h.Facet(namedType))
}

func TestBase_SetUnderlying_TypeMismatch(t *testing.T) {
	f := newTestFacet(namedType, "a")
	err := f.SetUnderlying(newTestFacet(choicesType, "b"))
	assert.True(t, IsStructural(err))
}

func TestAttributes(t *testing.T) {
	f := newTestFacet(digitsType, "10,2", Derived(), WithAlias(maxLenType))
	attrs := Attributes(f)
	assert.Equal(t, "DigitsFacet", attrs["facet"])
	assert.Equal(t, "MaxLengthFacet", attrs["alias"])
	assert.Equal(t, true, attrs["derived"])
	assert.Equal(t, "10,2", attrs["value"])
}

func TestContributedFacets(t *testing.T) {
	f := newTestFacet(namedType, "a")
	c := newTestFacet(namedType, "contributed")
	f.AddContributedFacet(c)

	var got []Facet
	for cf := range f.ContributedFacets() {
		got = append(got, cf)
	}
	assert.Equal(t, []Facet{c}, got)
}

func TestIdentifier(t *testing.T) {
	cls := ClassIdentifier("todo.Item")
	param := cls.Member("Complete").Parameter(0)

	assert.Equal(t, "todo.Item", cls.String())
	assert.Equal(t, "todo.Item#Complete", cls.Member("Complete").String())
	assert.Equal(t, "todo.Item#Complete(0)", param.String())
	assert.True(t, param.IsParameter())
	assert.Equal(t, cls.Member("Complete"), param.Owner())
	assert.Equal(t, cls, param.Owner().Owner())
}

func TestFeatureSet(t *testing.T) {
	assert.True(t, Members.Contains(Collection))
	assert.False(t, Members.Contains(Object))
	assert.True(t, ParametersOnly.Contains(ActionParameterCollection))
	assert.True(t, Everything.Contains(ActionParameterScalar))
	assert.Equal(t, "[object,action]", ObjectsAndActions.String())
	assert.Equal(t, ObjectsAndProperties, ObjectsOnly.Union(PropertiesOnly))
}
