package memstore

import (
	"context"
	"math/big"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/examples/todo"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/specloader"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

type counter struct {
	N     int `mm:"key"`
	Label string

	loads, persists, removals int
}

func (c *counter) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{Object: applib.ObjectAnnotation{Nature: applib.NatureEntity}}
}

func (c *counter) Loaded()     { c.loads++ }
func (c *counter) Persisting() { c.persists++ }
func (c *counter) Removing()   { c.removals++ }

type fixture struct {
	store   *Store
	loader  *specloader.Loader
	item    *spec.Specification
	counter *spec.Specification
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := New(nil)
	l := specloader.New(specloader.Options{Store: store})
	report, err := l.LoadAll(append(todo.Types(), reflect.TypeFor[counter]())...)
	require.NoError(t, err)
	require.False(t, report.HasFailures(), "%v", report.Failures())

	f := &fixture{store: store, loader: l}
	f.item = l.LoadSpecification(reflect.TypeFor[todo.Item]())
	f.counter = l.LoadSpecification(reflect.TypeFor[counter]())
	return f
}

func TestStore_PersistAndLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &todo.Item{Description: "Buy milk", Category: todo.CategoryHome, Cost: big.NewRat(399, 100), Notes: "skimmed"}
	assert.Equal(t, spec.Transient, f.store.State(item))

	require.NoError(t, f.store.Persist(ctx, f.item, item))
	assert.NotEmpty(t, item.ID, "string keys are generated")
	assert.Equal(t, spec.Attached, f.store.State(item))
	id, ok := f.store.Identify(item)
	require.True(t, ok)
	assert.Equal(t, item.ID, id)

	loaded, err := f.store.Load(ctx, f.item, id)
	require.NoError(t, err)
	assert.Same(t, item, loaded, "attached entities are unique per id")

	require.NoError(t, f.store.Detach(ctx, f.item, item))
	assert.Equal(t, spec.Detached, f.store.State(item))

	loaded, err = f.store.Load(ctx, f.item, id)
	require.NoError(t, err)
	fresh := loaded.(*todo.Item)
	assert.NotSame(t, item, fresh)
	assert.Equal(t, "Buy milk", fresh.Description)
	assert.Equal(t, todo.CategoryHome, fresh.Category)
	assert.Equal(t, 0, fresh.Cost.Cmp(big.NewRat(399, 100)))
	assert.Empty(t, fresh.Notes, "not persisted")

	_, err = f.store.Load(ctx, f.item, "missing")
	assert.ErrorIs(t, err, spec.ErrObjectNotFound)
}

func TestStore_MergeDetached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &todo.Item{Description: "Draft"}
	require.NoError(t, f.store.Persist(ctx, f.item, item))
	require.NoError(t, f.store.Detach(ctx, f.item, item))

	item.Description = "Final"
	require.NoError(t, f.store.Persist(ctx, f.item, item))
	assert.Equal(t, spec.Attached, f.store.State(item))

	loaded, err := f.store.Load(ctx, f.item, item.ID)
	require.NoError(t, err)
	assert.Same(t, item, loaded)
	assert.Equal(t, "Final", loaded.(*todo.Item).Description)
}

func TestStore_Query(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, c := range []todo.Category{todo.CategoryWork, todo.CategoryHome, todo.CategoryWork, todo.CategoryWork} {
		item := &todo.Item{ID: string(rune('a' + i)), Description: "task", Category: c}
		require.NoError(t, f.store.Persist(ctx, f.item, item))
	}

	work, err := f.store.Query(ctx, f.item, spec.Query{Where: map[string]any{"Category": todo.CategoryWork}})
	require.NoError(t, err)
	ids := make([]string, len(work))
	for i, pojo := range work {
		ids[i] = pojo.(*todo.Item).ID
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)

	page, err := f.store.Query(ctx, f.item, spec.Query{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].(*todo.Item).ID)

	none, err := f.store.Query(ctx, f.item, spec.Query{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.store.Query(ctx, f.item, spec.Query{Where: map[string]any{"Notes": "x"}})
	assert.Error(t, err, "not persisted properties cannot be queried")
}

func TestStore_Refresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &todo.Item{Description: "Read", Done: false}
	require.NoError(t, f.store.Persist(ctx, f.item, item))

	item.Description = "Write"
	item.Notes = "kept"
	discarded, err := f.store.Refresh(ctx, f.item, item)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description"}, discarded)
	assert.Equal(t, "Read", item.Description)
	assert.Equal(t, "kept", item.Notes)

	discarded, err = f.store.Refresh(ctx, f.item, item)
	require.NoError(t, err)
	assert.Empty(t, discarded)

	_, err = f.store.Refresh(ctx, f.item, &todo.Item{})
	assert.ErrorIs(t, err, persistence.ErrNotAttached)
}

func TestStore_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := &counter{Label: "first"}
	require.NoError(t, f.store.Persist(ctx, f.counter, c))
	assert.Equal(t, 1, c.N, "integer keys come from a sequence")
	assert.Equal(t, 1, c.persists)

	second := &counter{Label: "second"}
	require.NoError(t, f.store.Persist(ctx, f.counter, second))
	assert.Equal(t, 2, second.N)

	require.NoError(t, f.store.Delete(ctx, f.counter, c))
	assert.Equal(t, 1, c.removals)
	assert.Equal(t, spec.Destroyed, f.store.State(c))
	_, ok := f.store.Identify(c)
	assert.False(t, ok)

	_, err := f.store.Load(ctx, f.counter, "1")
	assert.ErrorIs(t, err, spec.ErrObjectNotFound)
	assert.ErrorIs(t, f.store.Persist(ctx, f.counter, c), persistence.ErrDestroyed)
	assert.ErrorIs(t, f.store.Delete(ctx, f.counter, c), persistence.ErrDestroyed)
	assert.ErrorIs(t, f.store.Delete(ctx, f.counter, &counter{}), persistence.ErrNotAttached)
}

func TestStore_LoadedCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := &counter{N: 7, Label: "seven"}
	require.NoError(t, f.store.Persist(ctx, f.counter, c))
	require.NoError(t, f.store.Detach(ctx, f.counter, c))

	loaded, err := f.store.Load(ctx, f.counter, "7")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.(*counter).loads)
	assert.Equal(t, "seven", loaded.(*counter).Label)

	dup := &counter{N: 7}
	assert.ErrorIs(t, f.store.Persist(ctx, f.counter, dup), persistence.ErrUniqueViolation)
}

func TestStore_NotPersistable(t *testing.T) {
	f := newFixture(t)
	summary := f.loader.LoadSpecification(reflect.TypeFor[todo.ItemSummary]())
	err := f.store.Persist(context.Background(), summary, &todo.ItemSummary{})
	assert.ErrorIs(t, err, persistence.ErrNotPersistable)
}
