package sqlstore

import (
	"context"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
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
}

func (c *counter) MetamodelAnnotations() applib.Annotations {
	return applib.Annotations{Object: applib.ObjectAnnotation{Nature: applib.NatureEntity}}
}

var itemColumns = []string{"id", "description", "category", "due", "done", "archived", "cost"}

const selectItem = `SELECT "id", "description", "category", "due", "done", "archived", "cost" FROM "items"`

type fixture struct {
	store   *Store
	mock    sqlmock.Sqlmock
	loader  *specloader.Loader
	item    *spec.Specification
	counter *spec.Specification
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := New(db, Postgres, nil)
	l := specloader.New(specloader.Options{Store: store})
	report, err := l.LoadAll(append(todo.Types(), reflect.TypeFor[counter]())...)
	require.NoError(t, err)
	require.False(t, report.HasFailures(), "%v", report.Failures())

	return &fixture{
		store:   store,
		mock:    mock,
		loader:  l,
		item:    l.LoadSpecification(reflect.TypeFor[todo.Item]()),
		counter: l.LoadSpecification(reflect.TypeFor[counter]()),
	}
}

func (f *fixture) insertItem(t *testing.T, item *todo.Item) {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "items" ("id", "description", "category", "due", "done", "archived", "cost") VALUES ($1, $2, $3, $4, $5, $6, $7)`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()
	require.NoError(t, f.store.Persist(context.Background(), f.item, item))
}

func TestDialect(t *testing.T) {
	d, err := DialectOf("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
	assert.Equal(t, "?", d.Placeholder(3))
	assert.Equal(t, " LIMIT -1 OFFSET 5", d.LimitOffset(0, 5))

	for _, driver := range []string{"pgx", "postgres"} {
		d, err = DialectOf(driver)
		require.NoError(t, err)
		assert.Equal(t, Postgres, d)
	}
	assert.Equal(t, "$3", d.Placeholder(3))
	assert.Equal(t, " OFFSET 5", d.LimitOffset(0, 5))
	assert.Equal(t, " LIMIT 2 OFFSET 1", d.LimitOffset(2, 1))
	assert.Equal(t, `"odd""name"`, d.Quote(`odd"name`))

	_, err = DialectOf("mysql")
	assert.Error(t, err)
}

func TestStore_Migrate(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "counters" ("n" TEXT PRIMARY KEY, "label" TEXT NOT NULL)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "items" ("id" TEXT PRIMARY KEY, "description" TEXT NOT NULL, "category" TEXT NOT NULL, "due" TEXT, "done" TEXT NOT NULL, "archived" TEXT NOT NULL, "cost" TEXT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, f.store.Migrate(context.Background(), f.loader.Specifications()))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStore_InsertAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &todo.Item{ID: "a", Description: "Buy milk", Category: todo.CategoryHome}
	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "items" ("id", "description", "category", "due", "done", "archived", "cost") VALUES ($1, $2, $3, $4, $5, $6, $7)`)).
		WithArgs("a", "Buy milk", "home", nil, "false", "false", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()
	require.NoError(t, f.store.Persist(ctx, f.item, item))
	assert.Equal(t, spec.Attached, f.store.State(item))

	item.Description = "Buy oat milk"
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "items" SET "description" = $1 WHERE "id" = $2`)).
		WithArgs("Buy oat milk", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.store.Persist(ctx, f.item, item))

	require.NoError(t, f.store.Persist(ctx, f.item, item), "nothing changed, nothing written")

	loaded, err := f.store.Load(ctx, f.item, "a")
	require.NoError(t, err)
	assert.Same(t, item, loaded)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStore_InsertWithSequence(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(CAST("n" AS BIGINT)), 0) + 1 FROM "counters"`)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(5)))
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "counters" ("n", "label") VALUES ($1, $2)`)).
		WithArgs("5", "fifth").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	c := &counter{Label: "fifth"}
	require.NoError(t, f.store.Persist(context.Background(), f.counter, c))
	assert.Equal(t, 5, c.N)
	id, ok := f.store.Identify(c)
	require.True(t, ok)
	assert.Equal(t, "5", id)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStore_UniqueViolation(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`INSERT INTO "items"`).WillReturnError(&pq.Error{Code: "23505"})
	f.mock.ExpectRollback()

	item := &todo.Item{ID: "a", Description: "dup"}
	err := f.store.Persist(context.Background(), f.item, item)
	assert.ErrorIs(t, err, persistence.ErrUniqueViolation)
	assert.Equal(t, spec.Transient, f.store.State(item))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStore_LoadAndQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mock.ExpectQuery(regexp.QuoteMeta(selectItem + ` WHERE "id" = $1`)).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow("a", "Buy milk", "work", nil, "true", "false", "3.99"))
	loaded, err := f.store.Load(ctx, f.item, "a")
	require.NoError(t, err)
	item := loaded.(*todo.Item)
	assert.Equal(t, "Buy milk", item.Description)
	assert.Equal(t, todo.CategoryWork, item.Category)
	assert.True(t, item.Done)
	assert.Nil(t, item.Due)
	assert.Equal(t, "3.99", item.Cost.FloatString(2))
	assert.Equal(t, spec.Attached, f.store.State(item))

	f.mock.ExpectQuery(regexp.QuoteMeta(selectItem + ` WHERE "category" = $1 AND "due" IS NULL ORDER BY "id" LIMIT 2 OFFSET 1`)).
		WithArgs("work").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("a", "stale title", "work", nil, "true", "false", nil).
			AddRow("b", "Call", "work", nil, "false", "false", nil))
	found, err := f.store.Query(ctx, f.item, spec.Query{
		Where:  map[string]any{"Category": todo.CategoryWork, "Due": (*applib.LocalDate)(nil)},
		Limit:  2,
		Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Same(t, item, found[0], "attached entities are not overwritten")
	assert.Equal(t, "Buy milk", item.Description)
	assert.Equal(t, "Call", found[1].(*todo.Item).Description)

	f.mock.ExpectQuery(regexp.QuoteMeta(selectItem + ` WHERE "id" = $1`)).
		WithArgs("zz").
		WillReturnRows(sqlmock.NewRows(itemColumns))
	_, err = f.store.Load(ctx, f.item, "zz")
	assert.ErrorIs(t, err, spec.ErrObjectNotFound)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestStore_RefreshDetachDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := &todo.Item{ID: "a", Description: "Read", Category: todo.CategoryHome}
	f.insertItem(t, item)

	item.Description = "Write"
	f.mock.ExpectQuery(regexp.QuoteMeta(selectItem + ` WHERE "id" = $1`)).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow("a", "Read", "home", nil, "false", "false", nil))
	discarded, err := f.store.Refresh(ctx, f.item, item)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description"}, discarded)
	assert.Equal(t, "Read", item.Description)

	require.NoError(t, f.store.Detach(ctx, f.item, item))
	assert.Equal(t, spec.Detached, f.store.State(item))
	assert.ErrorIs(t, f.store.Detach(ctx, f.item, item), persistence.ErrNotAttached)

	item.Done = true
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "items" SET "description" = $1, "category" = $2, "due" = $3, "done" = $4, "archived" = $5, "cost" = $6 WHERE "id" = $7`)).
		WithArgs("Read", "home", nil, "true", "false", nil, "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.store.Persist(ctx, f.item, item))
	assert.Equal(t, spec.Attached, f.store.State(item))

	f.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "items" WHERE "id" = $1`)).
		WithArgs("a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.store.Delete(ctx, f.item, item))
	assert.Equal(t, spec.Destroyed, f.store.State(item))
	assert.ErrorIs(t, f.store.Persist(ctx, f.item, item), persistence.ErrDestroyed)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}
