package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/examples/todo"
	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/memento"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence/memstore"
	"github.com/conduit-lang/metamodel/internal/persistence/sqlstore"
)

func TestNew_MemoryDefaults(t *testing.T) {
	a, err := New(context.Background(), nil, nil, todo.Types()...)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memstore.Store{}, a.Store)
	assert.IsType(t, &memento.MemoryStore{}, a.Mementos)
	assert.False(t, a.Report.HasFailures())

	_, ok := a.Specs.SpecificationByName("todo.Item")
	assert.True(t, ok)
}

func TestNew_RedisMementos(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg, err := config.FromMap(map[string]any{
		"memento": map[string]any{
			"backend": "redis",
			"prefix":  "test:",
			"redis":   map[string]any{"addr": mr.Addr()},
		},
	})
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, nil, todo.Types()...)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	summary := a.Manager.Adapt(&todo.ItemSummary{Category: todo.CategoryHome, Open: 4})
	handle, err := a.Manager.Stash(ctx, summary)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+handle))

	restored, err := a.Manager.Unstash(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, summary.Pojo(), restored.Pojo())
}

func TestNew_SQLite(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		"persistence": map[string]any{"driver": "sqlite3", "dsn": ":memory:"},
	})
	require.NoError(t, err)

	ctx := context.Background()
	a, err := New(ctx, cfg, nil, todo.Types()...)
	require.NoError(t, err)
	defer a.Close()
	require.IsType(t, &sqlstore.Store{}, a.Store)

	item := &todo.Item{Description: "Renew passport", Category: todo.CategoryHome}
	mo := a.Manager.Adapt(item)
	require.NoError(t, a.Manager.Persist(ctx, mo))
	require.NotEmpty(t, item.ID)

	item.Done = true
	require.NoError(t, a.Manager.Persist(ctx, mo))
	_, err = a.Manager.Detach(ctx, mo)
	require.NoError(t, err)

	s, _ := a.Specs.SpecificationByName("todo.Item")
	loaded, err := a.Manager.Load(ctx, s, item.ID)
	require.NoError(t, err)
	assert.NotSame(t, item, loaded.Pojo())
	assert.Equal(t, "Renew passport (done)", loaded.Title())
	assert.Equal(t, spec.Attached, loaded.EntityState())
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Persistence.Driver = "oracle"
	_, err := New(context.Background(), cfg, nil, todo.Types()...)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	a, err := New(context.Background(), nil, nil, todo.Types()...)
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/specs/todo.ItemSummary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "view_model", body["sort"])
}
