package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(":8090", okHandler())

	assert.Equal(t, ":8090", config.Address)
	assert.Equal(t, 15*time.Second, config.ReadTimeout)
	assert.Equal(t, 15*time.Second, config.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.IdleTimeout)
	assert.Equal(t, 30*time.Second, config.ShutdownTimeout)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Address: ":0"})
	assert.Error(t, err)
}

func TestServer_RunAndShutdown(t *testing.T) {
	srv, err := New(DefaultConfig("127.0.0.1:0", okHandler()))
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	var hooks []string
	srv.OnShutdown(func(ctx context.Context) error {
		hooks = append(hooks, "first")
		return nil
	})
	srv.OnShutdown(func(ctx context.Context) error {
		hooks = append(hooks, "second")
		return errors.New("close failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "close failed")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, []string{"first", "second"}, hooks)
}

func TestServer_ListenFailure(t *testing.T) {
	first, err := New(DefaultConfig("127.0.0.1:0", okHandler()))
	require.NoError(t, err)
	require.NoError(t, first.Listen())
	defer first.Shutdown()

	second, err := New(DefaultConfig(first.Addr(), okHandler()))
	require.NoError(t, err)
	assert.Error(t, second.Run(context.Background()))
}
