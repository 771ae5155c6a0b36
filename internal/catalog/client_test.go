package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/serviceerrs"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items/mug", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(model.HeaderContentType, "application/json")
		_, _ = w.Write([]byte(`{"id":"mug","name":"camp mug","cost":30,"available":true}`))
	})
	mux.HandleFunc("GET /api/items/busy", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("GET /api/items/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Item(t *testing.T) {
	srv := newCatalogServer(t)
	client := New(srv.Listener.Addr().String())

	it, err := client.Item(context.Background(), "mug")
	require.NoError(t, err)
	assert.Equal(t, "mug", it.ID)
	assert.Equal(t, "camp mug", it.Name)
	assert.Equal(t, model.Amount(30), it.Cost)
	assert.True(t, it.Available)
}

func TestClient_ItemNotFound(t *testing.T) {
	srv := newCatalogServer(t)
	client := New(srv.Listener.Addr().String())

	_, err := client.Item(context.Background(), "no-such-item")
	require.ErrorIs(t, err, serviceerrs.ErrNotFound)
}

func TestClient_ItemTooManyRequests(t *testing.T) {
	srv := newCatalogServer(t)
	client := New(srv.Listener.Addr().String())

	_, err := client.Item(context.Background(), "busy")
	var tmrErr *serviceerrs.TooManyRequestsError
	require.True(t, errors.As(err, &tmrErr))
	assert.Equal(t, 7*time.Second, tmrErr.RetryAfter)
}
