package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/carttrack/internal/config"
	"github.com/mmynk/carttrack/internal/storage"
	"github.com/mmynk/carttrack/internal/storage/memory"
)

type brokenStore struct{ *memory.Store }

func (brokenStore) Get(context.Context, string) (storage.Entry, error) {
	return storage.Entry{}, errors.New("connection refused")
}

func TestHealthHandler(t *testing.T) {
	t.Run("empty store is healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthHandler(memory.New())(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("read failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthHandler(brokenStore{memory.New()})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/carttrack.v1.CartService/GetCart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(context.Background(), &config.Config{StoreBackend: config.BackendMemory})
	assert.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}
