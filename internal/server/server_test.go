package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/groceryswap/internal/database"
	"github.com/dukerupert/groceryswap/internal/foodfacts"
	"github.com/dukerupert/groceryswap/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyFetcher struct{}

func (emptyFetcher) Search(context.Context, string, int) ([]foodfacts.Record, error) {
	return nil, nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(db, emptyFetcher{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return srv, srv.Router()
}

func get(h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "10.0.0.1:5000"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, Config{})

	rec := get(h, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestHealthUnavailable(t *testing.T) {
	srv, h := newTestServer(t, Config{})
	require.NoError(t, srv.db.Close())

	rec := get(h, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestRoutes(t *testing.T) {
	_, h := newTestServer(t, Config{})

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"retailers", "/api/retailers", nil, http.StatusOK},
		{"products", "/api/products", nil, http.StatusOK},
		{"categories", "/api/products/categories", nil, http.StatusOK},
		{"prices", "/api/prices", nil, http.StatusOK},
		{"lists without user", "/api/shopping-lists", nil, http.StatusUnauthorized},
		{"lists with user", "/api/shopping-lists", map[string]string{middleware.UserHeader: "7"}, http.StatusOK},
		{"catalog", "/api/off/products", nil, http.StatusOK},
		{"unknown", "/api/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(h, tt.path, tt.header).Code)
		})
	}
}

func TestCatalogRateLimit(t *testing.T) {
	srv, h := newTestServer(t, Config{SearchRateLimit: 2})

	assert.Equal(t, http.StatusOK, get(h, "/api/off/search?q=milk", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/off/search?q=milk", nil).Code)

	rec := get(h, "/api/off/search?q=milk", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(h, "/api/off/products", nil).Code, "local browse is not limited")
	assert.Equal(t, 0, srv.RateLimiter().Cleanup())
}

func TestCatalogRateLimitDisabled(t *testing.T) {
	_, h := newTestServer(t, Config{})

	for range 5 {
		assert.Equal(t, http.StatusOK, get(h, "/api/off/search?q=milk", nil).Code)
	}
}
