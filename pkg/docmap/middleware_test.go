package docmap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareInjectsConnection(t *testing.T) {
	conn, err := New("mongodb://localhost:27017", nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(Middleware(conn))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		got, ok := FromContext(req.Context())
		assert.True(t, ok)
		assert.Same(t, conn, got)
		assert.NotEmpty(t, RequestID(req.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMiddlewarePreservesIncomingRequestID(t *testing.T) {
	conn, err := New("mongodb://localhost:27017", nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(Middleware(conn))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "upstream-id", RequestID(req.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := FromContext(req.Context())
	assert.False(t, ok)
	assert.Empty(t, RequestID(req.Context()))
}
