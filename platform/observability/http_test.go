package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware_PutsLoggerAndLogsRoute(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	var fromCtx *zap.Logger
	router := chi.NewRouter()
	router.Use(HTTPMiddleware("test", logger))
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		fromCtx = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, fromCtx)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/items/{id}", fields["route"])
	require.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestL_FallsBackToBase(t *testing.T) {
	base := zap.NewNop()
	require.Same(t, base, L(context.Background(), base))
}
