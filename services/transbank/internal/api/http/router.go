package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/webpay-bridge/platform/health/http"
	platformobservability "github.com/shestoi/webpay-bridge/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер transbank-api
// readiness проверяет документное хранилище; при ошибке /health вернёт 503.
// allowedOrigins применяются только к /api/v1/transbank/*.
func NewRouter(handler *Handler, readiness platformhealth.Readiness, logger *zap.Logger, allowedOrigins []string) chi.Router {
	router := chi.NewRouter()

	// Observability: trace context + span на каждый запрос, logger с trace_id в контексте
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("transbank", logger))
	}
	router.Use(middleware.Recoverer)

	router.Route("/api/v1/transbank", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}))

		r.Post("/transaction/create", handler.PostCreate)
		r.Put("/transaction/commit/{token}", func(w http.ResponseWriter, r *http.Request) {
			handler.PutCommit(w, r, chi.URLParam(r, "token"))
		})
		r.Post("/transaction/reverse-or-cancel/{token}", func(w http.ResponseWriter, r *http.Request) {
			handler.PostReverseOrCancel(w, r, chi.URLParam(r, "token"))
		})
		r.Get("/transaction/status/{token}", func(w http.ResponseWriter, r *http.Request) {
			handler.GetStatus(w, r, chi.URLParam(r, "token"))
		})
	})

	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
