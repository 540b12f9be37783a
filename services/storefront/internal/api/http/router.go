package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/webpay-bridge/platform/health/http"
	platformobservability "github.com/shestoi/webpay-bridge/platform/observability"
)

// NewRouter создаёт HTTP роутер витрины
func NewRouter(handler *Handler, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("storefront", logger))
	}
	router.Use(middleware.Recoverer)

	router.Get("/", handler.GetForm)
	router.Get("/transbank-pay", handler.GetForm)
	router.Post("/transbank-pay", handler.PostPay)
	router.Get("/commit-pay", handler.CommitPay)
	router.Post("/commit-pay", handler.CommitPay)

	router.Get("/health", platformhealth.Handler(nil))

	return router
}
