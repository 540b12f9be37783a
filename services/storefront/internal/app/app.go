package app

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	platformlogging "github.com/shestoi/webpay-bridge/platform/logging"
	platformobservability "github.com/shestoi/webpay-bridge/platform/observability"
	platformshutdown "github.com/shestoi/webpay-bridge/platform/shutdown"
	httpapi "github.com/shestoi/webpay-bridge/services/storefront/internal/api/http"
	"github.com/shestoi/webpay-bridge/services/storefront/internal/client/transbankapi"
	"github.com/shestoi/webpay-bridge/services/storefront/internal/config"
)

// App содержит все зависимости Storefront
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Storefront
func Build(cfg config.Config) (*App, error) {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "storefront",
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           "storefront",
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Building Storefront",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("transbank_api_url", cfg.TransbankAPIURL),
	)

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("otel", otelShutdown)

	apiClient := transbankapi.NewClient(
		logger,
		platformobservability.NewHTTPClient(cfg.TransbankAPITimeout),
		cfg.TransbankAPIURL,
	)

	handler := httpapi.NewHandler(logger, apiClient)
	router := httpapi.NewRouter(handler, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TransbankAPITimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Run запускает HTTP сервер и блокируется до сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting Storefront", zap.String("addr", a.httpServer.Addr))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	a.shutdownMgr.Wait()

	a.wg.Wait()
	a.logger.Info("Storefront stopped")
	return nil
}
