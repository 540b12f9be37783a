package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	platformlogging "github.com/shestoi/webpay-bridge/platform/logging"
	platformobservability "github.com/shestoi/webpay-bridge/platform/observability"
	platformshutdown "github.com/shestoi/webpay-bridge/platform/shutdown"
	httpapi "github.com/shestoi/webpay-bridge/services/transbank/internal/api/http"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/client/transbank"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/config"
	eventkafka "github.com/shestoi/webpay-bridge/services/transbank/internal/event/kafka"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
	firestorerepo "github.com/shestoi/webpay-bridge/services/transbank/internal/repository/firestore"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository/memory"
	mongorepo "github.com/shestoi/webpay-bridge/services/transbank/internal/repository/mongo"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

// App содержит все зависимости для запуска и корректного shutdown Transbank Service
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Transbank Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "transbank",
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	// OpenTelemetry: traces + metrics (noop если OTEL_ENABLED=false)
	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           "transbank",
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}

	buildLogger := logger.With(zap.String("op", op))
	buildLogger.Info("Building Transbank service",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("docstore", string(cfg.DocStoreDriver)),
	)

	// Создаём shutdown manager; функции выполняются в обратном порядке регистрации
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("otel", otelShutdown)

	// Документное хранилище для бухгалтерии
	repo, err := buildRepository(cfg, buildLogger, shutdownMgr)
	if err != nil {
		shutdownMgr.Shutdown()
		return nil, err
	}

	// События жизненного цикла (Kafka опциональна)
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := eventkafka.NewLifecyclePublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		shutdownMgr.Add("kafka_writer", platformshutdown.Close(kafkaPublisher))
		publisher = kafkaPublisher
		buildLogger.Info("Kafka lifecycle events enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		publisher = eventkafka.NewNoOpPublisher(logger)
	}

	// Клиент шлюза: исходящие вызовы с трассировкой и таймаутом
	gatewayClient := transbank.NewClient(
		logger,
		platformobservability.NewHTTPClient(cfg.GatewayTimeout),
		cfg.TransbankBaseURL,
		transbank.Credentials{
			APIKeyID:     cfg.TransbankAPIKeyID,
			APIKeySecret: cfg.TransbankAPIKeySecret,
		},
		transbank.RetryPolicy{
			MaxAttempts:     cfg.GatewayRetryMaxAttempts,
			InitialInterval: cfg.GatewayRetryInitialInterval,
		},
	)

	// Метрики побочных записей; при отключённом OTEL - без recorder
	var recorder service.OutcomeRecorder
	if cfg.OTelEnabled {
		recorder = newBookkeepingMetricsRecorder()
	}

	books := service.NewBookkeeper(logger, repo, cfg.BookkeepingTimeout, recorder)
	transactionService := service.NewTransactionService(logger, gatewayClient, books, publisher)
	// Бухгалтерия идёт в фоне после ответа; дожидаемся её до закрытия хранилища и Kafka
	shutdownMgr.Add("bookkeeping", transactionService.Drain)

	handler := httpapi.NewHandler(logger, transactionService)
	router := httpapi.NewRouter(handler, repo.Ping, logger, cfg.CORSAllowedOrigins)

	// Ответ ждёт только шлюз: до GatewayTimeout на каждую попытку status
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GatewayTimeout*time.Duration(max(cfg.GatewayRetryMaxAttempts, 1)) + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// buildRepository выбирает реализацию хранилища по DOCSTORE_DRIVER и регистрирует её закрытие
func buildRepository(cfg config.Config, logger *zap.Logger, shutdownMgr *platformshutdown.Manager) (repository.BookkeepingRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.DocStoreDriver {
	case config.DocStoreFirestore:
		logger.Info("Connecting to Firestore", zap.String("project_id", cfg.FirestoreProjectID))
		client, err := firestorerepo.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		shutdownMgr.Add("firestore", platformshutdown.Close(client))
		return firestorerepo.NewRepository(client), nil

	case config.DocStoreMongo:
		logger.Info("Connecting to MongoDB")
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("MongoDB connection established")
		shutdownMgr.Add("mongodb", platformshutdown.DisconnectMongo(client))
		return mongorepo.NewRepository(client, cfg.MongoDBName), nil

	case config.DocStoreMemory:
		logger.Warn("Using in-memory document store, bookkeeping is not persisted")
		return memory.NewMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("unsupported DOCSTORE_DRIVER: %s", cfg.DocStoreDriver)
	}
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting Transbank service", zap.String("addr", a.httpServer.Addr))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Ожидаем сигнал и выполняем shutdown
	a.shutdownMgr.Wait()

	a.wg.Wait()
	a.logger.Info("Transbank service stopped")
	return nil
}

// bookkeepingMetricsRecorder считает побочные записи в bookkeeping_writes_total{write,outcome}
type bookkeepingMetricsRecorder struct {
	counter metric.Int64Counter
}

func newBookkeepingMetricsRecorder() *bookkeepingMetricsRecorder {
	meter := otel.Meter("transbank")
	counter, _ := meter.Int64Counter("bookkeeping_writes_total", metric.WithDescription("Best-effort bookkeeping writes by outcome"))
	return &bookkeepingMetricsRecorder{counter: counter}
}

func (r *bookkeepingMetricsRecorder) RecordOutcome(ctx context.Context, outcome service.Outcome) {
	if r.counter == nil {
		return
	}
	r.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("write", outcome.Name),
		attribute.String("outcome", outcome.Result()),
	))
}
