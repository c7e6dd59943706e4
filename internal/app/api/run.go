package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	workorderserver "github.com/Apurer/go-gin-workorders/go"

	webhookclient "github.com/Apurer/go-gin-workorders/internal/clients/http/webhook"
	wowebhook "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/external/webhook"
	womemory "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/memory"
	woobs "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/observability"
	wodynamo "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/persistence/dynamodb"
	wopostgres "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/persistence/postgres"
	woworkflows "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/workflows"
	woapp "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application"
	woports "github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	platformdynamo "github.com/Apurer/go-gin-workorders/internal/platform/dynamo"
	platformobservability "github.com/Apurer/go-gin-workorders/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-workorders/internal/platform/postgres"
)

const serviceName = "workorders-api"

// Run boots the work order HTTP API with observability, the configured store, and
// the transition publisher wired. It returns once ctx is cancelled and the server drained.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo, err := BuildRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupRepo()

	var publisher woports.TransitionPublisher = woworkflows.NewInlinePublisher(logger, woworkflows.WithNotifier(BuildNotifier(cfg, logger)))
	if temporalClient, err := ConnectTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, publishing transitions inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		publisher = woworkflows.NewTemporalPublisher(temporalClient, woworkflows.WithStartLogger(logger))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	coreService := woapp.NewService(
		repo,
		woapp.WithPublisher(publisher),
		woapp.WithLogger(logger),
		woapp.WithTaxRate(cfg.TaxRate),
	)
	service := woobs.New(
		coreService,
		woobs.WithLogger(logger),
		woobs.WithTracer(instruments.Tracer("internal.workorders.application")),
		woobs.WithMeter(instruments.Meter("internal.workorders.application")),
	)

	handlers := workorderserver.ApiHandleFunctions{
		WorkOrderAPI: workorderserver.NewWorkOrderAPI(service),
	}
	router := BuildRouter(handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("work order API listening", slog.String("addr", server.Addr), slog.String("store", cfg.StoreBackend))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("work order API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("work order API shutting down")
	return server.Shutdown(drainCtx)
}

// BuildRouter attaches tracing middleware before registering the work order
// routes; gin snapshots the middleware chain per route at registration time.
func BuildRouter(handlers workorderserver.ApiHandleFunctions, opts ...otelgin.Option) *gin.Engine {
	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName, opts...))
	return workorderserver.NewRouterWithGinEngine(engine, handlers)
}

// BuildRepository returns the repository selected by cfg.StoreBackend plus a cleanup function.
func BuildRepository(ctx context.Context, cfg Config, logger *slog.Logger) (woports.Repository, func(), error) {
	switch cfg.StoreBackend {
	case BackendPostgres:
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN, platformpostgres.PoolFromEnv())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("unwrap postgres connection: %w", err)
		}
		logger.Info("work order repository configured with postgres")
		return wopostgres.NewRepository(db), func() { _ = sqlDB.Close() }, nil
	case BackendDynamoDB:
		ddb, err := platformdynamo.Connect(ctx, platformdynamo.Settings{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect dynamodb: %w", err)
		}
		logger.Info("work order repository configured with dynamodb", slog.String("table", cfg.WorkOrdersTable))
		return wodynamo.NewRepository(ddb, cfg.WorkOrdersTable), func() {}, nil
	default:
		logger.Warn("using in-memory work order repository; state is lost on restart")
		return womemory.NewRepository(), func() {}, nil
	}
}

// BuildNotifier returns the webhook notifier, or nil when NOTIFY_WEBHOOK_URL is unset.
func BuildNotifier(cfg Config, logger *slog.Logger) woports.TransitionNotifier {
	if cfg.NotifyWebhookURL == "" {
		return nil
	}
	client, err := webhookclient.NewClient(cfg.NotifyWebhookURL, nil)
	if err != nil {
		logger.Warn("notification webhook disabled", slog.String("error", err.Error()))
		return nil
	}
	return wowebhook.NewNotifier(client)
}

// ConnectTemporal dials Temporal with tracing and structured logging configured.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(EffectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// EffectiveLogger falls back to a text logger when observability is not initialised.
func EffectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
