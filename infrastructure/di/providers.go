package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ideapardaz/application/ports"
	"ideapardaz/application/services"
	"ideapardaz/infrastructure/config"
	"ideapardaz/infrastructure/messaging/eventbridge"
	"ideapardaz/infrastructure/messaging/logbus"
	"ideapardaz/infrastructure/persistence/dynamodb"
	"ideapardaz/infrastructure/persistence/file"
	"ideapardaz/infrastructure/persistence/memory"
	"ideapardaz/infrastructure/persistence/resilient"
	"ideapardaz/infrastructure/persistence/sqlite"
	"ideapardaz/interfaces/http/rest"
	"ideapardaz/pkg/auth"
	"ideapardaz/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// SQLiteFileName is the database file created under the data directory
const SQLiteFileName = "ideapardaz.db"

// readinessUser is the partition probed by the readiness check
const readinessUser = "__readiness__"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are off
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("ideas")
}

// ProvideStoreMetrics adapts the collector for the idea store
func ProvideStoreMetrics(collector *observability.Collector) ports.StoreMetrics {
	if collector == nil {
		return ports.NoopMetrics{}
	}
	return collector
}

// ProvideTracerProvider installs the global tracer when tracing is enabled
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "ideapardaz",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideAdapterFactory opens the configured backend and guards it with
// retries and a circuit breaker
func ProvideAdapterFactory(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.AdapterFactory, func(), error) {
	var (
		next    ports.AdapterFactory
		cleanup = func() {}
	)
	opts := resilient.Options{
		Backend:     cfg.Backend,
		MaxAttempts: cfg.RetryAttempts,
		Breaker: resilient.BreakerConfig{
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          cfg.Breaker.OpenTimeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinRequests:      cfg.Breaker.MinRequests,
		},
		Metrics: metrics,
		Logger:  logger,
	}

	switch cfg.Backend {
	case config.BackendMemory:
		next = memory.NewBackend(logger)
	case config.BackendFile:
		next = file.NewFactory(cfg.DataDir, logger)
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, filepath.Join(cfg.DataDir, SQLiteFileName), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		next = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
	case config.BackendDynamoDB:
		next = dynamodb.NewFactory(client, dynamodb.Options{
			TableName:    cfg.TableName,
			PollInterval: cfg.PollInterval,
		}, logger)
		opts.Retryable = dynamodb.Retryable
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	logger.Info("Persistence backend configured", zap.String("backend", cfg.Backend))
	return resilient.NewFactory(next, opts), cleanup, nil
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured and
// to the log otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, metrics *observability.Collector, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName != "" {
		return eventbridge.NewPublisher(client, cfg.EventBusName, metrics, logger)
	}
	return logbus.NewPublisher(logger)
}

// ProvideVerifier creates the token verifier for the configured auth mode.
// AuthNone yields nil, which trusts the X-User-ID header.
func ProvideVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthJWT:
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthSupabase:
		return auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseKey)
	default:
		return nil, nil
	}
}

// ProvideSessions creates the per-user store registry
func ProvideSessions(
	factory ports.AdapterFactory,
	cfg *config.Config,
	publisher ports.EventPublisher,
	metrics ports.StoreMetrics,
	logger *zap.Logger,
) (*services.Sessions, func()) {
	sessions := services.NewSessions(factory, services.StoreOptions{
		PersistTimeout: cfg.PersistTimeout,
		Domain:         cfg.DomainRules(),
		Publisher:      publisher,
		Metrics:        metrics,
		Logger:         logger,
	})
	cleanup := func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("Failed to close stores", zap.Error(err))
		}
	}
	return sessions, cleanup
}

// ProvideReadinessCheck probes the backend with a load of a reserved partition
func ProvideReadinessCheck(factory ports.AdapterFactory) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		adapter, err := factory.ForUser(ctx, readinessUser)
		if err != nil {
			return err
		}
		defer adapter.Close()
		_, err = adapter.Load(ctx)
		return err
	}
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	sessions *services.Sessions,
	verifier auth.Verifier,
	metrics *observability.Collector,
	tracer *observability.TracerProvider,
	ready rest.ReadinessCheck,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(sessions, rest.Options{
		Verifier:    verifier,
		Metrics:     metrics,
		Tracing:     tracer != nil,
		CORSOrigins: cfg.CORSOrigins,
		Ready:       ready,
	}, logger)
}
