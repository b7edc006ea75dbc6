package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ideapardaz/application/ports"
	"ideapardaz/infrastructure/config"
	"ideapardaz/infrastructure/messaging/eventbridge"
	"ideapardaz/infrastructure/messaging/logbus"
	"ideapardaz/infrastructure/persistence/resilient"
	"ideapardaz/pkg/auth"

	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeContainerWithFileBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendFile
	cfg.DataDir = t.TempDir()
	cfg.EnableMetrics = true
	cfg.LogLevel = "error"

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, container.Metrics)
	assert.Nil(t, container.Tracer)

	store, err := container.Sessions.Store(context.Background(), "u1")
	require.NoError(t, err)
	_, err = store.AddVibe(context.Background(), "Work")
	require.NoError(t, err)

	handler := container.Router.Setup()
	for _, path := range []string{"/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAdapterFactoryIsGuarded(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend = backend
			cfg.DataDir = t.TempDir()

			factory, cleanup, err := ProvideAdapterFactory(context.Background(), cfg, nil, nil, zap.NewNop())
			require.NoError(t, err)
			defer cleanup()
			assert.IsType(t, &resilient.Factory{}, factory)

			require.NoError(t, ProvideReadinessCheck(factory)(context.Background()))
		})
	}

	cfg := config.Default()
	cfg.Backend = "tape"
	_, _, err := ProvideAdapterFactory(context.Background(), cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &logbus.Publisher{}, ProvideEventPublisher(cfg, nil, nil, zap.NewNop()))

	cfg.EventBusName = "ideas"
	publisher := ProvideEventPublisher(cfg, &awseventbridge.Client{}, nil, zap.NewNop())
	assert.IsType(t, &eventbridge.Publisher{}, publisher)
}

func TestProvideVerifier(t *testing.T) {
	cfg := config.Default()
	verifier, err := ProvideVerifier(cfg)
	require.NoError(t, err)
	assert.Nil(t, verifier)

	cfg.AuthMode = config.AuthJWT
	cfg.JWTSecret = "secret"
	verifier, err = ProvideVerifier(cfg)
	require.NoError(t, err)
	assert.IsType(t, &auth.JWTVerifier{}, verifier)
}

func TestProvideStoreMetricsWithoutCollector(t *testing.T) {
	assert.Equal(t, ports.NoopMetrics{}, ProvideStoreMetrics(nil))
	assert.NotNil(t, ProvideStoreMetrics(ProvideMetrics(&config.Config{EnableMetrics: true})))
}

func TestProvideLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, err := ProvideLogger(cfg)
	assert.Error(t, err)
}
