//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ideapardaz/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideMetrics,
	ProvideStoreMetrics,
	ProvideTracerProvider,
	ProvideAdapterFactory,
	ProvideEventPublisher,
	ProvideVerifier,
	ProvideSessions,
	ProvideReadinessCheck,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// closes stores, the backend and the tracer in reverse order.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
