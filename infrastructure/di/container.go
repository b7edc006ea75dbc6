package di

import (
	"ideapardaz/application/services"
	"ideapardaz/infrastructure/config"
	"ideapardaz/interfaces/http/rest"
	"ideapardaz/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *services.Sessions
	Router   *rest.Router
	Metrics  *observability.Collector
	Tracer   *observability.TracerProvider
}
