package rest

import (
	"context"
	"net/http"
	"time"

	"ideapardaz/interfaces/http/rest/handlers"
	"ideapardaz/interfaces/http/rest/middleware"
	"ideapardaz/pkg/auth"
	"ideapardaz/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether the backend can serve requests
type ReadinessCheck func(ctx context.Context) error

// Options configures the router
type Options struct {
	// Verifier authenticates API calls; nil trusts X-User-ID
	Verifier auth.Verifier
	// Metrics enables /metrics and request metrics when set
	Metrics     *observability.Collector
	Tracing     bool
	CORSOrigins []string
	Ready       ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	stores handlers.StoreProvider
	opts   Options
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(stores handlers.StoreProvider, opts Options, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Router{stores: stores, opts: opts, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Tracing {
		router.Use(middleware.Tracing())
	}
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	ideaHandler := handlers.NewIdeaHandler(rt.stores, rt.logger)
	vibeHandler := handlers.NewVibeHandler(rt.stores, rt.logger)
	snapshotHandler := handlers.NewSnapshotHandler(rt.stores, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.opts.Verifier, rt.logger))

		r.Route("/vibes", func(r chi.Router) {
			r.Get("/", vibeHandler.ListVibes)
			r.Post("/", vibeHandler.CreateVibe)
			r.Delete("/{vibeID}", vibeHandler.DeleteVibe)
		})

		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", ideaHandler.ListIdeas)
			r.Post("/", ideaHandler.CreateIdea)
			r.Get("/{ideaID}", ideaHandler.GetIdea)
			r.Delete("/{ideaID}", ideaHandler.DeleteIdea)
			r.Post("/{ideaID}/archive", ideaHandler.ArchiveIdea)
			r.Post("/{ideaID}/unarchive", ideaHandler.UnarchiveIdea)
			r.Post("/{ideaID}/pin", ideaHandler.TogglePin)
			r.Post("/{ideaID}/links/{otherID}", ideaHandler.LinkIdeas)
			r.Delete("/{ideaID}/links/{otherID}", ideaHandler.UnlinkIdeas)
		})

		r.Get("/export", snapshotHandler.Export)
		r.Post("/import", snapshotHandler.Import)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
