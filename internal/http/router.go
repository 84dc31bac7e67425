package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workspace-analytics/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Analytics   *AnalyticsHandler
	Health      *HealthHandler
	CORSOrigins []string
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := logging.OrDefault(cfg.Logger)
	responder := newResponder(logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		methodNotAllowed(w, http.MethodGet)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Health != nil {
			r.Get("/health", cfg.Health.Check)
		}

		if cfg.Analytics != nil {
			r.Get("/bounds", cfg.Analytics.Bounds)
			r.Route("/locations", func(r chi.Router) {
				r.Get("/countries", cfg.Analytics.Countries)
				r.Get("/cities", cfg.Analytics.Cities)
				r.Get("/buildings", cfg.Analytics.Buildings)
			})
			r.Get("/summary", cfg.Analytics.Summary)
			r.Get("/occupancy", cfg.Analytics.Occupancy)
			r.Get("/occupancy/day-of-week", cfg.Analytics.DayOfWeek)
			r.Get("/space-types", cfg.Analytics.SpaceTypes)
		}
	})

	return router
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
