package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/hydro/internal/metrics"
)

// RouterOptions wires the optional pieces of the router.
type RouterOptions struct {
	// Metrics, when set, instruments every request and is served at MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, auth *Authenticator, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	if opts.Metrics != nil {
		r.Use(MetricsMiddleware(opts.Metrics))
	}
	r.Use(RecoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (bearer token required)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Route("/systems", func(r chi.Router) {
				r.Get("/", h.ListSystems)
				r.Post("/", h.CreateSystem)
				r.Get("/{id}", h.GetSystem)
				r.Put("/{id}", h.ReplaceSystem)
				r.Patch("/{id}", h.UpdateSystem)
				r.Delete("/{id}", h.DeleteSystem)
				r.Get("/{id}/details", h.SystemDetails)
			})

			r.Route("/measurements", func(r chi.Router) {
				r.Get("/", h.ListMeasurements)
				r.Post("/", h.CreateMeasurement)
				r.Get("/{id}", h.GetMeasurement)
				r.Put("/{id}", h.ReplaceMeasurement)
				r.Patch("/{id}", h.UpdateMeasurement)
				r.Delete("/{id}", h.DeleteMeasurement)
			})
		})
	})

	return r
}
