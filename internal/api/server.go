// Package api exposes the forecasting service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/sartorproj/goforecast/internal/app"
	"github.com/sartorproj/goforecast/internal/config"
	"github.com/sartorproj/goforecast/pkg/logger"
	"github.com/sartorproj/goforecast/pkg/metrics"
)

// NewRouter creates the chi router with all middleware and routes. A nil
// metrics manager disables the /metrics endpoint.
func NewRouter(svc *app.Service, cfg *config.Config, log logger.Logger, m *metrics.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(InstrumentMiddleware(log, m))
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Encoding", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Process-Time", "X-Request-Id"},
	})
	r.Use(c.Handler)

	if cfg.RateLimit > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}

	h := &Handler{svc: svc, log: log, maxBody: cfg.MaxBodyBytes}

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/store", h.HealthCheckStore)
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/models", func(r chi.Router) {
			r.Post("/", h.CreateModel)
			r.Get("/", h.ListModels)
			r.Get("/{id}", h.GetModel)
			r.Delete("/{id}", h.DeleteModel)
			r.Post("/{id}/predict", h.Predict)
		})
		r.Post("/crossval", h.CrossValidate)
		r.Post("/tune", h.Tune)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})
	return r
}
