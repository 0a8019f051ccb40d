// Package http serves the local debug endpoints: health, metrics and the
// network request log.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/salesonboard/internal/netlog"
	"github.com/utafrali/salesonboard/pkg/health"
	"github.com/utafrali/salesonboard/pkg/middleware"
)

// NewRouter creates the debug router.
func NewRouter(netLog *netlog.Log, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, middleware.LoopbackCIDRs, logger)

	h := NewNetworkHandler(netLog, logger)
	r.Route("/debug/network", func(r chi.Router) {
		r.Get("/", h.List)
		r.Delete("/", h.Clear)
	})

	return r
}
