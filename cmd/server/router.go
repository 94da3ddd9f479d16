package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cityscope/internal/district"
	"cityscope/internal/platform/metrics"
	"cityscope/internal/platform/tracing"
	"cityscope/pkg/platform/httputil"
	"cityscope/pkg/platform/middleware/metadata"
	"cityscope/pkg/platform/middleware/requestid"
	"cityscope/pkg/platform/middleware/requesttime"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

func newRouter(h *district.Handler, health healthChecker, m *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(metadata.AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware)
	r.Use(m.Middleware)

	r.Get("/health", handleHealth(health))
	r.Handle("/metrics", promhttp.Handler())
	h.Register(r)
	return r
}

func handleHealth(health healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health.Health(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
