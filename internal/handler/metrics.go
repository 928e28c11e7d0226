package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes metrics in Prometheus exposition format.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler creates a new MetricsHandler over gatherer.
// A nil gatherer yields 503 responses.
func NewMetricsHandler(gatherer prometheus.Gatherer, logger *slog.Logger) *MetricsHandler {
	if gatherer == nil {
		return &MetricsHandler{}
	}
	opts := promhttp.HandlerOpts{}
	if logger != nil {
		opts.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelError)
	}
	return &MetricsHandler{handler: promhttp.HandlerFor(gatherer, opts)}
}

// Metrics serves GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.handler == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.handler.ServeHTTP(w, r)
}
