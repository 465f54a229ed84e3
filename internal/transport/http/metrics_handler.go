package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "carviz/internal/errors"
)

// MetricsHandler exposes runtime statistics and the Prometheus scrape
// endpoint.
type MetricsHandler struct {
	service      HealthServiceInterface
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a metrics handler. prometheus is nil when metric
// export is disabled.
func NewMetricsHandler(service HealthServiceInterface, prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		service:      service,
		prometheus:   prometheus,
		errorHandler: errorHandler,
	}
}

// Stats handles GET /api/stats
func (h *MetricsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.SystemStats(r.Context()))
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("metrics endpoint"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
