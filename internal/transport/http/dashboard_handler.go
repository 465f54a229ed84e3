package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "carviz/internal/errors"
	"carviz/internal/services"
)

// Source labels HTTP interactions in metrics and traces.
const Source = "http"

// DashboardHandler serves the filter, view and export endpoints.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler. validator may be nil.
func NewDashboardHandler(service DashboardServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, mounted under /api/dashboard.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/options", h.GetOptions)
	r.With(render.SetContentType(render.ContentTypeJSON)).Post("/view", h.PostView)
	r.Get("/export.csv", h.exportAs(services.FormatCSV))
	r.Get("/export.xlsx", h.exportAs(services.FormatXLSX))

	return r
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts, err := h.service.Options(r.Context(), spec)
	if err != nil {
		h.fail(w, r, "failed to compute options", err)
		return
	}

	render.JSON(w, r, opts)
}

// PostView handles POST /api/dashboard/view
func (h *DashboardHandler) PostView(w http.ResponseWriter, r *http.Request) {
	var req services.ViewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	req.Chart = req.Chart.WithDefaults()

	if h.validator != nil {
		if err := h.validator.ValidateStruct(req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	view, err := h.service.View(r.Context(), Source, req)
	if err != nil {
		h.fail(w, r, "failed to evaluate view", err)
		return
	}

	render.JSON(w, r, view)
}

func (h *DashboardHandler) exportAs(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, err := ParseFilter(r.URL.Query())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		export, err := h.service.Export(r.Context(), spec, format)
		if err != nil {
			h.fail(w, r, "failed to export view", err)
			return
		}

		h.logger.InfoContext(r.Context(), "serving export",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("format", format),
			slog.Int("rows", export.Rows))

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(export.Data)
	}
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	level := slog.LevelError
	if services.IsValidationError(err) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	h.errorHandler.HandleError(w, r, err)
}
