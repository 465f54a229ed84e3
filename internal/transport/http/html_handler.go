package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"carviz/internal/config"
	"carviz/internal/services"
	"carviz/pkg/contracts/domain"
)

// PlotlyURL is the charting library the dashboard page loads.
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// PageData feeds the dashboard template.
type PageData struct {
	Title        string
	AppName      string
	Version      string
	PlotlyURL    string
	ChartTypes   []services.ChartOption
	PriceChoices []domain.PriceChoice
	Defaults     domain.ChartConfig
}

// DefaultPageData describes the stock dashboard page.
func DefaultPageData() PageData {
	types := make([]services.ChartOption, 0, len(domain.ChartTypes))
	for _, t := range domain.ChartTypes {
		types = append(types, services.ChartOption{Value: t, Label: t.Label()})
	}
	return PageData{
		Title:        "Car Price Dashboard",
		AppName:      config.AppName,
		Version:      config.AppVersion,
		PlotlyURL:    PlotlyURL,
		ChartTypes:   types,
		PriceChoices: domain.PriceChoices,
		Defaults:     domain.DefaultChartConfig(),
	}
}

// ServeDashboard serves the dashboard page at GET /.
func ServeDashboard(data PageData, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := dashboardTemplate.Execute(&buf, data); err != nil {
			logger.ErrorContext(r.Context(), "failed to render dashboard", slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}
