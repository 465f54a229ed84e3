package config

import "time"

// Application constants
const (
	AppName    = "Car Price Visualizer"
	AppVersion = "1.0.0"

	DefaultDatasetPath = "data/CARS.csv"

	// Download contract of the dashboard export button.
	ExportFileName    = "filtered_cars.csv"
	ExportContentType = "text/csv"

	XLSXExportFileName    = "filtered_cars.xlsx"
	XLSXExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// API Endpoints
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"

	DefaultRequestBodyLimit = 64 * 1024
	CatalogLoadTimeout      = 30 * time.Second
)
