// Package services holds the dashboard's business logic between the
// transports (HTTP, WebSocket, CLI) and the catalog.
//
// DashboardService turns a ViewRequest into a DashboardView: it reconciles
// the selection against the catalog, runs the filter cascade, computes the
// summary averages and builds the chart figure. An empty selection is not an
// error; the view carries a warning and no figure. HealthService reports
// liveness, readiness (the dataset loads) and version information.
//
// Services receive their dependencies through constructors and log with the
// injected *slog.Logger.
package services
