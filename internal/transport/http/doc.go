// Package http implements the dashboard's HTTP handlers. Handlers stay thin:
// they parse the request, call a service and render the result with
// go-chi/render. Failures go through errors.ErrorHandler and reach the client
// as RFC 7807 problem documents.
//
// Routes served by this package:
//
//	GET  /                              dashboard page
//	GET  /api/dashboard/options         cascaded choices for a selection
//	POST /api/dashboard/view            rows, summary and figure
//	GET  /api/dashboard/export.csv      filtered rows as CSV
//	GET  /api/dashboard/export.xlsx     filtered rows as an Excel workbook
//	GET  /api/health[/ready|/live|/detailed]
//	GET  /api/version, /api/stats, /metrics
//
// The options and export endpoints take the selection as query parameters:
// type, make, repeated model, msrp_min, msrp_max, invoice_min, invoice_max.
package http
