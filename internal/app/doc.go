// Package app wires the dashboard server together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, .env, CARVIZ_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Resolve paths and create the writable directories
//	4. Build the catalog loader, WebSocket hub and services
//	5. Set up the chi router and HTTP server
//
// Start reads the dataset before the listener opens. A *catalog.LoadError at
// that point is returned to the caller, which exits non-zero; the dashboard
// never serves without a catalog.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM and then drains the server, closes live
// sessions and flushes telemetry. The package never calls os.Exit.
package app
