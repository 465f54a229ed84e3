// Package config provides configuration management for the dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A .env file in the working directory
//  3. A YAML file (CARVIZ_CONFIG_FILE, carviz.yaml or configs/carviz.yaml)
//  4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CARVIZ_<SECTION>_<FIELD>:
//
//	CARVIZ_DATASET_PATH=data/CARS.csv
//	CARVIZ_SERVER_PORT=8501
//	CARVIZ_LOGGING_LEVEL=debug
//	CARVIZ_TELEMETRY_ENABLE_TRACING=true
//
// # Paths
//
// Relative locations are resolved against CARVIZ_PATHS_BASE_DIR, or the
// working directory when unset:
//
//	paths, err := cfg.GetPaths()
//	exportPath := paths.GetExportPath("filtered_cars.csv")
package config
