// Command web starts the car price dashboard with configuration taken from
// the environment and the optional carviz.yaml file.
package main

import (
	"log/slog"
	"os"

	"carviz/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
