package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"carviz/internal/app"
	"carviz/internal/infrastructure"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				if port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port: %d", port)
				}
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = root.logLevel
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error("Failed to initialize application", slog.String("error", err.Error()))
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides CARVIZ_SERVER_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides CARVIZ_SERVER_PORT)")
	return cmd
}
