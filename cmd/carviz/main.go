// Command carviz runs the car price dashboard and applies its filter pipeline
// from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"carviz/internal/catalog"
	"carviz/internal/config"
	"carviz/internal/infrastructure"
	"carviz/internal/services"
)

type rootOptions struct {
	configFile string
	dataset    string
	logLevel   string
}

// session is what every subcommand needs: the resolved configuration, a
// logger on stderr and the catalog loader.
type session struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	loader  *catalog.Loader
	service *services.DashboardService
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "carviz",
		Short:        config.AppName,
		Long:         "Filter, summarize and chart the car price catalog, offline or through the web dashboard.",
		Version:      config.AppVersion,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (default: carviz.yaml or configs/carviz.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.dataset, "dataset", "", "CSV dataset path (overrides CARVIZ_DATASET_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for messages on stderr")

	cmd.AddCommand(
		newFilterCmd(opts),
		newOptionsCmd(opts),
		newCheckCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// loadConfig applies the command line overrides on top of the usual
// configuration sources.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.dataset != "" {
		cfg.Dataset.Path = o.dataset
	}
	return cfg, nil
}

func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, err
	}

	logger := infrastructure.NewLogger(cmd.ErrOrStderr(), o.logLevel)
	loader := catalog.NewLoader(paths.DatasetFile, logger)

	return &session{
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		loader:  loader,
		service: services.NewDashboardService(loader, nil, logger),
	}, nil
}

// load reads the dataset up front so a broken file fails the command before
// any output is written.
func (s *session) load(ctx context.Context) (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, config.CatalogLoadTimeout)
	defer cancel()

	cat, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", s.paths.DatasetFile, err)
	}
	return cat, nil
}
