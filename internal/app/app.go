package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"carviz/internal/catalog"
	"carviz/internal/config"
	apierrors "carviz/internal/errors"
	"carviz/internal/infrastructure"
	customMiddleware "carviz/internal/middleware"
	"carviz/internal/services"
	httpHandlers "carviz/internal/transport/http"
	"carviz/internal/validation"
	ws "carviz/internal/websocket"
)

// Application holds every long-lived component of the dashboard server.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics

	Loader        *catalog.Loader
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer
	ErrorHandler  *apierrors.ErrorHandler
	Validator     *customMiddleware.ValidationMiddleware
	FileValidator *validation.FileValidator

	Router *chi.Mux
	Server *http.Server

	catalogLoaded atomic.Bool
}

// ServiceContainer groups the services the handlers depend on.
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads the configuration from the environment and builds the
// application around it.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires the application from an already loaded configuration. The
// dataset is not read until Start or LoadCatalog.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	a.WebSocketHub = ws.NewHub(a.Metrics, a.Logger)
	a.Loader = catalog.NewLoader(a.Paths.DatasetFile, a.Logger, catalog.WithObserver(a.onCatalogLoad))

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, strings.EqualFold(a.Config.Logging.Level, "debug"))
	a.Validator = customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, config.DefaultRequestBodyLimit)
	a.FileValidator = validation.NewFileValidator(a.Logger)

	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(a.Loader, a.Metrics, a.Logger),
		Health:    services.NewHealthService(config.AppVersion, a.Loader, a.WebSocketHub, a.Paths, a.Logger),
	}

	a.Logger.Info("Services initialized",
		slog.String("dataset", a.Paths.DatasetFile))
	return nil
}

// onCatalogLoad records every dataset read and tells open sessions when a
// changed file replaced the catalog they were built from.
func (a *Application) onCatalogLoad(ctx context.Context, cat *catalog.Catalog, elapsed time.Duration, err error) {
	infrastructure.RecordCatalogLoad(ctx, a.Metrics, elapsed, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	if a.catalogLoaded.Swap(true) {
		a.WebSocketHub.NotifyCatalogReloaded(cat.Len(), cat.LoadedAt())
	}
}

// LoadCatalog reads the dataset. A failure here means the dashboard has
// nothing to show; callers treat it as fatal.
func (a *Application) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	loadCtx, cancel := context.WithTimeout(ctx, config.CatalogLoadTimeout)
	defer cancel()

	cat, err := a.Loader.Load(loadCtx)
	if err != nil {
		return nil, err
	}
	a.Logger.InfoContext(ctx, "Catalog loaded",
		slog.Int("rows", cat.Len()),
		slog.Int("columns", len(cat.Columns())))
	return cat, nil
}

// setupRouter builds the chi router. The WebSocket route only gets the
// middleware that leaves the ResponseWriter unwrapped, so the upgrade can
// hijack the connection.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := ws.NewHandler(
		a.WebSocketHub,
		a.Services.Dashboard,
		a.Validator,
		ws.SettingsFromConfig(a.Config.WebSocket),
		a.Config.Security.AllowedOrigins,
		a.Logger,
	)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Compress(5, "application/json", "text/html", "text/csv"))

		r.Get("/", httpHandlers.ServeDashboard(httpHandlers.DefaultPageData(), a.Logger))
		a.setupAPIRoutes(r)
	})

	metricsHandler := httpHandlers.NewMetricsHandler(a.Services.Health, a.OTelProviders.PrometheusHTTP, a.ErrorHandler)
	r.Get(config.MetricsEndpoint, metricsHandler.Prometheus)

	// Registered last so chi hands them down to every mounted sub-router.
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := httpHandlers.NewHealthHandler(a.Services.Health, a.Logger)
	metricsHandler := httpHandlers.NewMetricsHandler(a.Services.Health, a.OTelProviders.PrometheusHTTP, a.ErrorHandler)
	dashboardHandler := httpHandlers.NewDashboardHandler(a.Services.Dashboard, a.Validator, a.Logger, a.ErrorHandler)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
		r.Use(customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json"))
		r.Use(a.Validator.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/detailed", healthHandler.DetailedHealth)
		r.Get("/version", healthHandler.Version)
		r.Get("/stats", metricsHandler.Stats)

		r.Mount("/dashboard", dashboardHandler.Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start loads the catalog and begins serving. The dataset is read eagerly so
// a missing or malformed file stops startup instead of surfacing on the
// first request. cancel is called if the listener fails later.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if _, err := a.LoadCatalog(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Failed to load dataset",
			slog.String("path", a.Paths.DatasetFile),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", "http://"+a.Server.Addr))
	return nil
}

// Stop drains the HTTP server, closes live sessions and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and blocks until SIGINT, SIGTERM or a listener
// failure, then shuts down.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck reports problems that degrade but do not stop the
// dashboard, such as an unwritable exports directory.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	dirs := map[string]string{
		"exports": a.Paths.ExportsDir,
		"logs":    a.Paths.LogsDir,
	}
	for name, dir := range dirs {
		if err := a.FileValidator.ValidateOutputDirectory(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory: %v", name, err))
		}
	}

	if a.OTelProviders.PrometheusHTTP == nil {
		a.Logger.InfoContext(ctx, "Prometheus endpoint disabled",
			slog.String("endpoint", config.MetricsEndpoint))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
