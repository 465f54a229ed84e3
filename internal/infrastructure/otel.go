package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"carviz/internal/config"
)

const (
	ServiceName = "carviz"
	MeterName   = "carviz"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to cfg. Disabled
// signals fall back to no-op implementations so callers never nil-check.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.EnableTracing {
		if err := initializeTracing(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)
	return nil
}

// initializeMetrics wires the OTel Prometheus exporter to a private registry
// so repeated initialization (tests, CLI) never collides on the default one.
func initializeMetrics(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DashboardMetrics holds the application instruments.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	InteractionsTotal   metric.Int64Counter
	InteractionDuration metric.Float64Histogram
	RowsReturned        metric.Int64Histogram
	EmptySelections     metric.Int64Counter

	CatalogLoads        metric.Int64Counter
	CatalogLoadDuration metric.Float64Histogram

	ExportsTotal      metric.Int64Counter
	WebSocketSessions metric.Int64UpDownCounter
}

// CreateDashboardMetrics registers the application instruments on meter.
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m   DashboardMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if m.InteractionsTotal, err = meter.Int64Counter("dashboard_interactions_total",
		metric.WithDescription("Filter and chart evaluations")); err != nil {
		return nil, err
	}
	if m.InteractionDuration, err = meter.Float64Histogram("dashboard_interaction_duration_seconds",
		metric.WithDescription("Time to evaluate one interaction"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RowsReturned, err = meter.Int64Histogram("dashboard_rows_returned",
		metric.WithDescription("Rows in the filtered view")); err != nil {
		return nil, err
	}
	if m.EmptySelections, err = meter.Int64Counter("dashboard_empty_selections_total",
		metric.WithDescription("Interactions whose filters matched no rows")); err != nil {
		return nil, err
	}
	if m.CatalogLoads, err = meter.Int64Counter("catalog_loads_total",
		metric.WithDescription("Reads of the dataset file")); err != nil {
		return nil, err
	}
	if m.CatalogLoadDuration, err = meter.Float64Histogram("catalog_load_duration_seconds",
		metric.WithDescription("Dataset read and normalization time"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.ExportsTotal, err = meter.Int64Counter("dashboard_exports_total",
		metric.WithDescription("Filtered view downloads")); err != nil {
		return nil, err
	}
	if m.WebSocketSessions, err = meter.Int64UpDownCounter("websocket_sessions_active",
		metric.WithDescription("Open dashboard sessions")); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordInteraction records one evaluation of the pipeline.
func RecordInteraction(ctx context.Context, m *DashboardMetrics, source, chartType string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("chart.type", chartType),
	)
	m.InteractionsTotal.Add(ctx, 1, attrs)
	m.InteractionDuration.Record(ctx, duration.Seconds(), attrs)
	m.RowsReturned.Record(ctx, int64(rows), attrs)
	if rows == 0 {
		m.EmptySelections.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordCatalogLoad records one read of the dataset file.
func RecordCatalogLoad(ctx context.Context, m *DashboardMetrics, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := attribute.String("status", "success")
	if err != nil {
		status = attribute.String("status", "failure")
	}
	m.CatalogLoads.Add(ctx, 1, metric.WithAttributes(status))
	m.CatalogLoadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
}

// RecordExport records a download of the filtered view.
func RecordExport(ctx context.Context, m *DashboardMetrics, format string) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
