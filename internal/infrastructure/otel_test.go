package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"carviz/internal/config"
)

func metricsOnly() config.TelemetryConfig {
	cfg := config.Default().Telemetry
	cfg.EnableTracing = false
	cfg.EnableMetrics = true
	return cfg
}

func TestInitializeOTel_MetricsEndpoint(t *testing.T) {
	providers, err := InitializeOTel(metricsOnly(), NewLogger(io.Discard, "error"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateDashboardMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordInteraction(ctx, metrics, "http", "bar", 0, 3*time.Millisecond)
	RecordCatalogLoad(ctx, metrics, 10*time.Millisecond, nil)
	RecordExport(ctx, metrics, "csv")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "dashboard_interactions_total")
	assert.Contains(t, body, "dashboard_empty_selections_total")
	assert.Contains(t, body, "catalog_loads_total")
	assert.Contains(t, body, "dashboard_exports_total")
}

func TestInitializeOTel_RepeatedInitialization(t *testing.T) {
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(metricsOnly(), NewLogger(io.Discard, "error"))
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.TelemetryConfig{}
	providers, err := InitializeOTel(cfg, NewLogger(io.Discard, "error"))
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)

	metrics, err := CreateDashboardMetrics(providers.Meter)
	require.NoError(t, err)
	RecordInteraction(context.Background(), metrics, "ws", "box", 4, time.Millisecond)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := metricsOnly()
	cfg.MetricExporter = "statsd"
	_, err := InitializeOTel(cfg, NewLogger(io.Discard, "error"))
	assert.Error(t, err)
}

func TestSpanTraceIDFeedsLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "evaluate")
	defer span.End()

	var buf bytes.Buffer
	NewLogger(&buf, "info").InfoContext(ctx, "inside span")
	assert.Equal(t, span.SpanContext().TraceID().String(), decodeLastLine(t, buf.Bytes())["trace_id"])
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordInteraction(ctx, nil, "http", "bar", 1, time.Millisecond)
		RecordCatalogLoad(ctx, nil, time.Millisecond, assert.AnError)
		RecordExport(ctx, nil, "xlsx")
	})
}
