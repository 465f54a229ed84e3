package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	apierrors "carviz/internal/errors"
	"carviz/internal/infrastructure"
	"carviz/internal/shared/testutil"
	"carviz/pkg/contracts/domain"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen, traceID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
		traceID = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, seen, traceID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", seen)
}

func TestRecoverer(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/view", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeInternal, body["type"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["trace_id"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewRateLimiter(0.001, 2, logger).Handler(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTimeout(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	var deadline bool
	handler := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
		<-r.Context().Done()
		w.WriteHeader(http.StatusGatewayTimeout)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, deadline)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request exceeded timeout")
}

func TestCORS(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:8501"}})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:8501", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/dashboard/view", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	handler := DefaultSecureHeaders().Handler(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://cdn.plot.ly")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "plain http")

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestOTelMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers := &infrastructure.OTelProviders{
		Tracer: noop.NewTracerProvider().Tracer("test"),
		Logger: logger,
	}
	handler := NewOTelMiddleware(providers, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

type viewBody struct {
	Filter domain.FilterSpec  `json:"filter"`
	Chart  domain.ChartConfig `json:"chart"`
}

func newValidation(t *testing.T) *ValidationMiddleware {
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), 1024)
}

func TestValidateStruct(t *testing.T) {
	v := newValidation(t)

	assert.NoError(t, v.ValidateStruct(viewBody{Chart: domain.DefaultChartConfig()}))

	err := v.ValidateStruct(viewBody{
		Filter: domain.FilterSpec{MSRP: &domain.Range{Min: 500, Max: 100}},
		Chart:  domain.ChartConfig{Type: "pie", Price: domain.PriceBoth},
	})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.CodeValidationFailed, apiErr.ErrorCode)

	details := apiErr.Details.(apierrors.ValidationErrors)
	fields := make([]string, 0, len(details.Errors))
	for _, e := range details.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"filter.msrp.min", "chart.type"}, fields)
}

func TestValidateRequest(t *testing.T) {
	v := newValidation(t)
	handler := v.ValidateRequest(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"filter":{}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"filter":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat(" ", 2048))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json")(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestGetRequestID_FallsBackToTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-123")
	assert.Equal(t, "trace-123", GetRequestID(ctx))
}
