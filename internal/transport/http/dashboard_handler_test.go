package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carviz/internal/catalog"
	"carviz/internal/chart"
	"carviz/internal/config"
	apierrors "carviz/internal/errors"
	"carviz/internal/middleware"
	"carviz/internal/pipeline"
	"carviz/internal/services"
	"carviz/internal/shared/testutil"
	"carviz/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Options(ctx context.Context, spec domain.FilterSpec) (*services.DashboardOptions, error) {
	args := m.Called(spec)
	opts, _ := args.Get(0).(*services.DashboardOptions)
	return opts, args.Error(1)
}

func (m *MockDashboardService) View(ctx context.Context, source string, req services.ViewRequest) (*services.DashboardView, error) {
	args := m.Called(source, req)
	view, _ := args.Get(0).(*services.DashboardView)
	return view, args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, spec domain.FilterSpec, format string) (*services.Export, error) {
	args := m.Called(spec, format)
	export, _ := args.Get(0).(*services.Export)
	return export, args.Error(1)
}

func newDashboardRouter(t *testing.T, svc DashboardServiceInterface) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidationMiddleware(logger, errorHandler, config.DefaultRequestBodyLimit)

	r := chi.NewRouter()
	r.Mount("/api/dashboard", NewDashboardHandler(svc, validator, logger, errorHandler).Routes())
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func pipelineChoices() pipeline.Choices {
	return pipeline.Choices{
		Types:  []string{"Sedan", "SUV"},
		Makes:  []string{"Acme"},
		Models: []string{"Sedan One", "Sedan Two"},
	}
}

func TestDashboardHandler_GetOptions(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Options", domain.FilterSpec{Type: "Sedan", Make: "Acme"}).Return(&services.DashboardOptions{
		Choices: pipelineChoices(),
	}, nil)

	rec := serve(newDashboardRouter(t, svc), http.MethodGet, "/api/dashboard/options?type=Sedan&make=Acme", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"Sedan", "SUV"}, body["types"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetOptionsBadQuery(t *testing.T) {
	svc := &MockDashboardService{}
	rec := serve(newDashboardRouter(t, svc), http.MethodGet, "/api/dashboard/options?msrp_min=cheap", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeValidationFailed, decodeProblem(t, rec)["error_code"])
	svc.AssertNotCalled(t, "Options", mock.Anything)
}

func TestDashboardHandler_PostView(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("View", Source, services.ViewRequest{
		Filter: domain.FilterSpec{Type: "Sedan", Models: []string{"Sedan One"}},
		Chart:  domain.ChartConfig{Type: domain.ChartScatter, Price: domain.PriceMSRP},
	}).Return(&services.DashboardView{Count: 1, Columns: domain.RequiredColumns}, nil)

	rec := serve(newDashboardRouter(t, svc), http.MethodPost, "/api/dashboard/view",
		`{"filter":{"type":"Sedan","models":["Sedan One"]},"chart":{"type":"scatter"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var view services.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 1, view.Count)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_PostViewErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed body", body: `{"filter":`, wantStatus: http.StatusBadRequest, wantCode: apierrors.CodeInvalidRequest},
		{name: "unknown chart type", body: `{"chart":{"type":"pie"}}`, wantStatus: http.StatusBadRequest, wantCode: apierrors.CodeValidationFailed},
		{name: "negative price bound", body: `{"filter":{"msrp":{"min":-5,"max":100}}}`, wantStatus: http.StatusBadRequest, wantCode: apierrors.CodeValidationFailed},
		{
			name:       "dataset unavailable",
			body:       `{}`,
			serviceErr: &catalog.LoadError{Source: "CARS.csv", Err: catalog.ErrEmptySource},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierrors.CodeDatasetUnavailable,
		},
		{name: "service validation", body: `{}`, serviceErr: chart.ErrInvalidConfig, wantStatus: http.StatusBadRequest, wantCode: apierrors.CodeValidationFailed},
		{name: "unexpected", body: `{}`, serviceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			svc.On("View", Source, mock.Anything).Return(nil, tt.serviceErr)

			rec := serve(newDashboardRouter(t, svc), http.MethodPost, "/api/dashboard/view", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := decodeProblem(t, rec)
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
		})
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	svc := &MockDashboardService{}
	spec := domain.FilterSpec{Type: "SUV", Models: []string{}}
	svc.On("Export", spec, services.FormatCSV).Return(&services.Export{
		FileName:    config.ExportFileName,
		ContentType: config.ExportContentType,
		Data:        []byte("Make,Model\n"),
	}, nil)
	svc.On("Export", spec, services.FormatXLSX).Return(&services.Export{
		FileName:    config.XLSXExportFileName,
		ContentType: config.XLSXExportContentType,
		Data:        []byte("PK"),
	}, nil)

	router := newDashboardRouter(t, svc)

	rec := serve(router, http.MethodGet, "/api/dashboard/export.csv?type=SUV&model=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.ExportContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filtered_cars.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Equal(t, "Make,Model\n", rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/dashboard/export.xlsx?type=SUV&model=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.XLSXExportContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filtered_cars.xlsx"`, rec.Header().Get("Content-Disposition"))

	svc.AssertExpectations(t)
}

type staticSource struct {
	cat *catalog.Catalog
}

func (s staticSource) Load(context.Context) (*catalog.Catalog, error) {
	return s.cat, nil
}

func TestDashboardHandler_ExportEndToEnd(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewDashboardService(staticSource{cat: catalog.New(testutil.SampleColumns, testutil.SampleListings())}, nil, logger)
	router := newDashboardRouter(t, svc)

	rec := serve(router, http.MethodGet, "/api/dashboard/export.csv?type=Sedan&msrp_min=21000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"Make,Model,Type,Origin,MSRP,Invoice\n"+
			"Acme,Sedan Two,Sedan,USA,30000,27000\n"+
			"Borealis,City,Sedan,Europe,25000,23500\n",
		rec.Body.String())

	// An empty selection still downloads the header.
	rec = serve(router, http.MethodGet, "/api/dashboard/export.csv?type=Sedan&model=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Make,Model,Type,Origin,MSRP,Invoice\n", rec.Body.String())
}

func TestDashboardHandler_ViewEndToEndEmptySelection(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewDashboardService(staticSource{cat: catalog.New(testutil.SampleColumns, testutil.SampleListings())}, nil, logger)
	router := newDashboardRouter(t, svc)

	rec := serve(router, http.MethodPost, "/api/dashboard/view", `{"filter":{"msrp":{"min":90000,"max":100000}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["count"])
	assert.NotNil(t, body["warning"])
	assert.NotContains(t, body, "figure")
	assert.NotContains(t, body, "summary")
}
