package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"carviz/internal/catalog"
	"carviz/internal/chart"
	"carviz/internal/config"
	"carviz/internal/exporter"
	"carviz/internal/infrastructure"
	"carviz/internal/pipeline"
	"carviz/pkg/contracts/domain"
)

// CatalogSource hands out the current catalog. *catalog.Loader implements it.
type CatalogSource interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// ViewRequest is one interaction: the filter widgets plus the chart widgets.
type ViewRequest struct {
	Filter domain.FilterSpec  `json:"filter"`
	Chart  domain.ChartConfig `json:"chart"`
}

// Summary holds the headline averages. Means are exact; the text fields are
// rounded to whole dollars for display.
type Summary struct {
	Count           int     `json:"count"`
	MeanMSRP        float64 `json:"mean_msrp"`
	MeanInvoice     float64 `json:"mean_invoice"`
	MeanMSRPText    string  `json:"mean_msrp_text"`
	MeanInvoiceText string  `json:"mean_invoice_text"`
}

// DashboardView is the full result of one interaction. Summary and Figure are
// nil when the selection is empty; Warning is set instead.
type DashboardView struct {
	Filter      domain.FilterSpec               `json:"filter"`
	Chart       domain.ChartConfig              `json:"chart"`
	Options     pipeline.Choices                `json:"options"`
	Columns     []string                        `json:"columns"`
	Rows        []domain.Listing                `json:"rows"`
	Count       int                             `json:"count"`
	Summary     *Summary                        `json:"summary,omitempty"`
	Figure      *chart.Figure                   `json:"figure,omitempty"`
	Warning     *pipeline.EmptySelectionWarning `json:"warning,omitempty"`
	Adjustments []pipeline.Adjustment           `json:"adjustments,omitempty"`
}

// ChartOption is one entry of the chart type menu.
type ChartOption struct {
	Value domain.ChartType `json:"value"`
	Label string           `json:"label"`
}

// DashboardOptions describes every control of the dashboard for a selection.
type DashboardOptions struct {
	pipeline.Choices
	Filter       domain.FilterSpec     `json:"filter"`
	ChartTypes   []ChartOption         `json:"chart_types"`
	PriceChoices []domain.PriceChoice  `json:"price_choices"`
	Defaults     domain.ChartConfig    `json:"defaults"`
	Adjustments  []pipeline.Adjustment `json:"adjustments,omitempty"`
}

// Export format names.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export is a rendered download.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

// DashboardService evaluates interactions against the catalog. Every call
// recomputes the filtered view from the catalog handle; nothing derived from
// a selection is cached.
type DashboardService struct {
	source  CatalogSource
	metrics *infrastructure.DashboardMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewDashboardService creates the service. metrics may be nil.
func NewDashboardService(source CatalogSource, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		source:  source,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.ServiceName + ".dashboard"),
		logger:  infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// scoped is a selection evaluated against the catalog. adjustments lists
// the parts of spec that are out of scope; they are reported, never applied.
type scoped struct {
	full        domain.FilteredView
	spec        domain.FilterSpec
	view        domain.FilteredView
	adjustments []pipeline.Adjustment
}

func (s *DashboardService) resolve(ctx context.Context, spec domain.FilterSpec) (*scoped, error) {
	if s.source == nil {
		return nil, ErrNoCatalogSource
	}
	cat, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	full := cat.View()
	_, adjustments := pipeline.Reconcile(full, spec)
	if len(adjustments) > 0 {
		s.logger.DebugContext(ctx, "selection out of scope",
			slog.Any("adjustments", adjustments))
	}
	return &scoped{
		full:        full,
		spec:        spec,
		view:        pipeline.ApplyFilters(full, spec),
		adjustments: adjustments,
	}, nil
}

// Options returns the cascaded choice sets and menus for spec.
func (s *DashboardService) Options(ctx context.Context, spec domain.FilterSpec) (*DashboardOptions, error) {
	sc, err := s.resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	// The widgets offer only in-scope choices, so the suggested filter drops
	// stale selections.
	suggested, _ := pipeline.Reconcile(sc.full, sc.spec)

	charts := make([]ChartOption, len(domain.ChartTypes))
	for i, ct := range domain.ChartTypes {
		charts[i] = ChartOption{Value: ct, Label: ct.Label()}
	}

	return &DashboardOptions{
		Choices:      pipeline.Options(sc.full, suggested),
		Filter:       suggested,
		ChartTypes:   charts,
		PriceChoices: domain.PriceChoices,
		Defaults:     domain.DefaultChartConfig(),
		Adjustments:  sc.adjustments,
	}, nil
}

// Filter returns the listings matching spec exactly as given.
func (s *DashboardService) Filter(ctx context.Context, spec domain.FilterSpec) (domain.FilteredView, error) {
	sc, err := s.resolve(ctx, spec)
	if err != nil {
		return domain.FilteredView{}, err
	}
	return sc.view, nil
}

// View evaluates one interaction end to end: filter, summarize and chart.
// Out-of-scope selections are listed in Adjustments but still applied, so
// they select nothing. source labels the caller in metrics ("http", "ws").
func (s *DashboardService) View(ctx context.Context, source string, req ViewRequest) (*DashboardView, error) {
	start := time.Now()
	cfg := req.Chart.WithDefaults()

	ctx, span := s.tracer.Start(ctx, "dashboard.view",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.String("chart.type", string(cfg.Type)),
			attribute.String("chart.price", string(cfg.Price)),
		))
	defer span.End()

	if err := chart.Validate(cfg); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	sc, err := s.resolve(ctx, req.Filter)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	result := &DashboardView{
		Filter:      sc.spec,
		Chart:       cfg,
		Options:     pipeline.Options(sc.full, sc.spec),
		Columns:     sc.view.Columns,
		Rows:        sc.view.Listings,
		Count:       sc.view.Len(),
		Adjustments: sc.adjustments,
	}

	if warning := pipeline.CheckSelection(sc.view, sc.spec); warning != nil {
		result.Warning = warning
		s.logger.InfoContext(ctx, "empty selection",
			slog.String("type", sc.spec.Type),
			slog.String("make", sc.spec.Make),
			slog.Int("models", len(sc.spec.Models)))
	} else {
		if result.Summary, err = Summarize(sc.view); err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
		if result.Figure, err = chart.Build(sc.view, cfg); err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("rows", result.Count))
	infrastructure.RecordInteraction(ctx, s.metrics, source, string(cfg.Type), result.Count, time.Since(start))

	s.logger.DebugContext(ctx, "view evaluated",
		slog.String("source", source),
		slog.Int("rows", result.Count),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Summarize computes the mean prices of a non-empty view.
func Summarize(view domain.FilteredView) (*Summary, error) {
	msrp, err := pipeline.Mean(view, domain.MetricMSRP)
	if err != nil {
		return nil, err
	}
	invoice, err := pipeline.Mean(view, domain.MetricInvoice)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Count:           view.Len(),
		MeanMSRP:        msrp,
		MeanInvoice:     invoice,
		MeanMSRPText:    exporter.FormatCurrency(msrp),
		MeanInvoiceText: exporter.FormatCurrency(invoice),
	}, nil
}

// Export renders the filtered view for spec in the given format. An empty
// view still exports its header.
func (s *DashboardService) Export(ctx context.Context, spec domain.FilterSpec, format string) (*Export, error) {
	sc, err := s.resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	out := &Export{Rows: sc.view.Len()}
	switch format {
	case FormatCSV:
		out.FileName = config.ExportFileName
		out.ContentType = config.ExportContentType
		out.Data, err = exporter.CSVBytes(sc.view)
	case FormatXLSX:
		out.FileName = config.XLSXExportFileName
		out.ContentType = config.XLSXExportContentType
		out.Data, err = exporter.XLSXBytes(sc.view)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	infrastructure.RecordExport(ctx, s.metrics, format)
	s.logger.InfoContext(ctx, "view exported",
		slog.String("format", format),
		slog.Int("rows", out.Rows),
		slog.Int("bytes", len(out.Data)))

	return out, nil
}

// IsValidationError reports whether err stems from a bad request rather than
// from the dataset or the server.
func IsValidationError(err error) bool {
	return errors.Is(err, chart.ErrInvalidConfig) ||
		errors.Is(err, chart.ErrUnsupportedChart) ||
		errors.Is(err, pipeline.ErrUnknownMetric) ||
		errors.Is(err, ErrUnsupportedFormat)
}
