package chart

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"carviz/internal/pipeline"
	"carviz/pkg/contracts/domain"
)

var (
	ErrEmptyView        = errors.New("cannot chart an empty view")
	ErrInvalidConfig    = errors.New("invalid chart configuration")
	ErrUnsupportedChart = errors.New("unsupported chart type")
)

type builder func(view domain.FilteredView, cfg domain.ChartConfig) (*Figure, error)

var builders = map[domain.ChartType]builder{
	domain.ChartBar:     buildCategorical,
	domain.ChartLine:    buildCategorical,
	domain.ChartScatter: buildScatter,
	domain.ChartBox:     buildBox,
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks cfg against the supported chart types and price choices.
func Validate(cfg domain.ChartConfig) error {
	if err := configValidator().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Build produces the figure for view. Empty views are rejected; callers show
// the empty-selection warning instead.
func Build(view domain.FilteredView, cfg domain.ChartConfig) (*Figure, error) {
	cfg = cfg.WithDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, ErrEmptyView
	}
	build, ok := builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChart, cfg.Type)
	}
	fig, err := build(view, cfg)
	if err != nil {
		return nil, err
	}
	fig.Kind = cfg.Type
	fig.TickAngle = TickAngle
	return fig, nil
}

// buildCategorical draws bar and line charts. A single price gives one series
// per model; Both melts the view and gives one series per price type.
func buildCategorical(view domain.FilteredView, cfg domain.ChartConfig) (*Figure, error) {
	fig := &Figure{
		XLabel: ModelAxisLabel,
		YLabel: PriceAxisLabel,
	}
	markers := cfg.Type == domain.ChartLine

	if cfg.Price == domain.PriceBoth {
		long, err := pipeline.ReshapeLong(view, cfg.Price.Metrics())
		if err != nil {
			return nil, err
		}
		fig.Title = fmt.Sprintf("MSRP and Invoice by Model (%s)", cfg.Type.Label())
		fig.LegendTitle = PriceTypeLabel
		if cfg.Type == domain.ChartBar {
			fig.BarMode = BarModeGroup
		}
		fig.Series = seriesByMetric(long, markers)
		return fig, nil
	}

	metric := cfg.Price.Metrics()[0]
	fig.Title = fmt.Sprintf("%s by Model (%s)", metric, cfg.Type.Label())
	fig.LegendTitle = ModelAxisLabel
	fig.Series = groupByModel(view, markers, func(l domain.Listing) Point {
		v, _ := l.Price(metric)
		return Point{Category: l.Model, Y: v}
	})
	return fig, nil
}

// buildScatter plots Invoice against MSRP regardless of the price choice.
func buildScatter(view domain.FilteredView, _ domain.ChartConfig) (*Figure, error) {
	return &Figure{
		Title:       "MSRP vs Invoice",
		XLabel:      InvoiceAxisLabel,
		YLabel:      MSRPAxisLabel,
		LegendTitle: ModelAxisLabel,
		Series: groupByModel(view, true, func(l domain.Listing) Point {
			return Point{X: int64Ptr(l.Invoice), Y: l.MSRP, Size: int64Ptr(l.MSRP), Label: l.Model}
		}),
	}, nil
}

// buildBox always compares both price types.
func buildBox(view domain.FilteredView, _ domain.ChartConfig) (*Figure, error) {
	long, err := pipeline.ReshapeLong(view, domain.PriceMetrics)
	if err != nil {
		return nil, err
	}
	fig := &Figure{
		Title:       "Price Distribution",
		XLabel:      PriceTypeLabel,
		YLabel:      PriceAxisLabel,
		LegendTitle: PriceTypeLabel,
	}
	for _, s := range seriesByMetric(long, false) {
		values := make([]int64, len(s.Points))
		for i := range s.Points {
			s.Points[i].Category = s.Name
			values[i] = s.Points[i].Y
		}
		s.Box = boxStats(values)
		fig.Series = append(fig.Series, s)
	}
	return fig, nil
}

// groupByModel emits one series per model in order of first appearance.
func groupByModel(view domain.FilteredView, markers bool, point func(domain.Listing) Point) []Series {
	index := make(map[string]int)
	var series []Series
	for _, l := range view.Listings {
		i, ok := index[l.Model]
		if !ok {
			i = len(series)
			index[l.Model] = i
			series = append(series, Series{Name: l.Model, Markers: markers})
		}
		series[i].Points = append(series[i].Points, point(l))
	}
	return series
}

func seriesByMetric(rows []domain.LongFormRow, markers bool) []Series {
	index := make(map[domain.Metric]int)
	var series []Series
	for _, r := range rows {
		i, ok := index[r.Metric]
		if !ok {
			i = len(series)
			index[r.Metric] = i
			series = append(series, Series{Name: string(r.Metric), Markers: markers})
		}
		series[i].Points = append(series[i].Points, Point{Category: r.Model, Y: r.Value})
	}
	return series
}

func int64Ptr(v int64) *int64 { return &v }

// boxStats uses linear interpolation between closest ranks for quartiles.
func boxStats(values []int64) *BoxStats {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	return &BoxStats{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
