package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carviz/pkg/contracts/domain"
)

func sampleView() domain.FilteredView {
	return domain.FilteredView{
		Columns: domain.RequiredColumns,
		Listings: []domain.Listing{
			{Type: "Sedan", Make: "Acme", Model: "X", MSRP: 20000, Invoice: 18000},
			{Type: "Sedan", Make: "Acme", Model: "Y", MSRP: 30000, Invoice: 27000},
			{Type: "Sedan", Make: "Acme", Model: "X", MSRP: 22000, Invoice: 19000},
		},
	}
}

func TestBuild_CategoricalSinglePrice(t *testing.T) {
	for _, kind := range []domain.ChartType{domain.ChartBar, domain.ChartLine} {
		t.Run(string(kind), func(t *testing.T) {
			fig, err := Build(sampleView(), domain.ChartConfig{Type: kind, Price: domain.PriceInvoice})
			require.NoError(t, err)

			assert.Equal(t, kind, fig.Kind)
			assert.Equal(t, PriceAxisLabel, fig.YLabel)
			assert.Equal(t, ModelAxisLabel, fig.LegendTitle)
			assert.Equal(t, TickAngle, fig.TickAngle)
			assert.Empty(t, fig.BarMode)

			require.Len(t, fig.Series, 2)
			assert.Equal(t, "X", fig.Series[0].Name)
			assert.Equal(t, []Point{{Category: "X", Y: 18000}, {Category: "X", Y: 19000}}, fig.Series[0].Points)
			assert.Equal(t, "Y", fig.Series[1].Name)
			assert.Equal(t, kind == domain.ChartLine, fig.Series[0].Markers)
		})
	}
}

func TestBuild_BarBothIsGrouped(t *testing.T) {
	fig, err := Build(sampleView(), domain.ChartConfig{Type: domain.ChartBar, Price: domain.PriceBoth})
	require.NoError(t, err)

	assert.Equal(t, BarModeGroup, fig.BarMode)
	assert.Equal(t, PriceTypeLabel, fig.LegendTitle)
	require.Len(t, fig.Series, 2)
	assert.Equal(t, "MSRP", fig.Series[0].Name)
	assert.Equal(t, "Invoice", fig.Series[1].Name)
	assert.Equal(t, []Point{
		{Category: "X", Y: 20000},
		{Category: "Y", Y: 30000},
		{Category: "X", Y: 22000},
	}, fig.Series[0].Points)
}

func TestBuild_LineBothHasMarkers(t *testing.T) {
	fig, err := Build(sampleView(), domain.ChartConfig{Type: domain.ChartLine, Price: domain.PriceBoth})
	require.NoError(t, err)

	assert.Empty(t, fig.BarMode)
	for _, s := range fig.Series {
		assert.True(t, s.Markers)
	}
}

func TestBuild_Scatter(t *testing.T) {
	fig, err := Build(sampleView(), domain.ChartConfig{Type: domain.ChartScatter, Price: domain.PriceMSRP})
	require.NoError(t, err)

	assert.Equal(t, InvoiceAxisLabel, fig.XLabel)
	assert.Equal(t, MSRPAxisLabel, fig.YLabel)
	require.Len(t, fig.Series, 2)
	assert.Equal(t, Point{X: int64Ptr(18000), Y: 20000, Size: int64Ptr(20000), Label: "X"}, fig.Series[0].Points[0])
}

func TestBuild_ScatterKeepsZeroPrices(t *testing.T) {
	view := domain.FilteredView{
		Columns:  domain.RequiredColumns,
		Listings: []domain.Listing{{Type: "Sedan", Make: "Acme", Model: "Free", MSRP: 100, Invoice: 0}},
	}
	fig, err := Build(view, domain.ChartConfig{Type: domain.ChartScatter, Price: domain.PriceMSRP})
	require.NoError(t, err)

	data, err := json.Marshal(fig.Series[0].Points[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0,"y":100,"size":100,"label":"Free"}`, string(data))

	bar, err := Build(view, domain.ChartConfig{Type: domain.ChartBar, Price: domain.PriceMSRP})
	require.NoError(t, err)
	data, err = json.Marshal(bar.Series[0].Points[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Free","y":100}`, string(data))
}

func TestBuild_Box(t *testing.T) {
	fig, err := Build(sampleView(), domain.ChartConfig{Type: domain.ChartBox, Price: domain.PriceMSRP})
	require.NoError(t, err)

	require.Len(t, fig.Series, 2)
	msrp := fig.Series[0]
	assert.Equal(t, "MSRP", msrp.Name)
	assert.Len(t, msrp.Points, 3)
	assert.Equal(t, "MSRP", msrp.Points[0].Category)
	require.NotNil(t, msrp.Box)
	assert.Equal(t, BoxStats{Min: 20000, Q1: 21000, Median: 22000, Q3: 26000, Max: 30000}, *msrp.Box)
}

func TestQuantile_LinearBetweenClosestRanks(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		q    float64
		want float64
	}{
		{q: 0, want: 1},
		{q: 0.25, want: 1.75},
		{q: 0.5, want: 2.5},
		{q: 0.75, want: 3.25},
		{q: 1, want: 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(sorted, tt.q), 1e-9, "q=%v", tt.q)
	}
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.75))
}

func TestBuild_Defaults(t *testing.T) {
	fig, err := Build(sampleView(), domain.ChartConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.ChartBar, fig.Kind)
	assert.Equal(t, "MSRP by Model (Bar Chart)", fig.Title)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(domain.FilteredView{}, domain.DefaultChartConfig())
	assert.ErrorIs(t, err, ErrEmptyView)

	_, err = Build(sampleView(), domain.ChartConfig{Type: "pie", Price: domain.PriceMSRP})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Build(sampleView(), domain.ChartConfig{Type: domain.ChartBar, Price: "Weight"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 5.0, quantile([]float64{5}, 0.75))
	assert.Equal(t, 2.5, quantile([]float64{1, 2, 3, 4}, 0.5))
	assert.Nil(t, boxStats(nil))
}
