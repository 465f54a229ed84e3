// Package chart turns a filtered view into a renderer-neutral figure
// description. The browser draws it; the server only decides which series
// exist and what they contain.
package chart

import "carviz/pkg/contracts/domain"

// Axis and legend captions.
const (
	PriceAxisLabel   = "Price ($)"
	ModelAxisLabel   = "Model"
	PriceTypeLabel   = "Price Type"
	InvoiceAxisLabel = "Invoice Price ($)"
	MSRPAxisLabel    = "MSRP Price ($)"

	// TickAngle rotates x-axis labels so long model names stay readable.
	TickAngle = -45

	BarModeGroup = "group"
)

// Figure is a complete chart: layout plus data series.
type Figure struct {
	Kind        domain.ChartType `json:"kind"`
	Title       string           `json:"title"`
	XLabel      string           `json:"x_label"`
	YLabel      string           `json:"y_label"`
	LegendTitle string           `json:"legend_title"`
	BarMode     string           `json:"bar_mode,omitempty"`
	TickAngle   int              `json:"tick_angle"`
	Series      []Series         `json:"series"`
}

// Series is one legend entry.
type Series struct {
	Name    string    `json:"name"`
	Markers bool      `json:"markers,omitempty"`
	Points  []Point   `json:"points"`
	Box     *BoxStats `json:"box,omitempty"`
}

// Point is a single datum. Category is set on categorical x axes, X on
// numeric ones. Size scales scatter markers. X and Size are pointers so a
// zero price still appears in scatter output.
type Point struct {
	Category string `json:"category,omitempty"`
	X        *int64 `json:"x,omitempty"`
	Y        int64  `json:"y"`
	Size     *int64 `json:"size,omitempty"`
	Label    string `json:"label,omitempty"`
}

// BoxStats summarizes a box plot series.
type BoxStats struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}
