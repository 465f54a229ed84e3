package domain

// ChartType selects how a view is plotted.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
	ChartBox     ChartType = "box"
)

// ChartTypes lists the selectable chart types in menu order.
var ChartTypes = []ChartType{ChartBar, ChartLine, ChartScatter, ChartBox}

// Label is the human readable menu entry.
func (c ChartType) Label() string {
	switch c {
	case ChartBar:
		return "Bar Chart"
	case ChartLine:
		return "Line Chart"
	case ChartScatter:
		return "Scatter Plot"
	case ChartBox:
		return "Box Plot"
	default:
		return string(c)
	}
}

// PriceChoice selects which price series a chart shows.
type PriceChoice string

const (
	PriceMSRP    PriceChoice = "MSRP"
	PriceInvoice PriceChoice = "Invoice"
	PriceBoth    PriceChoice = "Both"
)

// PriceChoices lists the selectable price series in menu order.
var PriceChoices = []PriceChoice{PriceMSRP, PriceInvoice, PriceBoth}

// Metrics expands the choice into the price columns it covers.
func (p PriceChoice) Metrics() []Metric {
	switch p {
	case PriceMSRP:
		return []Metric{MetricMSRP}
	case PriceInvoice:
		return []Metric{MetricInvoice}
	case PriceBoth:
		return []Metric{MetricMSRP, MetricInvoice}
	default:
		return nil
	}
}

// ChartConfig pairs with FilterSpec to describe one rendering of the dashboard.
type ChartConfig struct {
	Type  ChartType   `json:"type" validate:"required,oneof=bar line scatter box"`
	Price PriceChoice `json:"price" validate:"required,oneof=MSRP Invoice Both"`
}

// DefaultChartConfig mirrors the initial widget state: a bar chart of MSRP.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{Type: ChartBar, Price: PriceMSRP}
}

// WithDefaults fills unset fields from DefaultChartConfig.
func (c ChartConfig) WithDefaults() ChartConfig {
	def := DefaultChartConfig()
	if c.Type == "" {
		c.Type = def.Type
	}
	if c.Price == "" {
		c.Price = def.Price
	}
	return c
}
