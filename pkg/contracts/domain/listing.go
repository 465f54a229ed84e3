package domain

import (
	"fmt"
	"strconv"
)

// Required catalog columns. Every dataset must carry these headers; any other
// header is kept as a passthrough column.
const (
	ColumnType    = "Type"
	ColumnMake    = "Make"
	ColumnModel   = "Model"
	ColumnMSRP    = "MSRP"
	ColumnInvoice = "Invoice"
)

// RequiredColumns lists the headers the loader insists on.
var RequiredColumns = []string{ColumnType, ColumnMake, ColumnModel, ColumnMSRP, ColumnInvoice}

// Metric names a numeric price column of a Listing.
type Metric string

const (
	MetricMSRP    Metric = ColumnMSRP
	MetricInvoice Metric = ColumnInvoice
)

// PriceMetrics is the canonical ordering of the price columns.
var PriceMetrics = []Metric{MetricMSRP, MetricInvoice}

// ParseMetric converts a column name into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricMSRP, MetricInvoice:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown price metric %q", s)
	}
}

// Valid reports whether m is one of the price columns.
func (m Metric) Valid() bool {
	return m == MetricMSRP || m == MetricInvoice
}

// Listing is one row of the vehicle catalog.
//
// MSRP and Invoice hold whole dollars after currency normalization and are
// never negative. Extra carries the columns the dashboard does not interpret,
// keyed by header name, so exports can reproduce the source table.
type Listing struct {
	Type    string            `json:"type"`
	Make    string            `json:"make"`
	Model   string            `json:"model"`
	MSRP    int64             `json:"msrp"`
	Invoice int64             `json:"invoice"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Price returns the value of the given price metric.
func (l Listing) Price(m Metric) (int64, bool) {
	switch m {
	case MetricMSRP:
		return l.MSRP, true
	case MetricInvoice:
		return l.Invoice, true
	default:
		return 0, false
	}
}

// Field renders the named column as text. Prices are written as plain integers.
func (l Listing) Field(column string) string {
	switch column {
	case ColumnType:
		return l.Type
	case ColumnMake:
		return l.Make
	case ColumnModel:
		return l.Model
	case ColumnMSRP:
		return strconv.FormatInt(l.MSRP, 10)
	case ColumnInvoice:
		return strconv.FormatInt(l.Invoice, 10)
	default:
		return l.Extra[column]
	}
}

// Record renders the listing in the given column order.
func (l Listing) Record(columns []string) []string {
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = l.Field(col)
	}
	return record
}

// LongFormRow is one (model, metric, value) triple of a melted view. It lets
// both price columns share a single chart axis.
type LongFormRow struct {
	Model  string `json:"model"`
	Metric Metric `json:"metric"`
	Value  int64  `json:"value"`
}
