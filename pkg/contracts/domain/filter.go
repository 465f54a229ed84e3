package domain

// Range is a closed interval [Min, Max] over whole-dollar prices.
type Range struct {
	Min int64 `json:"min" validate:"min=0,ltefield=Max"`
	Max int64 `json:"max" validate:"min=0"`
}

// Contains reports whether v lies inside the interval, bounds included.
func (r Range) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterSpec is the user's current selection.
//
// An empty Type or Make leaves that stage unrestricted. Models follows the
// multiselect convention of the dashboard: nil means every model in scope,
// while a non-nil empty slice deliberately selects nothing. Nil ranges are
// unbounded.
type FilterSpec struct {
	Type    string   `json:"type,omitempty"`
	Make    string   `json:"make,omitempty"`
	Models  []string `json:"models"`
	MSRP    *Range   `json:"msrp,omitempty"`
	Invoice *Range   `json:"invoice,omitempty"`
}

// RangeFor returns the range configured for a price metric, if any.
func (s FilterSpec) RangeFor(m Metric) *Range {
	switch m {
	case MetricMSRP:
		return s.MSRP
	case MetricInvoice:
		return s.Invoice
	default:
		return nil
	}
}

// FilteredView is an ordered subsequence of a catalog. Columns carries the
// source header so the view can be exported on its own. Listings must be
// treated as read-only: views share rows with the catalog they came from.
type FilteredView struct {
	Columns  []string  `json:"columns"`
	Listings []Listing `json:"rows"`
}

// Len returns the number of rows in the view.
func (v FilteredView) Len() int {
	return len(v.Listings)
}

// IsEmpty reports whether the view has no rows.
func (v FilteredView) IsEmpty() bool {
	return len(v.Listings) == 0
}
