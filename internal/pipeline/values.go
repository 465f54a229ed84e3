package pipeline

import (
	"fmt"
	"sort"

	"carviz/pkg/contracts/domain"
)

// AvailableValues returns the distinct values of the stage's column in prior,
// sorted ascending. Only the categorical stages have choices.
func AvailableValues(stage Stage, prior domain.FilteredView) ([]string, error) {
	var field func(domain.Listing) string
	switch stage {
	case StageType:
		field = func(l domain.Listing) string { return l.Type }
	case StageMake:
		field = func(l domain.Listing) string { return l.Make }
	case StageModel:
		field = func(l domain.Listing) string { return l.Model }
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotCategorical, stage)
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, l := range prior.Listings {
		v := field(l)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// PriceBounds returns the smallest and largest value of metric in view. The
// second result is false when the view is empty or the metric is unknown.
func PriceBounds(view domain.FilteredView, metric domain.Metric) (domain.Range, bool) {
	if !metric.Valid() || view.IsEmpty() {
		return domain.Range{}, false
	}
	first, _ := view.Listings[0].Price(metric)
	bounds := domain.Range{Min: first, Max: first}
	for _, l := range view.Listings[1:] {
		v, _ := l.Price(metric)
		if v < bounds.Min {
			bounds.Min = v
		}
		if v > bounds.Max {
			bounds.Max = v
		}
	}
	return bounds, true
}

// Choices is everything a client needs to draw the filter controls for the
// current selection.
type Choices struct {
	Types   []string      `json:"types"`
	Makes   []string      `json:"makes"`
	Models  []string      `json:"models"`
	MSRP    *domain.Range `json:"msrp,omitempty"`
	Invoice *domain.Range `json:"invoice,omitempty"`
}

// Options derives the cascaded choice sets for spec. Slider bounds come from
// the full view, not the filtered one, so they do not move as the user narrows
// the selection.
func Options(view domain.FilteredView, spec domain.FilterSpec) Choices {
	var c Choices
	c.Types, _ = AvailableValues(StageType, ScopedView(view, spec, StageType))
	c.Makes, _ = AvailableValues(StageMake, ScopedView(view, spec, StageMake))
	c.Models, _ = AvailableValues(StageModel, ScopedView(view, spec, StageModel))

	if r, ok := PriceBounds(view, domain.MetricMSRP); ok {
		c.MSRP = &r
	}
	if r, ok := PriceBounds(view, domain.MetricInvoice); ok {
		c.Invoice = &r
	}
	return c
}
