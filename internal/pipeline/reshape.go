package pipeline

import (
	"fmt"

	"carviz/pkg/contracts/domain"
)

// ReshapeLong melts the price columns of view into (model, metric, value)
// rows. Rows are emitted in view order and, within a row, in the order of
// metrics. Unknown metrics are rejected before any output is produced.
func ReshapeLong(view domain.FilteredView, metrics []domain.Metric) ([]domain.LongFormRow, error) {
	for _, m := range metrics {
		if !m.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}

	rows := make([]domain.LongFormRow, 0, len(view.Listings)*len(metrics))
	for _, l := range view.Listings {
		for _, m := range metrics {
			v, _ := l.Price(m)
			rows = append(rows, domain.LongFormRow{Model: l.Model, Metric: m, Value: v})
		}
	}
	return rows, nil
}

// Mean is the arithmetic mean of metric over view. It is not rounded.
func Mean(view domain.FilteredView, metric domain.Metric) (float64, error) {
	if !metric.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if view.IsEmpty() {
		return 0, &EmptyAggregateError{Metric: metric}
	}
	var sum float64
	for _, l := range view.Listings {
		v, _ := l.Price(metric)
		sum += float64(v)
	}
	return sum / float64(len(view.Listings)), nil
}
