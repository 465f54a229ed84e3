package pipeline

import (
	"errors"
	"fmt"

	"carviz/pkg/contracts/domain"
)

var (
	ErrUnknownMetric  = errors.New("unknown price metric")
	ErrNotCategorical = errors.New("stage has no categorical choices")
	ErrEmptyAggregate = errors.New("aggregate over empty view")
)

// EmptySelectionMessage is shown in place of the chart when no rows survive.
const EmptySelectionMessage = "No data matches the selected filters. Please adjust your selections."

// EmptyAggregateError is returned when a statistic is requested over zero rows.
// It matches ErrEmptyAggregate with errors.Is.
type EmptyAggregateError struct {
	Metric domain.Metric
}

func (e *EmptyAggregateError) Error() string {
	return fmt.Sprintf("mean of %s: %v", e.Metric, ErrEmptyAggregate)
}

func (e *EmptyAggregateError) Is(target error) bool {
	return target == ErrEmptyAggregate
}

// EmptySelectionWarning reports a filter that matched nothing. It is not
// fatal: the caller still renders the (empty) table and offers the export.
type EmptySelectionWarning struct {
	Filter  domain.FilterSpec `json:"-"`
	Message string            `json:"message"`
}

func (w *EmptySelectionWarning) Error() string {
	return w.Message
}

// CheckSelection returns a warning when view has no rows, nil otherwise.
func CheckSelection(view domain.FilteredView, spec domain.FilterSpec) *EmptySelectionWarning {
	if !view.IsEmpty() {
		return nil
	}
	return &EmptySelectionWarning{Filter: spec, Message: EmptySelectionMessage}
}
