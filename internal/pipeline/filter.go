// Package pipeline turns a catalog view and a FilterSpec into the table a
// chart is drawn from.
//
// Filtering is a cascade: Type, then Make, then Model, then the MSRP range,
// then the Invoice range. Every stage is a single ordered scan, so a view
// never reorders the rows it was built from. Choice sets for the categorical
// stages are taken from the view produced by the stages before them, which
// is what ScopedView returns.
package pipeline

import (
	"carviz/pkg/contracts/domain"
)

type predicate func(domain.Listing) bool

// stagePredicate returns the filter applied by stage, or nil when the spec
// leaves that stage unrestricted.
func stagePredicate(spec domain.FilterSpec, stage Stage) predicate {
	switch stage {
	case StageType:
		if spec.Type == "" {
			return nil
		}
		return func(l domain.Listing) bool { return l.Type == spec.Type }
	case StageMake:
		if spec.Make == "" {
			return nil
		}
		return func(l domain.Listing) bool { return l.Make == spec.Make }
	case StageModel:
		if spec.Models == nil {
			return nil
		}
		selected := make(map[string]struct{}, len(spec.Models))
		for _, m := range spec.Models {
			selected[m] = struct{}{}
		}
		return func(l domain.Listing) bool {
			_, ok := selected[l.Model]
			return ok
		}
	case StageMSRP:
		if spec.MSRP == nil {
			return nil
		}
		r := *spec.MSRP
		return func(l domain.Listing) bool { return r.Contains(l.MSRP) }
	case StageInvoice:
		if spec.Invoice == nil {
			return nil
		}
		r := *spec.Invoice
		return func(l domain.Listing) bool { return r.Contains(l.Invoice) }
	default:
		return nil
	}
}

func keep(view domain.FilteredView, fn predicate) domain.FilteredView {
	out := make([]domain.Listing, 0, len(view.Listings))
	for _, l := range view.Listings {
		if fn(l) {
			out = append(out, l)
		}
	}
	return domain.FilteredView{Columns: view.Columns, Listings: out}
}

// run applies every stage strictly before stop.
func run(view domain.FilteredView, spec domain.FilterSpec, stop int) domain.FilteredView {
	out := domain.FilteredView{Columns: view.Columns, Listings: view.Listings}
	if out.Listings == nil {
		out.Listings = []domain.Listing{}
	}
	for _, stage := range Stages[:stop] {
		if fn := stagePredicate(spec, stage); fn != nil {
			out = keep(out, fn)
		}
	}
	return out
}

// ApplyFilters runs the whole cascade over view. The result is never nil;
// an unmatched selection yields an explicit empty view.
func ApplyFilters(view domain.FilteredView, spec domain.FilterSpec) domain.FilteredView {
	return run(view, spec, len(Stages))
}

// ScopedView returns view filtered by the stages that precede stage. It is
// the prior view from which the choices for stage are drawn.
func ScopedView(view domain.FilteredView, spec domain.FilterSpec, stage Stage) domain.FilteredView {
	stop := int(stage)
	if stop < 0 {
		stop = 0
	}
	if stop > len(Stages) {
		stop = len(Stages)
	}
	return run(view, spec, stop)
}

// Adjustment records a selection dropped by Reconcile.
type Adjustment struct {
	Stage   Stage    `json:"stage"`
	Dropped []string `json:"dropped"`
}

// Reconcile drops selections that fell out of scope after an upstream stage
// changed. A Make that no longer exists under the chosen Type is cleared.
// Models outside the Type and Make scope are pruned; if pruning removes every
// model the user had picked, the model stage returns to "all models". An
// explicit empty model list is left untouched.
func Reconcile(view domain.FilteredView, spec domain.FilterSpec) (domain.FilterSpec, []Adjustment) {
	var adjustments []Adjustment

	if spec.Make != "" {
		makes, _ := AvailableValues(StageMake, ScopedView(view, spec, StageMake))
		if !contains(makes, spec.Make) {
			adjustments = append(adjustments, Adjustment{Stage: StageMake, Dropped: []string{spec.Make}})
			spec.Make = ""
		}
	}

	if len(spec.Models) > 0 {
		models, _ := AvailableValues(StageModel, ScopedView(view, spec, StageModel))
		kept := make([]string, 0, len(spec.Models))
		var dropped []string
		for _, m := range spec.Models {
			if contains(models, m) {
				kept = append(kept, m)
			} else {
				dropped = append(dropped, m)
			}
		}
		if len(dropped) > 0 {
			adjustments = append(adjustments, Adjustment{Stage: StageModel, Dropped: dropped})
			if len(kept) == 0 {
				kept = nil
			}
			spec.Models = kept
		}
	}

	return spec, adjustments
}

func contains(sorted []string, v string) bool {
	for _, s := range sorted {
		if s == v {
			return true
		}
	}
	return false
}
