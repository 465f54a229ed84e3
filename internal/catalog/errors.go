package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrEmptySource     = errors.New("dataset has no header row")
)

// LoadError reports why a dataset could not become a Catalog. It is fatal:
// no partial catalog is ever produced alongside it.
type LoadError struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load catalog")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err carries a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
