package services

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNoCatalogSource   = errors.New("no catalog source configured")
)
