// Package shared groups helpers used across packages. The testutil
// subpackage provides a capturing slog handler and a sample dataset for
// tests.
package shared
