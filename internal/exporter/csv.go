package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"carviz/internal/config"
	"carviz/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes view as comma separated UTF-8: a header with the source
// columns in file order, then one row per listing with prices as plain
// integers. The output depends on the view alone.
func WriteCSV(w io.Writer, view domain.FilteredView) error {
	columns := exportColumns(view)

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, l := range view.Listings {
		if err := writer.Write(l.Record(columns)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVBytes renders view with WriteCSV.
func CSVBytes(view domain.FilteredView) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportColumns(view domain.FilteredView) []string {
	if len(view.Columns) == 0 {
		return domain.RequiredColumns
	}
	return view.Columns
}

// CSVWriter saves exports under the configured exports directory.
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures file exports
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteFile exports view to filePath and returns the resolved location.
// Relative paths land in the exports directory.
func (w *CSVWriter) WriteFile(filePath string, view domain.FilteredView, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", view.Len()))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if err := WriteCSV(file, view); err != nil {
		return "", err
	}
	return fullPath, file.Close()
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetExportPath(filePath)
}
