package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths is the resolved set of file system locations the application uses.
// Every entry is absolute.
type Paths struct {
	BaseDir     string
	DatasetFile string
	ExportsDir  string
	LogsDir     string
}

// GetPaths resolves the configured locations against the base directory.
// An empty base directory means the current working directory.
func (c *Config) GetPaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:     base,
		DatasetFile: resolve(base, c.Dataset.Path),
		ExportsDir:  resolve(base, c.Paths.ExportsDir),
		LogsDir:     resolve(base, c.Paths.LogsDir),
	}, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// EnsureDirectories creates the writable directories if they don't exist.
// The dataset directory is never created: a missing dataset is a load error.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetExportPath returns the path for an exported file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved locations for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("paths",
			slog.String("base", p.BaseDir),
			slog.String("dataset", p.DatasetFile),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Bool("dataset_exists", FileExists(p.DatasetFile)))
}
