package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadObserver is notified after every read of the backing file.
type LoadObserver func(ctx context.Context, cat *Catalog, elapsed time.Duration, err error)

// fileStamp identifies one version of the backing file.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Loader owns the catalog for the lifetime of the process. The first Load
// reads the dataset; later calls return the same handle until the file's size
// or modification time changes, at which point a fresh snapshot is built.
// Previously returned catalogs are never mutated.
type Loader struct {
	path     string
	logger   *slog.Logger
	observer LoadObserver

	mu     sync.Mutex
	cached *Catalog
	stamp  fileStamp

	group singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithObserver registers a callback run after each dataset read.
func WithObserver(fn LoadObserver) LoaderOption {
	return func(l *Loader) {
		l.observer = fn
	}
}

// NewLoader creates a loader for the CSV dataset at path.
func NewLoader(path string, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		path:   path,
		logger: logger.With(slog.String("component", "catalog_loader")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the dataset location.
func (l *Loader) Path() string {
	return l.path
}

// Cached returns the last loaded catalog without touching the file.
func (l *Loader) Cached() (*Catalog, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cached, l.cached != nil
}

// Load returns the memoized catalog, reading the dataset when nothing is
// cached yet or the file changed. Concurrent callers share a single read.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, &LoadError{Source: l.path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Source: l.path, Err: fmt.Errorf("%s is a directory", l.path)}
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	l.mu.Lock()
	if l.cached != nil && l.stamp == stamp {
		cat := l.cached
		l.mu.Unlock()
		return cat, nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan(l.path, func() (interface{}, error) {
		return l.read(ctx, stamp)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Catalog), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) read(ctx context.Context, stamp fileStamp) (*Catalog, error) {
	start := time.Now()

	l.mu.Lock()
	if l.cached != nil && l.stamp == stamp {
		cat := l.cached
		l.mu.Unlock()
		return cat, nil
	}
	l.mu.Unlock()

	cat, err := l.readFile()
	elapsed := time.Since(start)
	if l.observer != nil {
		l.observer(ctx, cat, elapsed, err)
	}
	if err != nil {
		l.logger.ErrorContext(ctx, "catalog load failed",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.mu.Lock()
	l.cached = cat
	l.stamp = stamp
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "catalog loaded",
		slog.String("path", l.path),
		slog.Int("listings", cat.Len()),
		slog.Int("columns", len(cat.columns)),
		slog.Duration("duration", elapsed))
	return cat, nil
}

func (l *Loader) readFile() (*Catalog, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, &LoadError{Source: l.path, Err: err}
	}
	defer f.Close()
	return parse(f, l.path)
}
