package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"carviz/internal/config"
)

// SessionCounter reports the number of open live sessions.
type SessionCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	source    CatalogSource
	sessions  SessionCounter
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	CatalogRows      int     `json:"catalog_rows"`
	CatalogLoadedAt  string  `json:"catalog_loaded_at,omitempty"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service. sessions and paths may be nil.
func NewHealthService(version string, source CatalogSource, sessions SessionCounter, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version))

	return &HealthService{
		version:   version,
		source:    source,
		sessions:  sessions,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once the dataset loads.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset":   hs.checkDatasetHealth(ctx),
			"websocket": hs.checkWebSocketHealth(),
			"exports":   hs.checkExportsHealth(),
		},
	}

	for _, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.sessions != nil {
		stats.WebSocketClients = hs.sessions.ClientCount()
	}
	if hs.source != nil {
		if cat, err := hs.source.Load(ctx); err == nil {
			stats.CatalogRows = cat.Len()
			stats.CatalogLoadedAt = cat.LoadedAt().Format(time.RFC3339)
		}
	}
	return stats
}

func (hs *HealthService) checkDatasetHealth(ctx context.Context) ServiceHealth {
	if hs.source == nil {
		return ServiceHealth{Status: "not_ready", Message: ErrNoCatalogSource.Error()}
	}
	cat, err := hs.source.Load(ctx)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Dataset error: %v", err),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d listings loaded", cat.Len()),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket sessions disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d open sessions", hs.sessions.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkExportsHealth only verifies the exports directory when one is configured.
func (hs *HealthService) checkExportsHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "ready", Message: "Exports are streamed"}
	}
	info, err := os.Stat(hs.paths.ExportsDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Exports directory not found: %s", hs.paths.ExportsDir),
		}
	}
	return ServiceHealth{Status: "ready", Message: "Exports directory is available"}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
