package http

import (
	"context"

	"carviz/internal/services"
	"carviz/pkg/contracts/domain"
)

// DashboardServiceInterface is what the dashboard handler needs from
// *services.DashboardService.
type DashboardServiceInterface interface {
	Options(ctx context.Context, spec domain.FilterSpec) (*services.DashboardOptions, error)
	View(ctx context.Context, source string, req services.ViewRequest) (*services.DashboardView, error)
	Export(ctx context.Context, spec domain.FilterSpec, format string) (*services.Export, error)
}

// HealthServiceInterface is what the health and metrics handlers need from
// *services.HealthService.
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
	SystemStats(ctx context.Context) services.SystemStats
	GetDetailedHealth(ctx context.Context) map[string]interface{}
}

// StructValidator validates decoded request bodies.
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
