package http

import (
	"context"

	api "bankscli/pkg/contracts/api/v1"
)

// BanksService answers ranking queries
type BanksService interface {
	Banks(ctx context.Context, req api.BanksRequest) (*api.BanksResponse, error)
	DefaultMinMetric() float64
}

// HealthChecker reports service health
type HealthChecker interface {
	HealthCheck(ctx context.Context) api.HealthResponse
}
