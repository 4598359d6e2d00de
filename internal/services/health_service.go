package services

import (
	"context"
	"log/slog"
	"time"

	"bankscli/internal/storage"
	api "bankscli/pkg/contracts/api/v1"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HealthService reports whether the store and the ranking table are usable
type HealthService struct {
	version   string
	store     *storage.Store
	table     string
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a new health service
func NewHealthService(version string, store *storage.Store, table string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		store:     store,
		table:     table,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	status := api.HealthResponse{
		Status:    StatusOK,
		Version:   hs.version,
		Timestamp: time.Now().UTC(),
		Checks: map[string]string{
			"uptime": time.Since(hs.startTime).Round(time.Second).String(),
		},
	}

	if hs.store == nil {
		status.Status = StatusDegraded
		status.Checks["store"] = ErrStoreClosed.Error()
		return status
	}

	if err := hs.store.DB().PingContext(ctx); err != nil {
		hs.logger.WarnContext(ctx, "store ping failed", slog.String("error", err.Error()))
		status.Status = StatusDegraded
		status.Checks["store"] = err.Error()
		return status
	}
	status.Checks["store"] = StatusOK

	exists, err := hs.store.TableExists(ctx, hs.table)
	switch {
	case err != nil:
		status.Status = StatusDegraded
		status.Checks["table"] = err.Error()
	case !exists:
		status.Status = StatusDegraded
		status.Checks["table"] = "missing"
	default:
		status.Checks["table"] = StatusOK
	}

	return status
}
