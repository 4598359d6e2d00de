package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"bankscli/internal/config"
	"bankscli/internal/infrastructure"
	"bankscli/internal/storage"
	api "bankscli/pkg/contracts/api/v1"
)

// ReportService answers ranking queries against the persisted table
type ReportService struct {
	store        *storage.Store
	table        string
	nameColumn   string
	metricColumn string
	defaultMin   float64
	metrics      *infrastructure.PipelineMetrics
	group        singleflight.Group
	logger       *slog.Logger
}

// NewReportService creates a report service reading the table named in cfg.
// metrics may be nil.
func NewReportService(store *storage.Store, cfg *config.Config, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		store:        store,
		table:        cfg.Store.Table,
		nameColumn:   cfg.Pipeline.NameColumn,
		metricColumn: cfg.Pipeline.BaseColumn,
		defaultMin:   cfg.Pipeline.QueryThreshold,
		metrics:      metrics,
		logger:       logger.With(slog.String("service", "report")),
	}
}

// DefaultMinMetric is the threshold used when a request does not set one
func (s *ReportService) DefaultMinMetric() float64 {
	return s.defaultMin
}

// Banks returns the banks whose base metric is at least req.MinMetric.
// Identical concurrent requests share one database query.
func (s *ReportService) Banks(ctx context.Context, req api.BanksRequest) (*api.BanksResponse, error) {
	if s.store == nil {
		return nil, ErrStoreClosed
	}

	// The shared query outlives any single caller; each caller only waits on
	// its own context.
	key := fmt.Sprintf("%g|%d", req.MinMetric, req.Limit)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.query(context.WithoutCancel(ctx), req)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		s.logger.DebugContext(ctx, "ranking query result shared", slog.String("key", key))
	}

	rs := res.Val.(*storage.ResultSet)
	return &api.BanksResponse{
		Table:     s.table,
		MinMetric: req.MinMetric,
		Columns:   rs.Columns,
		Rows:      rs.Rows,
		Count:     len(rs.Rows),
	}, nil
}

func (s *ReportService) query(ctx context.Context, req api.BanksRequest) (*storage.ResultSet, error) {
	exists, err := s.store.TableExists(ctx, s.table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTableNotFound
	}

	stmt, args, err := storage.RankingQuery{
		Table:        s.table,
		NameColumn:   s.nameColumn,
		MetricColumn: s.metricColumn,
		MinMetric:    req.MinMetric,
		Limit:        req.Limit,
	}.Build()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rs, err := s.store.Query(ctx, stmt, args...)
	s.metrics.RecordQuery(ctx, time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "ranking query failed", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.DebugContext(ctx, "ranking query served",
		slog.Float64("min_metric", req.MinMetric),
		slog.Int("rows", len(rs.Rows)),
		slog.Duration("duration", time.Since(start)))
	return rs, nil
}
