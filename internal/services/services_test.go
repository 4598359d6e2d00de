package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"bankscli/internal/config"
	"bankscli/internal/dataprocessing"
	apperrors "bankscli/internal/errors"
	"bankscli/internal/infrastructure"
	"bankscli/internal/storage"
	api "bankscli/pkg/contracts/api/v1"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T, seed bool) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "Banks.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if seed {
		table, err := dataprocessing.NewTable(
			dataprocessing.NewStringColumn("Name", []string{"Bank A", "Bank B", "Bank C"}),
			dataprocessing.NewFloatColumn("MC_USD_Billion", []float64{100, 200, 300}),
		)
		require.NoError(t, err)
		require.NoError(t, store.SaveTable(context.Background(), table, "Largest_banks"))
	}
	return store
}

func TestReportService_Banks(t *testing.T) {
	svc := NewReportService(seededStore(t, true), config.Default(), nil, discardLogger())
	assert.Equal(t, float64(config.DefaultQueryThreshold), svc.DefaultMinMetric())

	resp, err := svc.Banks(context.Background(), api.BanksRequest{MinMetric: 150})
	require.NoError(t, err)
	assert.Equal(t, "Largest_banks", resp.Table)
	assert.Equal(t, []string{"Name", "MC_USD_Billion"}, resp.Columns)
	assert.Equal(t, [][]any{{"Bank B", 200.0}, {"Bank C", 300.0}}, resp.Rows)
	assert.Equal(t, 2, resp.Count)

	resp, err = svc.Banks(context.Background(), api.BanksRequest{MinMetric: 0, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Bank A", 100.0}}, resp.Rows)
}

func TestReportService_MissingTable(t *testing.T) {
	svc := NewReportService(seededStore(t, false), config.Default(), nil, discardLogger())

	_, err := svc.Banks(context.Background(), api.BanksRequest{MinMetric: 150})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestReportService_InvalidTableName(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Table = "bad name"
	svc := NewReportService(seededStore(t, false), cfg, nil, discardLogger())

	_, err := svc.Banks(context.Background(), api.BanksRequest{})
	assert.ErrorIs(t, err, ErrTableNotFound)

	cfg = config.Default()
	cfg.Pipeline.NameColumn = "bad name"
	svc = NewReportService(seededStore(t, true), cfg, nil, discardLogger())
	_, err = svc.Banks(context.Background(), api.BanksRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReportService_NilStore(t *testing.T) {
	svc := NewReportService(nil, config.Default(), nil, discardLogger())
	_, err := svc.Banks(context.Background(), api.BanksRequest{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestReportService_ConcurrentRequestsRecordQueries(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreatePipelineMetrics(provider.Meter("test"))
	require.NoError(t, err)

	svc := NewReportService(seededStore(t, true), config.Default(), metrics, discardLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*api.BanksResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Banks(context.Background(), api.BanksRequest{MinMetric: 150})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 2, results[i].Count)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var queries int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "report_queries_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				queries += dp.Value
			}
		}
	}
	// Coalesced callers share a query, so there is at least one and at most one per caller
	assert.GreaterOrEqual(t, queries, int64(1))
	assert.LessOrEqual(t, queries, int64(callers))
}

func TestReportService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	store := seededStore(t, true)
	svc := NewReportService(store, config.Default(), nil, discardLogger())

	// Hold the only write connection so the shared query blocks in TableExists
	conn, err := store.DB().Conn(context.Background())
	require.NoError(t, err)

	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Banks(first, api.BanksRequest{MinMetric: 150})
		firstErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	type result struct {
		resp *api.BanksResponse
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := svc.Banks(context.Background(), api.BanksRequest{MinMetric: 150})
		second <- result{resp, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	require.NoError(t, conn.Close())

	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, 2, r.resp.Count)
	case <-time.After(5 * time.Second):
		t.Fatal("live caller did not return")
	}
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", seededStore(t, true), "Largest_banks", discardLogger())
	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, StatusOK, status.Checks["store"])
	assert.Equal(t, StatusOK, status.Checks["table"])

	hs = NewHealthService("1.2.3", seededStore(t, false), "Largest_banks", discardLogger())
	status = hs.HealthCheck(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, "missing", status.Checks["table"])

	hs = NewHealthService("1.2.3", nil, "Largest_banks", discardLogger())
	assert.Equal(t, StatusDegraded, hs.HealthCheck(context.Background()).Status)
}
