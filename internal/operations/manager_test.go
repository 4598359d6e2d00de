package operations

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankscli/internal/config"
	apperrors "bankscli/internal/errors"
	"bankscli/internal/exporter"
	"bankscli/internal/infrastructure"
	"bankscli/internal/shared/testutil"
	"bankscli/internal/storage"
)

const twoBankDocument = `<html><body><table><tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap</th></tr>
<tr><td>1</td><td><a href="/flag">flag</a> <a href="/a">Bank A</a></td><td>100.00
</td></tr>
<tr><td>2</td><td><a href="/flag">flag</a> <a href="/b">Bank B</a></td><td>200.00
</td></tr>
</tbody></table></body></html>`

func discardLogger() *slog.Logger {
	return testutil.DiscardLogger()
}

type fetcherFunc func(ctx context.Context) (io.ReadCloser, error)

func (f fetcherFunc) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}

// testConfig writes the two-bank document and rate file into a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	docPath := filepath.Join(dir, "banks.html")
	require.NoError(t, os.WriteFile(docPath, []byte(twoBankDocument), 0644))
	ratesPath := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(ratesPath, []byte("Currency,Rate\nGBP,0.8\nEUR,0.9\n"), 0644))

	cfg := config.Default()
	cfg.Source.Kind = "file"
	cfg.Source.Location = docPath
	cfg.Pipeline.RatesPath = ratesPath
	cfg.Pipeline.Currencies = []string{"GBP", "EUR"}
	cfg.Pipeline.QueryThreshold = 150
	cfg.Pipeline.AuditLogPath = filepath.Join(dir, "code_log.txt")
	cfg.Output.CSVPath = filepath.Join(dir, "out", "Largest_banks_data.csv")
	cfg.Store.Path = filepath.Join(dir, "Banks.db")
	cfg.Store.Table = "Largest_banks"
	return cfg
}

func auditMessages(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var msgs []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		_, msg, ok := strings.Cut(line, " : ")
		require.True(t, ok, line)
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()), WithOutput(&out))
	require.NoError(t, err)

	ctx := infrastructure.WithRunID(context.Background(), "run-e2e")
	report, err := pipeline.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "run-e2e", report.RunID)
	assert.Equal(t, RunStatusCompleted, report.Status)
	assert.Equal(t, 2, report.RowsExtracted)
	assert.Equal(t, 2, report.RowsStored)
	for _, s := range report.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
	}

	assert.Equal(t, []string{
		MessagePreliminaries,
		MessageExtracted,
		MessageTransformed,
		MessageSavedCSV,
		MessageConnected,
		MessageLoadedDB,
		MessageComplete,
	}, auditMessages(t, cfg.Pipeline.AuditLogPath))

	csvData, err := os.ReadFile(cfg.Output.CSVPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion\n"+
			"Bank A,100,80,90\n"+
			"Bank B,200,160,180\n",
		string(csvData))

	require.NotNil(t, report.Result)
	assert.Equal(t, [][]any{{"Bank B", 200.0}}, report.Result.Rows)
	assert.Contains(t, out.String(), "Bank B")
	assert.NotContains(t, out.String(), "Bank A")

	store, err := storage.Open(context.Background(), cfg.Store.Path, discardLogger())
	require.NoError(t, err)
	defer store.Close()
	rs, err := store.Query(context.Background(), `SELECT * FROM "Largest_banks"`)
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"Bank A", 100.0, 80.0, 90.0},
		{"Bank B", 200.0, 160.0, 180.0},
	}, rs.Rows)
}

func TestPipeline_Run_RerunReplacesTable(t *testing.T) {
	cfg := testConfig(t)

	for i := 0; i < 2; i++ {
		pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()))
		require.NoError(t, err)
		_, err = pipeline.Run(context.Background())
		require.NoError(t, err)
	}

	store, err := storage.Open(context.Background(), cfg.Store.Path, discardLogger())
	require.NoError(t, err)
	defer store.Close()
	rs, err := store.Query(context.Background(), `SELECT COUNT(*) FROM "Largest_banks"`)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2)}}, rs.Rows)

	assert.Len(t, auditMessages(t, cfg.Pipeline.AuditLogPath), 14)
}

func TestPipeline_Run_WithWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.WorkbookPath = filepath.Join(filepath.Dir(cfg.Output.CSVPath), "banks.xlsx")

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()))
	require.NoError(t, err)

	ids := make([]string, len(pipeline.Steps()))
	for i, s := range pipeline.Steps() {
		ids[i] = s.ID()
	}
	assert.Equal(t, []string{
		StepIDExtract, StepIDTransform, StepIDLoadCSV, StepIDLoadWorkbook,
		StepIDConnect, StepIDLoadDB, StepIDQuery,
	}, ids)

	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)

	sheet, rows, err := exporter.ReadWorkbookRows(cfg.Output.WorkbookPath)
	require.NoError(t, err)
	assert.Equal(t, "Largest_banks", sheet)
	assert.Len(t, rows, 3)
	assert.Contains(t, auditMessages(t, cfg.Pipeline.AuditLogPath), MessageSavedWorkbook)
}

func TestPipeline_Run_CSVWithBOM(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.WriteBOM = true

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()), WithOutput(io.Discard))
	require.NoError(t, err)
	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)

	csvData, err := os.ReadFile(cfg.Output.CSVPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "\xEF\xBB\xBFName,MC_USD_Billion"))

	table, err := exporter.NewCSVWriter(nil).ReadTable(cfg.Output.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())
}

func TestPipeline_Run_MissingRates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.RatesPath = filepath.Join(t.TempDir(), "absent.csv")

	logger, logs := testutil.NewTestLogger(t)
	pipeline, err := NewPipeline(cfg, WithLogger(logger))
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRateSourceUnavailable)
	assert.Equal(t, StepIDTransform, FailedStep(err))

	assert.Equal(t, RunStatusFailed, report.Status)
	assert.Equal(t, StepStatusCompleted, report.Step(StepIDExtract).Status)
	assert.Equal(t, StepStatusFailed, report.Step(StepIDTransform).Status)
	assert.Equal(t, StepStatusPending, report.Step(StepIDLoadCSV).Status)
	assert.Equal(t, StepStatusPending, report.Step(StepIDQuery).Status)
	assert.Equal(t, 2, report.RowsExtracted)
	assert.Zero(t, report.RowsStored)

	msgs := auditMessages(t, cfg.Pipeline.AuditLogPath)
	require.Len(t, msgs, 3)
	assert.True(t, strings.HasPrefix(msgs[2], "transform failed: "), msgs[2])

	assert.NoFileExists(t, cfg.Output.CSVPath)
	assert.NoFileExists(t, cfg.Store.Path)

	testutil.AssertLogContains(t, logs, slog.LevelError, "step failed")
	assert.True(t, logs.ContainsAttr("step", StepIDTransform))
	assert.True(t, logs.ContainsAttr("component", "pipeline"))
}

func TestPipeline_Run_UnknownCurrency(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Currencies = []string{"GBP", "INR"}

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()))
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
}

func TestPipeline_Run_FailureAfterStoreOpen(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Table = "not a valid name"

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()))
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepIDLoadDB, FailedStep(err))
	assert.Equal(t, StepStatusCompleted, report.Step(StepIDConnect).Status)
	assert.Equal(t, StepStatusPending, report.Step(StepIDQuery).Status)

	// the store handle was released, so the file can be opened and written again
	store, err := storage.Open(context.Background(), cfg.Store.Path, discardLogger())
	require.NoError(t, err)
	defer store.Close()
	exists, err := store.TableExists(context.Background(), "not a valid name")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPipeline_Run_FetchError(t *testing.T) {
	cfg := testConfig(t)
	fetchErr := apperrors.NewNetworkError("GET http://example.invalid", errors.New("connection refused"))

	pipeline, err := NewPipeline(cfg,
		WithLogger(discardLogger()),
		WithFetcher(fetcherFunc(func(ctx context.Context) (io.ReadCloser, error) {
			return nil, fetchErr
		})))
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Equal(t, StepIDExtract, FailedStep(err))
	assert.Equal(t, StepStatusFailed, report.Steps[0].Status)
	assert.Equal(t, RunStatusFailed, report.Status)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := pipeline.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, RunStatusCancelled, report.Status)
	assert.Equal(t, StepStatusPending, report.Step(StepIDExtract).Status)
}

func TestPipeline_Run_WithTelemetry(t *testing.T) {
	cfg := testConfig(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{Enabled: false}, discardLogger())
	require.NoError(t, err)

	pipeline, err := NewPipeline(cfg, WithLogger(discardLogger()), WithTelemetry(providers))
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Less(t, report.Duration(), time.Minute)
}

func TestNewPipeline_RejectsBadSourceKind(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Kind = "ftp"

	_, err := NewPipeline(cfg, WithLogger(discardLogger()))
	assert.ErrorIs(t, err, apperrors.ErrConfig)

	_, err = NewPipeline(nil)
	assert.Error(t, err)
}
