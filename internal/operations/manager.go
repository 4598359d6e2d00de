package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"bankscli/internal/config"
	"bankscli/internal/dataprocessing"
	"bankscli/internal/exporter"
	"bankscli/internal/infrastructure"
	"bankscli/internal/scraper"
	"bankscli/internal/storage"
)

// Pipeline runs the ETL steps in order against one configuration
type Pipeline struct {
	cfg    *config.Config
	steps  []Step
	audit  *AuditLog
	tracer *RunTracer
	logger *slog.Logger
}

// Option customizes a Pipeline
type Option func(*pipelineOptions)

type pipelineOptions struct {
	logger    *slog.Logger
	fetcher   scraper.Fetcher
	audit     *AuditLog
	out       io.Writer
	providers *infrastructure.OTelProviders
	paths     *config.Paths
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *pipelineOptions) { o.logger = logger }
}

// WithFetcher replaces the document source built from the configuration
func WithFetcher(f scraper.Fetcher) Option {
	return func(o *pipelineOptions) { o.fetcher = f }
}

// WithAuditLog replaces the audit log built from the configuration
func WithAuditLog(a *AuditLog) Option {
	return func(o *pipelineOptions) { o.audit = a }
}

// WithOutput sets where the query result is printed
func WithOutput(w io.Writer) Option {
	return func(o *pipelineOptions) { o.out = w }
}

// WithTelemetry enables tracing and metrics
func WithTelemetry(providers *infrastructure.OTelProviders) Option {
	return func(o *pipelineOptions) { o.providers = providers }
}

// WithPaths resolves relative output paths against paths
func WithPaths(paths *config.Paths) Option {
	return func(o *pipelineOptions) { o.paths = paths }
}

// NewPipeline builds the step sequence described by cfg
func NewPipeline(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, NewFatalError("configuration is required", nil)
	}

	o := &pipelineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = infrastructure.GetLogger()
	}
	logger := infrastructure.WithComponent(o.logger, "pipeline")

	if o.fetcher == nil {
		f, err := scraper.New(cfg.Source, o.logger)
		if err != nil {
			return nil, err
		}
		o.fetcher = f
	}
	if o.audit == nil {
		o.audit = NewAuditLog(cfg.Pipeline.AuditLogPath, o.logger)
	}

	tracer, err := NewRunTracer(o.providers)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:    cfg,
		steps:  buildSteps(cfg, o),
		audit:  o.audit,
		tracer: tracer,
		logger: logger,
	}, nil
}

func buildSteps(cfg *config.Config, o *pipelineOptions) []Step {
	naming := dataprocessing.ColumnNamingFromConfig(cfg.Pipeline)

	steps := []Step{
		NewExtractStep(o.fetcher, dataprocessing.NewExtractor(
			dataprocessing.ExtractionRuleFromConfig(cfg.Extraction),
			naming.NameColumn, naming.BaseColumn, o.logger)),
		NewTransformStep(cfg.Pipeline.RatesPath, cfg.Pipeline.Currencies,
			dataprocessing.NewTransformer(naming, o.logger)),
		NewLoadCSVStep(exporter.NewCSVWriter(o.paths).WithBOM(cfg.Output.WriteBOM), cfg.Output.CSVPath),
	}
	if cfg.Output.WorkbookPath != "" {
		steps = append(steps, NewLoadWorkbookStep(
			exporter.NewWorkbookWriter(o.paths, cfg.Store.Table), cfg.Output.WorkbookPath))
	}

	return append(steps,
		NewConnectStep(cfg.Store.Path, o.logger),
		NewLoadDBStep(cfg.Store.Table),
		NewQueryStep(storage.RankingQuery{
			Table:        cfg.Store.Table,
			NameColumn:   naming.NameColumn,
			MetricColumn: naming.BaseColumn,
			MinMetric:    cfg.Pipeline.QueryThreshold,
		}, o.out),
	)
}

// Steps returns the step sequence
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run executes every step in order and stops at the first failure.
// The store opened during the run is closed on every exit path.
// The returned report is never nil.
func (p *Pipeline) Run(ctx context.Context) (report *RunReport, err error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	report = newRunReport(runID, p.steps)
	state := &RunState{RunID: runID}

	ctx, span := p.tracer.StartRun(ctx, runID)
	defer func() {
		p.tracer.EndRun(ctx, span, report, err)
	}()

	defer func() {
		if state.Store == nil {
			return
		}
		if closeErr := state.Store.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "failed to close store", slog.String("error", closeErr.Error()))
			if err == nil {
				err = NewFatalError("close store", closeErr)
				report.finish(RunStatusFailed, err)
			}
		}
	}()

	if err := p.audit.Log(MessagePreliminaries); err != nil {
		report.finish(RunStatusFailed, err)
		return report, NewFatalError("write audit log", err)
	}

	report.start()
	p.logger.InfoContext(ctx, "pipeline started", slog.Int("steps", len(p.steps)))

	for i, step := range p.steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			opErr := NewCancellationError(step.ID(), ctxErr)
			p.auditFailure(ctx, step.ID(), ctxErr)
			report.finish(RunStatusCancelled, opErr)
			p.collect(report, state)
			return report, opErr
		}

		if stepErr := p.runStep(ctx, state, step, report.Steps[i]); stepErr != nil {
			opErr := wrapStepError(step.ID(), stepErr)
			p.auditFailure(ctx, step.ID(), stepErr)
			report.finish(RunStatusFailed, opErr)
			p.collect(report, state)
			return report, opErr
		}

		if auditErr := p.audit.Log(step.CompletionMessage()); auditErr != nil {
			report.finish(RunStatusFailed, auditErr)
			return report, NewFatalError("write audit log", auditErr)
		}
	}

	p.collect(report, state)
	report.finish(RunStatusCompleted, nil)
	p.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("rows_extracted", report.RowsExtracted),
		slog.Int("rows_stored", report.RowsStored),
		slog.Duration("duration", report.Duration()))

	return report, nil
}

func (p *Pipeline) runStep(ctx context.Context, state *RunState, step Step, stepState *StepState) error {
	stepCtx, span := p.tracer.StartStep(ctx, state.RunID, step.ID())

	p.logger.InfoContext(stepCtx, "executing step",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	stepState.Start()
	err := step.Execute(stepCtx, state)

	rows := 0
	if rr, ok := step.(rowReporter); ok && err == nil {
		rows = rr.RowsProcessed(state)
	}
	stepState.Rows = rows

	if err != nil {
		stepState.Fail(err)
	} else {
		stepState.Complete()
	}
	p.tracer.EndStep(stepCtx, span, step.ID(), stepState.Duration(), rows, err)

	if err != nil {
		p.logger.ErrorContext(stepCtx, "step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.InfoContext(stepCtx, "step completed",
		slog.String("step", step.ID()),
		slog.Int("rows", rows),
		slog.Duration("duration", stepState.Duration()))
	return nil
}

// auditFailure records a failed step; a write error here is only logged so
// the original failure is what the caller sees
func (p *Pipeline) auditFailure(ctx context.Context, stepID string, cause error) {
	if err := p.audit.Log(fmt.Sprintf("%s failed: %v", stepID, cause)); err != nil {
		p.logger.ErrorContext(ctx, "failed to write audit log", slog.String("error", err.Error()))
	}
}

func (p *Pipeline) collect(report *RunReport, state *RunState) {
	report.RowsExtracted = numRows(state.Extracted)
	if s := report.Step(StepIDLoadDB); s != nil && s.Status == StepStatusCompleted {
		report.RowsStored = s.Rows
	}
	report.Query = state.Query
	report.Result = state.Result
}

func wrapStepError(stepID string, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = stepID
		}
		return opErr
	}
	return NewExecutionError(stepID, err)
}
