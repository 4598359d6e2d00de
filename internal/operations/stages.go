package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"bankscli/internal/dataprocessing"
	"bankscli/internal/exporter"
	"bankscli/internal/scraper"
	"bankscli/internal/storage"
)

// Step IDs
const (
	StepIDExtract      = "extract"
	StepIDTransform    = "transform"
	StepIDLoadCSV      = "load_csv"
	StepIDLoadWorkbook = "load_workbook"
	StepIDConnect      = "connect"
	StepIDLoadDB       = "load_db"
	StepIDQuery        = "query"
)

// Audit trail messages
const (
	MessagePreliminaries = "Preliminaries complete. Initiating ETL process"
	MessageExtracted     = "Data extraction complete. Initiating Transformation process"
	MessageTransformed   = "Data transformation complete. Initiating loading process"
	MessageSavedCSV      = "Data saved to CSV file"
	MessageSavedWorkbook = "Data saved to workbook"
	MessageConnected     = "SQL Connection initiated."
	MessageLoadedDB      = "Data loaded to Database as table. Running the query"
	MessageComplete      = "Process Complete."
)

// rowReporter is implemented by steps that can tell how many rows they handled
type rowReporter interface {
	RowsProcessed(state *RunState) int
}

// ExtractStep fetches the document and extracts [name, raw metric] rows
type ExtractStep struct {
	BaseStep
	fetcher   scraper.Fetcher
	extractor *dataprocessing.Extractor
}

// NewExtractStep creates the extract step
func NewExtractStep(fetcher scraper.Fetcher, extractor *dataprocessing.Extractor) *ExtractStep {
	return &ExtractStep{
		BaseStep:  NewBaseStep(StepIDExtract, "Extract ranking", MessageExtracted),
		fetcher:   fetcher,
		extractor: extractor,
	}
}

// Execute runs the extraction
func (s *ExtractStep) Execute(ctx context.Context, state *RunState) error {
	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	defer doc.Close()

	table, err := s.extractor.Extract(doc)
	if err != nil {
		return err
	}
	state.Extracted = table
	return nil
}

// RowsProcessed returns the number of extracted rows
func (s *ExtractStep) RowsProcessed(state *RunState) int {
	return numRows(state.Extracted)
}

// TransformStep loads the rates and derives the converted columns
type TransformStep struct {
	BaseStep
	ratesPath   string
	currencies  []string
	transformer *dataprocessing.Transformer
}

// NewTransformStep creates the transform step
func NewTransformStep(ratesPath string, currencies []string, transformer *dataprocessing.Transformer) *TransformStep {
	return &TransformStep{
		BaseStep:    NewBaseStep(StepIDTransform, "Transform metrics", MessageTransformed),
		ratesPath:   ratesPath,
		currencies:  currencies,
		transformer: transformer,
	}
}

// Execute runs the transformation
func (s *TransformStep) Execute(ctx context.Context, state *RunState) error {
	if state.Extracted == nil {
		return NewValidationError(s.ID(), "no extracted table")
	}

	rates, err := dataprocessing.LoadRates(s.ratesPath)
	if err != nil {
		return err
	}
	state.Rates = rates

	table, err := s.transformer.Transform(state.Extracted, rates, s.currencies)
	if err != nil {
		return err
	}
	state.Transformed = table
	return nil
}

// RowsProcessed returns the number of transformed rows
func (s *TransformStep) RowsProcessed(state *RunState) int {
	return numRows(state.Transformed)
}

// TableSaver writes a table to a file
type TableSaver interface {
	SaveTable(table *dataprocessing.Table, path string) error
}

// FileLoadStep writes the transformed table to a flat file
type FileLoadStep struct {
	BaseStep
	saver TableSaver
	path  string
}

// NewLoadCSVStep creates the CSV load step
func NewLoadCSVStep(writer *exporter.CSVWriter, path string) *FileLoadStep {
	return &FileLoadStep{
		BaseStep: NewBaseStep(StepIDLoadCSV, "Save CSV", MessageSavedCSV),
		saver:    writer,
		path:     path,
	}
}

// NewLoadWorkbookStep creates the workbook load step
func NewLoadWorkbookStep(writer *exporter.WorkbookWriter, path string) *FileLoadStep {
	return &FileLoadStep{
		BaseStep: NewBaseStep(StepIDLoadWorkbook, "Save workbook", MessageSavedWorkbook),
		saver:    writer,
		path:     path,
	}
}

// Execute writes the file
func (s *FileLoadStep) Execute(ctx context.Context, state *RunState) error {
	if state.Transformed == nil {
		return NewValidationError(s.ID(), "no transformed table")
	}
	return s.saver.SaveTable(state.Transformed, s.path)
}

// RowsProcessed returns the number of written rows
func (s *FileLoadStep) RowsProcessed(state *RunState) int {
	return numRows(state.Transformed)
}

// ConnectStep opens the store. The pipeline closes it when the run ends.
type ConnectStep struct {
	BaseStep
	path   string
	logger *slog.Logger
}

// NewConnectStep creates the connect step
func NewConnectStep(path string, logger *slog.Logger) *ConnectStep {
	return &ConnectStep{
		BaseStep: NewBaseStep(StepIDConnect, "Open database", MessageConnected),
		path:     path,
		logger:   logger,
	}
}

// Execute opens the database
func (s *ConnectStep) Execute(ctx context.Context, state *RunState) error {
	store, err := storage.Open(ctx, s.path, s.logger)
	if err != nil {
		return err
	}
	state.Store = store
	return nil
}

// LoadDBStep replaces the store table with the transformed table
type LoadDBStep struct {
	BaseStep
	table string
}

// NewLoadDBStep creates the database load step
func NewLoadDBStep(table string) *LoadDBStep {
	return &LoadDBStep{
		BaseStep: NewBaseStep(StepIDLoadDB, "Load database table", MessageLoadedDB),
		table:    table,
	}
}

// Execute saves the table
func (s *LoadDBStep) Execute(ctx context.Context, state *RunState) error {
	if state.Store == nil {
		return NewValidationError(s.ID(), "store is not open")
	}
	if state.Transformed == nil {
		return NewValidationError(s.ID(), "no transformed table")
	}
	return state.Store.SaveTable(ctx, state.Transformed, s.table)
}

// RowsProcessed returns the number of stored rows
func (s *LoadDBStep) RowsProcessed(state *RunState) int {
	return numRows(state.Transformed)
}

// QueryStep runs the diagnostic threshold query and prints the result
type QueryStep struct {
	BaseStep
	query storage.RankingQuery
	out   io.Writer
}

// NewQueryStep creates the query step. A nil out discards the printout.
func NewQueryStep(query storage.RankingQuery, out io.Writer) *QueryStep {
	if out == nil {
		out = io.Discard
	}
	return &QueryStep{
		BaseStep: NewBaseStep(StepIDQuery, "Run query", MessageComplete),
		query:    query,
		out:      out,
	}
}

// Execute runs the query
func (s *QueryStep) Execute(ctx context.Context, state *RunState) error {
	if state.Store == nil {
		return NewValidationError(s.ID(), "store is not open")
	}

	stmt, args, err := s.query.Build()
	if err != nil {
		return err
	}
	state.Query = stmt

	result, err := state.Store.Query(ctx, stmt, args...)
	if err != nil {
		return err
	}
	state.Result = result

	fmt.Fprintf(s.out, "%s -- %v\n", stmt, args)
	return result.Print(s.out)
}

// RowsProcessed returns the number of result rows
func (s *QueryStep) RowsProcessed(state *RunState) int {
	if state.Result == nil {
		return 0
	}
	return len(state.Result.Rows)
}

func numRows(t *dataprocessing.Table) int {
	if t == nil {
		return 0
	}
	return t.NumRows()
}
