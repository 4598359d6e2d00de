package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bankscli/internal/config"
	"bankscli/internal/dataprocessing"
)

// maxSheetNameLength is the Excel limit on sheet names
const maxSheetNameLength = 31

// WorkbookWriter exports tables as single-sheet xlsx workbooks
type WorkbookWriter struct {
	paths     *config.Paths
	sheetName string
}

// NewWorkbookWriter creates a writer that names the sheet after sheetName
func NewWorkbookWriter(paths *config.Paths, sheetName string) *WorkbookWriter {
	if len(sheetName) > maxSheetNameLength {
		sheetName = sheetName[:maxSheetNameLength]
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &WorkbookWriter{paths: paths, sheetName: sheetName}
}

// SaveTable writes the table with a bold header row, replacing any existing file
func (w *WorkbookWriter) SaveTable(table *dataprocessing.Table, filePath string) error {
	fullPath := filePath
	if w.paths != nil {
		fullPath = w.paths.Resolve(filePath)
	}

	slog.Info("Writing workbook",
		slog.String("full_path", fullPath),
		slog.String("sheet", w.sheetName),
		slog.Int("record_count", table.NumRows()))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", w.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, table.NumColumns())
	for i, name := range table.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if table.NumColumns() > 0 {
		last, err := excelize.CoordinatesToCellName(table.NumColumns(), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(w.sheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i := 0; i < table.NumRows(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := table.Row(i)
		if err := f.SetSheetRow(w.sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ReadWorkbookRows returns the raw cell text of the first sheet
func ReadWorkbookRows(filePath string) (string, [][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return sheets[0], rows, nil
}
