package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"bankscli/internal/config"
	"bankscli/internal/dataprocessing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
	bom   bool
}

// NewCSVWriter creates a new CSV writer instance.
// Relative paths are resolved against paths; a nil paths keeps them relative
// to the working directory.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WithBOM makes the writer start every file with a UTF-8 byte order mark,
// which Excel needs to detect the encoding
func (w *CSVWriter) WithBOM(on bool) *CSVWriter {
	w.bom = on
	return w
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// SaveTable writes the table as header plus one record per row,
// replacing any existing file
func (w *CSVWriter) SaveTable(table *dataprocessing.Table, filePath string) error {
	records := make([][]string, table.NumRows())
	for i := range records {
		records[i] = formatRow(table.Row(i))
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   table.ColumnNames(),
		Records:   records,
		BOMPrefix: w.bom,
	})
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return file.Close()
}

// ReadTable reads a CSV file written by SaveTable
func (w *CSVWriter) ReadTable(filePath string) (*dataprocessing.Table, error) {
	data, err := os.ReadFile(w.resolvePath(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseTable(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

// ParseTable reads a header row and records into a table laid out as
// [name, metric...]: the first column is text, every later column must be
// numeric.
func ParseTable(r io.Reader) (*dataprocessing.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header, rows := records[0], records[1:]
	columns := make([]*dataprocessing.Column, len(header))
	for j, name := range header {
		if j == 0 {
			names := make([]string, len(rows))
			for i, row := range rows {
				names[i] = row[j]
			}
			columns[j] = dataprocessing.NewStringColumn(name, names)
			continue
		}

		values := make([]float64, len(rows))
		for i, row := range rows {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %q is not numeric", i+1, name, row[j])
			}
			values[i] = v
		}
		columns[j] = dataprocessing.NewFloatColumn(name, values)
	}

	return dataprocessing.NewTable(columns...)
}

// resolvePath resolves a relative path against the configured base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if w.paths == nil {
		return filePath
	}
	return w.paths.Resolve(filePath)
}
