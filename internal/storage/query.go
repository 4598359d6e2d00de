package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	apperrors "bankscli/internal/errors"
)

// ResultSet holds the columns and rows returned by a query
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query runs a read statement with bound arguments on the read-only handle.
// The keyword check rejects obvious writes early; the handle rejects the rest.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	if !isReadQuery(query) {
		return nil, apperrors.NewAppValidationError("only read statements are allowed")
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewStorageError("read columns", err)
	}

	result := &ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.NewStorageError("scan row", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate rows", err)
	}

	return result, nil
}

// isReadQuery detects if a query is a read (SELECT, WITH, EXPLAIN, PRAGMA)
func isReadQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "EXPLAIN", "PRAGMA"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// RankingQuery selects entities whose metric is at least MinMetric.
// A zero Limit means no limit.
type RankingQuery struct {
	Table        string
	NameColumn   string
	MetricColumn string
	MinMetric    float64
	Limit        int
}

// Build returns the statement and its arguments. Identifiers are validated
// and quoted; values are bound.
func (q RankingQuery) Build() (string, []any, error) {
	table, err := QuoteIdentifier(q.Table)
	if err != nil {
		return "", nil, err
	}
	name, err := QuoteIdentifier(q.NameColumn)
	if err != nil {
		return "", nil, err
	}
	metric, err := QuoteIdentifier(q.MetricColumn)
	if err != nil {
		return "", nil, err
	}

	stmt := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s >= ?", name, metric, table, metric)
	args := []any{q.MinMetric}
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return stmt, args, nil
}

// ThresholdQuery builds the diagnostic query over the stored table
func ThresholdQuery(table, nameCol, metricCol string, min float64) (string, []any, error) {
	return RankingQuery{
		Table:        table,
		NameColumn:   nameCol,
		MetricColumn: metricCol,
		MinMetric:    min,
	}.Build()
}

// Print renders the result as an aligned text table
func (r *ResultSet) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
