package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 with the fewest digits that read back
// to the same value
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue formats a table cell for text output
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatFloat(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = formatValue(v)
	}
	return out
}
