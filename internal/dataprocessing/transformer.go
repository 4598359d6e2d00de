package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"bankscli/internal/config"
	apperrors "bankscli/internal/errors"
)

// ColumnNaming names the output schema
type ColumnNaming struct {
	NameColumn      string
	BaseColumn      string
	DerivedTemplate string
}

// ColumnNamingFromConfig reads the naming from the pipeline configuration
func ColumnNamingFromConfig(cfg config.PipelineConfig) ColumnNaming {
	return ColumnNaming{
		NameColumn:      cfg.NameColumn,
		BaseColumn:      cfg.BaseColumn,
		DerivedTemplate: cfg.DerivedColumnTemplate,
	}
}

// Derived returns the column name for a currency code
func (n ColumnNaming) Derived(code string) string {
	return strings.ReplaceAll(n.DerivedTemplate, config.CurrencyPlaceholder, code)
}

// Schema returns the full output column list for the given currencies
func (n ColumnNaming) Schema(currencies []string) []string {
	schema := []string{n.NameColumn, n.BaseColumn}
	for _, code := range currencies {
		schema = append(schema, n.Derived(code))
	}
	return schema
}

// Transformer converts the extracted metric to numbers and derives
// one converted column per currency
type Transformer struct {
	naming ColumnNaming
	logger *slog.Logger
}

// NewTransformer creates a transformer
func NewTransformer(naming ColumnNaming, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		naming: naming,
		logger: logger.With(slog.String("component", "transformer")),
	}
}

// Transform returns a new table [name, base, derived...] with one derived
// column per currency, in order. The input table is not modified.
// Any unparsable metric or unknown currency fails the whole transform.
func (t *Transformer) Transform(table *Table, rates RateMap, currencies []string) (*Table, error) {
	nameCol, ok := table.Column(t.naming.NameColumn)
	if !ok {
		return nil, fmt.Errorf("transform: column %q not found", t.naming.NameColumn)
	}
	baseCol, ok := table.Column(t.naming.BaseColumn)
	if !ok {
		return nil, fmt.Errorf("transform: column %q not found", t.naming.BaseColumn)
	}

	base, err := t.coerceBase(nameCol, baseCol)
	if err != nil {
		return nil, err
	}

	out, err := NewTable(nameCol.clone(), NewFloatColumn(t.naming.BaseColumn, base))
	if err != nil {
		return nil, err
	}

	for _, code := range currencies {
		rate, err := rates.Lookup(code)
		if err != nil {
			return nil, err
		}

		derived := make([]float64, len(base))
		for i, v := range base {
			derived[i] = RoundHalfEven(v*rate, 2)
		}
		if err := out.AddColumn(NewFloatColumn(t.naming.Derived(code), derived)); err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
	}

	t.logger.Debug("transformed table",
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumColumns()))

	return out, nil
}

func (t *Transformer) coerceBase(names, base *Column) ([]float64, error) {
	if base.Kind == KindFloat {
		return append([]float64(nil), base.Floats...), nil
	}

	values := make([]float64, base.Len())
	for i, raw := range base.Strings {
		v, err := ParseMetric(raw)
		if err != nil {
			return nil, apperrors.NewNumericCoercionError(i+1, fmt.Sprint(names.Value(i)), raw, err)
		}
		values[i] = v
	}
	return values, nil
}

// decimalPattern accepts plain base-10 numbers only. strconv.ParseFloat on
// its own also takes hex floats, exponents, underscores and Inf/NaN.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseMetric strips the trailing artifact and parses the remaining text
// as a finite decimal number
func ParseMetric(raw string) (float64, error) {
	text := strings.TrimSpace(StripArtifact(raw))
	if !decimalPattern.MatchString(text) {
		return 0, fmt.Errorf("value %q is not a decimal number", raw)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("value %q is not finite", raw)
	}
	return v, nil
}

// StripArtifact removes a single trailing rune that cannot be part of a
// number. Values ending in a digit or '.' are returned unchanged.
func StripArtifact(raw string) string {
	last, size := utf8.DecodeLastRuneInString(raw)
	if size == 0 || unicode.IsDigit(last) || last == '.' {
		return raw
	}
	return raw[:len(raw)-size]
}

// RoundHalfEven rounds v to the given number of decimal places,
// resolving ties to the even neighbour
func RoundHalfEven(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.RoundToEven(v*scale) / scale
}
