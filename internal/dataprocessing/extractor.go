package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bankscli/internal/config"
	apperrors "bankscli/internal/errors"
)

// ExtractionRule locates the ranking inside an HTML document.
// Cell and anchor indexes are zero-based.
type ExtractionRule struct {
	TableSelector   string
	RowSelector     string
	CellSelector    string
	NameCellIndex   int
	NameAnchorIndex int
	MetricCellIndex int
}

// DefaultExtractionRule matches the layout of the published ranking:
// the name is the second link of the second cell (the first is a flag icon)
// and the metric is the third cell.
func DefaultExtractionRule() ExtractionRule {
	return ExtractionRuleFromConfig(config.Default().Extraction)
}

// ExtractionRuleFromConfig converts the configured rule
func ExtractionRuleFromConfig(cfg config.ExtractionConfig) ExtractionRule {
	return ExtractionRule{
		TableSelector:   cfg.TableSelector,
		RowSelector:     cfg.RowSelector,
		CellSelector:    cfg.CellSelector,
		NameCellIndex:   cfg.NameCellIndex,
		NameAnchorIndex: cfg.NameAnchorIndex,
		MetricCellIndex: cfg.MetricCellIndex,
	}
}

// Extractor reads the (name, raw metric) pairs out of a document
type Extractor struct {
	rule       ExtractionRule
	nameColumn string
	baseColumn string
	logger     *slog.Logger
}

// NewExtractor creates an extractor producing the columns [nameColumn, baseColumn]
func NewExtractor(rule ExtractionRule, nameColumn, baseColumn string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		rule:       rule,
		nameColumn: nameColumn,
		baseColumn: baseColumn,
		logger:     logger.With(slog.String("component", "extractor")),
	}
}

// Extract parses an HTML document and extracts the ranking table
func (e *Extractor) Extract(doc io.Reader) (*Table, error) {
	parsed, err := goquery.NewDocumentFromReader(doc)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return e.ExtractDocument(parsed)
}

// ExtractDocument extracts the ranking from an already parsed document.
// Rows keep document order. Rows without data cells are skipped; any other
// row that does not fit the rule fails the whole extraction.
func (e *Extractor) ExtractDocument(doc *goquery.Document) (*Table, error) {
	table := doc.Find(e.rule.TableSelector).First()
	if table.Length() == 0 {
		return nil, apperrors.NewNoTableFoundError(e.rule.TableSelector)
	}

	var (
		names   []string
		metrics []string
		rowErr  error
		dataRow int
	)

	table.Find(e.rule.RowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find(e.rule.CellSelector)
		if cells.Length() == 0 {
			return true
		}
		dataRow++

		name, err := e.extractName(cells, dataRow)
		if err != nil {
			rowErr = err
			return false
		}
		metric, err := e.extractMetric(cells, dataRow)
		if err != nil {
			rowErr = err
			return false
		}

		names = append(names, name)
		metrics = append(metrics, metric)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	e.logger.Debug("extracted rows", slog.Int("rows", len(names)))

	return NewTable(
		NewStringColumn(e.nameColumn, names),
		NewStringColumn(e.baseColumn, metrics),
	)
}

func (e *Extractor) extractName(cells *goquery.Selection, row int) (string, error) {
	if cells.Length() <= e.rule.NameCellIndex {
		return "", apperrors.NewMalformedRowError(row,
			fmt.Sprintf("name cell %d missing, row has %d cells", e.rule.NameCellIndex, cells.Length()))
	}

	anchors := cells.Eq(e.rule.NameCellIndex).Find("a")
	if anchors.Length() <= e.rule.NameAnchorIndex {
		return "", apperrors.NewMalformedRowError(row,
			fmt.Sprintf("name anchor %d missing, cell has %d anchors", e.rule.NameAnchorIndex, anchors.Length()))
	}

	name := strings.TrimSpace(anchors.Eq(e.rule.NameAnchorIndex).Text())
	if name == "" {
		return "", apperrors.NewMalformedRowError(row, "name anchor is empty")
	}
	return name, nil
}

// extractMetric returns the first content node of the metric cell verbatim,
// including any trailing artifact.
func (e *Extractor) extractMetric(cells *goquery.Selection, row int) (string, error) {
	if cells.Length() <= e.rule.MetricCellIndex {
		return "", apperrors.NewMalformedRowError(row,
			fmt.Sprintf("metric cell %d missing, row has %d cells", e.rule.MetricCellIndex, cells.Length()))
	}

	contents := cells.Eq(e.rule.MetricCellIndex).Contents()
	if contents.Length() == 0 {
		return "", apperrors.NewMalformedRowError(row, "metric cell is empty")
	}

	raw := contents.First().Text()
	if strings.TrimSpace(raw) == "" {
		return "", apperrors.NewMalformedRowError(row, "metric cell is empty")
	}
	return raw, nil
}
