package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bankscli/internal/errors"
)

func newTestExtractor(rule ExtractionRule) *Extractor {
	return NewExtractor(rule, "Name", "MC_USD_Billion", nil)
}

func TestExtractor_Extract_FixtureDocument(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "largest_banks.html"))
	require.NoError(t, err)
	defer f.Close()

	table, err := newTestExtractor(DefaultExtractionRule()).Extract(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "MC_USD_Billion"}, table.ColumnNames())
	require.Equal(t, 3, table.NumRows())

	names, _ := table.Column("Name")
	assert.Equal(t, []string{
		"JPMorgan Chase",
		"Bank of America",
		"Industrial and Commercial Bank of China",
	}, names.Strings)

	metrics, _ := table.Column("MC_USD_Billion")
	assert.Equal(t, []string{"432.92\n", "231.52\n", "194.56\n"}, metrics.Strings)
}

func TestExtractor_Extract_PreservesOrder(t *testing.T) {
	doc := `<table><tbody>
<tr><td>1</td><td><a>f</a><a>Zeta Bank</a></td><td>10.00
</td></tr>
<tr><td>2</td><td><a>f</a><a>Alpha Bank</a></td><td>300.00
</td></tr>
<tr><td>3</td><td><a>f</a><a>Mid Bank</a></td><td>50.00
</td></tr>
</tbody></table>`

	extractor := newTestExtractor(DefaultExtractionRule())
	first, err := extractor.Extract(strings.NewReader(doc))
	require.NoError(t, err)
	second, err := extractor.Extract(strings.NewReader(doc))
	require.NoError(t, err)

	names, _ := first.Column("Name")
	assert.Equal(t, []string{"Zeta Bank", "Alpha Bank", "Mid Bank"}, names.Strings)
	assert.Equal(t, first, second)
}

func TestExtractor_Extract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no table",
			doc:     `<html><body><p>nothing here</p></body></html>`,
			wantErr: apperrors.ErrNoTableFound,
		},
		{
			name:    "single anchor",
			doc:     `<table><tr><td>1</td><td><a>Bank A</a></td><td>100.00</td></tr></table>`,
			wantErr: apperrors.ErrMalformedRow,
			wantMsg: "row 1",
		},
		{
			name:    "missing metric cell",
			doc:     `<table><tr><td>1</td><td><a>f</a><a>Bank A</a></td></tr></table>`,
			wantErr: apperrors.ErrMalformedRow,
			wantMsg: "metric cell 2 missing",
		},
		{
			name: "empty metric cell in second row",
			doc: `<table>
<tr><td>1</td><td><a>f</a><a>Bank A</a></td><td>100.00</td></tr>
<tr><td>2</td><td><a>f</a><a>Bank B</a></td><td></td></tr>
</table>`,
			wantErr: apperrors.ErrMalformedRow,
			wantMsg: "row 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestExtractor(DefaultExtractionRule()).Extract(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExtractor_Extract_SkipsHeaderRows(t *testing.T) {
	doc := `<table>
<tr><th>Rank</th><th>Name</th><th>Cap</th></tr>
<tr><td>1</td><td><a>f</a><a>Bank A</a></td><td>100.00
</td></tr>
<tr></tr>
</table>`

	table, err := newTestExtractor(DefaultExtractionRule()).Extract(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, table.NumRows())
}

func TestExtractor_Extract_NoDataRows(t *testing.T) {
	table, err := newTestExtractor(DefaultExtractionRule()).
		Extract(strings.NewReader(`<table><tr><th>Rank</th></tr></table>`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, 2, table.NumColumns())
}

func TestExtractor_Extract_CustomRule(t *testing.T) {
	doc := `<table id="ranking"><tbody>
<tr><td><a>Bank A</a></td><td><b>12.5</b> approx</td></tr>
</tbody></table>`

	rule := ExtractionRule{
		TableSelector:   "table#ranking",
		RowSelector:     "tr",
		CellSelector:    "td",
		NameCellIndex:   0,
		NameAnchorIndex: 0,
		MetricCellIndex: 1,
	}

	table, err := newTestExtractor(rule).Extract(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 1, table.NumRows())
	assert.Equal(t, []any{"Bank A", "12.5"}, table.Row(0))
}

func TestDefaultExtractionRule(t *testing.T) {
	rule := DefaultExtractionRule()
	assert.Equal(t, "tbody", rule.TableSelector)
	assert.Equal(t, 1, rule.NameCellIndex)
	assert.Equal(t, 1, rule.NameAnchorIndex)
	assert.Equal(t, 2, rule.MetricCellIndex)
}
