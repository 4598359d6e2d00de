package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkbookWriter_SaveTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "banks.xlsx")
	writer := NewWorkbookWriter(nil, "Largest_banks")

	require.NoError(t, writer.SaveTable(rankingTable(t), path))

	sheet, rows, err := ReadWorkbookRows(path)
	require.NoError(t, err)
	assert.Equal(t, "Largest_banks", sheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "MC_USD_Billion", "MC_GBP_Billion", "MC_EUR_Billion"}, rows[0])
	assert.Equal(t, []string{"Bank A", "100", "80", "90"}, rows[1])
	assert.Equal(t, "432.92", rows[2][1])
}

func TestNewWorkbookWriter_SheetName(t *testing.T) {
	long := NewWorkbookWriter(nil, "a_table_name_that_is_longer_than_excel_allows")
	assert.Len(t, long.sheetName, maxSheetNameLength)

	empty := NewWorkbookWriter(nil, "")
	assert.Equal(t, "Sheet1", empty.sheetName)
}
