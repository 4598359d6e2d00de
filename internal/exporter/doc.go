// Package exporter writes the transformed ranking table to flat files.
//
// CSVWriter produces a header row followed by one record per table row, using
// standard CSV quoting and the shortest decimal form of each float so the file
// reads back to identical values. WorkbookWriter produces the same table as an
// xlsx workbook with a bold header row.
//
// Both writers truncate the destination and create missing parent directories.
//
//	w := exporter.NewCSVWriter(paths)
//	if err := w.SaveTable(table, "Largest_banks_data.csv"); err != nil {
//	    return err
//	}
package exporter
