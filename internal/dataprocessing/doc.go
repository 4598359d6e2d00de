// Package dataprocessing turns the ranking document into the converted
// bank table.
//
// # Architecture
//
// The package is organized into three components:
//
//  1. Extractor: reads the first matching HTML table with goquery and
//     returns [name, raw metric] rows in document order
//  2. RateTable: loads the Currency,Rate CSV into a RateMap
//  3. Transformer: parses the raw metric into the base column and derives
//     one rounded column per requested currency
//
// Table is the column-ordered result shared by every step and sink.
//
// # Usage
//
//	extractor := dataprocessing.NewExtractor(dataprocessing.DefaultExtractionRule(),
//		"Name", "MC_USD_Billion", logger)
//	raw, err := extractor.Extract(doc)
//	if err != nil {
//		return err
//	}
//	rates, err := dataprocessing.LoadRates("exchange_rate.csv")
//	if err != nil {
//		return err
//	}
//	naming := dataprocessing.ColumnNaming{
//		NameColumn:      "Name",
//		BaseColumn:      "MC_USD_Billion",
//		DerivedTemplate: "MC_{CODE}_Billion",
//	}
//	table, err := dataprocessing.NewTransformer(naming, logger).
//		Transform(raw, rates, []string{"GBP", "EUR", "INR"})
//
// # Error Handling
//
// Failures carry the AppError taxonomy from internal/errors, so callers can
// test them with errors.Is: ErrNoTableFound, ErrMalformedRow,
// ErrNumericCoercion, ErrUnknownCurrency, ErrRateSourceUnavailable and
// ErrMalformedRateSource. Row numbers in messages are 1-based data rows.
package dataprocessing
