package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "bankscli/internal/errors"
)

// RateMap maps a currency code to its conversion rate from the base currency.
// It is not modified after loading.
type RateMap map[string]float64

// Lookup returns the rate for code
func (m RateMap) Lookup(code string) (float64, error) {
	rate, ok := m[code]
	if !ok {
		return 0, apperrors.NewUnknownCurrencyError(code)
	}
	return rate, nil
}

// LoadRates reads a Currency,Rate CSV file
func LoadRates(path string) (RateMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewRateSourceUnavailableError(path, err)
	}
	defer f.Close()

	rates, err := ParseRates(f)
	if err != nil {
		return nil, fmt.Errorf("load rates from %s: %w", path, err)
	}
	return rates, nil
}

// ParseRates reads two-column rate records after a header row.
// Later records for the same code replace earlier ones.
func ParseRates(r io.Reader) (RateMap, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewMalformedRateSourceError(1, "missing header row")
		}
		return nil, apperrors.NewMalformedRateSourceError(1, err.Error())
	}

	rates := make(RateMap)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, apperrors.NewMalformedRateSourceError(line, err.Error())
		}
		line, _ := reader.FieldPos(0)
		if len(record) < 2 {
			return nil, apperrors.NewMalformedRateSourceError(line,
				fmt.Sprintf("expected 2 fields, got %d", len(record)))
		}

		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, apperrors.NewMalformedRateSourceError(line, "empty currency code")
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, apperrors.NewMalformedRateSourceError(line,
				fmt.Sprintf("rate %q for %s is not a number", record[1], code))
		}
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return nil, apperrors.NewMalformedRateSourceError(line,
				fmt.Sprintf("rate %v for %s is not a positive finite number", rate, code))
		}
		rates[code] = rate
	}

	return rates, nil
}
