package scraper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dividend-backend/internal/finance"
)

// DividendSuffix marks the rows of a history table that describe a cash dividend.
const DividendSuffix = "Dividend"

const (
	monthColumn = iota
	dayColumn
	yearColumn
	amountColumn
	columnCount
)

// RowParser converts the text of a history table row into a dividend.
//
// Rows are expected to look like `Mar 15, 2021 1.25 Dividend`.
type RowParser struct {
	months MonthTable
	suffix string
}

// NewRowParser creates a parser that accepts rows ending in `suffix`,
// an empty suffix means DividendSuffix.
func NewRowParser(months MonthTable, suffix string) RowParser {
	if suffix == "" {
		suffix = DividendSuffix
	}
	return RowParser{months: months, suffix: suffix}
}

// IsDividendRow reports whether a row describes a dividend, other events such as splits are not.
func (p RowParser) IsDividendRow(rowText string) bool {
	return strings.HasSuffix(rowText, p.suffix)
}

// ParseRow parses the month, day, year and amount columns of an eligible row.
func (p RowParser) ParseRow(rowText string) (finance.Dividend, error) {
	tokens := strings.Fields(rowText)
	if len(tokens) < columnCount {
		return finance.Dividend{}, &RowError{
			Row: rowText,
			Err: fmt.Errorf("expected at least %d columns, got %d", columnCount, len(tokens)),
		}
	}

	month, ok := p.months.Lookup(tokens[monthColumn])
	if !ok {
		return finance.Dividend{}, &InvalidMonthError{Token: tokens[monthColumn], Row: rowText}
	}

	day, err := strconv.Atoi(strings.ReplaceAll(tokens[dayColumn], ",", ""))
	if err != nil {
		return finance.Dividend{}, &RowError{Row: rowText, Err: fmt.Errorf("parse day: %w", err)}
	}
	year, err := strconv.Atoi(tokens[yearColumn])
	if err != nil {
		return finance.Dividend{}, &RowError{Row: rowText, Err: fmt.Errorf("parse year: %w", err)}
	}

	if month < time.January {
		return finance.Dividend{}, &InvalidMonthError{Token: tokens[monthColumn], Row: rowText}
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out of range days (Feb 30 -> Mar 2), those rows are malformed
	if date.Day() != day || date.Month() != month {
		return finance.Dividend{}, &RowError{
			Row: rowText,
			Err: fmt.Errorf("day %d does not exist in %s %d", day, month, year),
		}
	}

	return finance.Dividend{
		Date:   date,
		Amount: tokens[amountColumn],
	}, nil
}
