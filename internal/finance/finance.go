package finance

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Company is a publicly traded company, identified by its ticker.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Dividend is a single cash payout.
//
// Amount is kept exactly as the source renders it, use ParseAmount for a numeric value.
type Dividend struct {
	Date   time.Time `json:"date"`
	Amount string    `json:"amount"`
}

// ScrapedResult is every dividend found for a company in source order.
type ScrapedResult struct {
	Company   Company    `json:"company"`
	Dividends []Dividend `json:"dividends"`
}

// ParseAmount converts an amount token into a decimal, currency symbols and
// thousands separators are dropped.
//
// ex. "$1,234.50" -> 1234.5, "0.50" -> 0.5
func ParseAmount(amount string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			return r
		}
		return -1
	}, amount)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("parse amount %q: no digits", amount)
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return value, nil
}

// TotalAmount sums the amounts of every dividend, amounts that cannot be parsed
// are returned so the caller can decide whether it matters.
func TotalAmount(dividends []Dividend) (total decimal.Decimal, unparsed []Dividend) {
	total = decimal.Zero
	for _, d := range dividends {
		value, err := ParseAmount(d.Amount)
		if err != nil {
			unparsed = append(unparsed, d)
			continue
		}
		total = total.Add(value)
	}
	return total, unparsed
}
