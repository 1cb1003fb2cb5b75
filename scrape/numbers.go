package scrape

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numberPattern matches the first number in a cell, tolerating thousands
// separators, a sign, and currency or percent decoration around it.
var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// parseNumber extracts the first numeric value from raw cell text.
// Returns nil for blank or non-numeric cells.
func parseNumber(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// equalFold compares labels ignoring case and surrounding space.
func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
