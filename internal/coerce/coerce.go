// Package coerce parses the loosely formatted numeric and boolean cells found
// in spreadsheet exports.
package coerce

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// clean strips currency symbols, thousands separators and surrounding space.
// Accounting-style "(123.45)" is returned as "-123.45".
func clean(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ', '\u00a0', '\'':
			return -1
		}
		return r
	}, cleaned)

	if negative && cleaned != "" && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}
	return cleaned
}

// Float parses raw as a float. Empty input yields (0, true); input that is
// present but unparseable yields (0, false).
func Float(raw string) (float64, bool) {
	cleaned := clean(raw)
	if cleaned == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// Decimal parses raw as an exact decimal with the same rules as Float.
func Decimal(raw string) (decimal.Decimal, bool) {
	cleaned := clean(raw)
	if cleaned == "" {
		return decimal.Zero, true
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// Truthy reports whether raw matches one of tokens, ignoring case and
// surrounding space.
func Truthy(raw string, tokens []string) bool {
	value := strings.TrimSpace(raw)
	if value == "" {
		return false
	}
	for _, token := range tokens {
		if strings.EqualFold(value, strings.TrimSpace(token)) {
			return true
		}
	}
	return false
}
