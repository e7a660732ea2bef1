// Package core provides the ledger domain types and the small parsing and
// formatting helpers shared by every view.
//
// This file contains amount parsing and rounding. Amounts arrive from
// spreadsheets and JSON in many shapes, so parsing is forgiving and falls back
// to zero instead of failing.
package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to a signed amount.
//
// It accepts a dot decimal separator, a leading sign and surrounding spaces.
// Comma decimals and thousands separators are rejected, so "12,5" coerces to
// zero like any other non-numeric amount.
//
// Examples:
//
//	ParseAmount("-12.34") -> -12.34, nil
//	ParseAmount("12,5")   -> 0, ErrInvalidAmount
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// AmountValue coerces a loosely typed value to an amount, zero when it is
// missing or not numeric.
func AmountValue(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := ParseAmount(val.String())
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := ParseAmount(val)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
