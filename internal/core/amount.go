// Package core holds the ledger domain types shared by every backend.
//
// This file contains amount parsing. Two policies coexist on purpose:
// submitted amounts are parsed strictly and rejected unless positive,
// while amounts read back from the store are coerced so one malformed
// cell never blocks the rest of the table from loading.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-submitted amount. It accepts both dot
// (12.34) and comma (12,34) decimal separators and rejects anything
// that is not strictly positive.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("-5")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// CoerceAmount parses an amount cell read from the store. Unparsable
// values become zero instead of an error.
func CoerceAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
