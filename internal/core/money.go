// Package core provides the ledger domain: entities, input validation,
// money parsing, search matching, pagination and summary helpers.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between decimal amounts and integer cents.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits kept for every amount.
const AmountPlaces = 2

// Amounts are decimal(10,2): at most eight integer digits.
var maxAmount = decimal.New(1, 8)

var amountPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount converts user input into a two-place decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign, and performs half-up rounding on the third decimal place.
// The sign is not checked here; see ValidationPolicy.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-3")     -> -3.00, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrMissingAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !amountPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountPlaces)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Cents returns the amount as integer cents, the storage representation.
func Cents(d decimal.Decimal) int64 {
	return d.Round(AmountPlaces).Shift(AmountPlaces).IntPart()
}

// FromCents converts stored cents back into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -AmountPlaces)
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}
