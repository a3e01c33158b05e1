// Package money handles amounts in integer minor currency units.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinChargeCents  int64 = 50
	MaxChargeCents  int64 = 1_000_000
	MinPayoutCents  int64 = 100
	MinInstantFee   int64 = 50
	DefaultCurrency       = "usd"

	// MaxExactCents is the largest amount a float64 carries without rounding.
	MaxExactCents int64 = 1 << 53
)

var (
	ErrNotInteger = errors.New("amount must be an integer number of cents")
	ErrBelowMin   = errors.New("amount below minimum")
	ErrAboveMax   = errors.New("amount above maximum")
)

// ChargeCents validates a client-supplied amount for a payment authorization.
func ChargeCents(v float64) (int64, error) {
	return Bounded(v, MinChargeCents, MaxChargeCents)
}

// Bounded validates that v is a whole number inside [min, max]. A max of zero
// means no caller ceiling; MaxExactCents still applies.
func Bounded(v float64, min, max int64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, ErrNotInteger
	}
	if v < float64(min) {
		return 0, fmt.Errorf("%w: %d", ErrBelowMin, min)
	}
	if max <= 0 || max > MaxExactCents {
		max = MaxExactCents
	}
	if v > float64(max) {
		return 0, fmt.Errorf("%w: %d", ErrAboveMax, max)
	}
	return int64(v), nil
}

// Currency lowercases c and falls back to the platform default.
func Currency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// ClampQuantity returns q, or 1 when q is not positive.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// InstantFee is the informational instant payout fee: 1% with a 50 cent floor.
func InstantFee(amount int64) int64 {
	fee := decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	if fee < MinInstantFee {
		return MinInstantFee
	}
	return fee
}

// Display formats cents as a two-decimal major-unit string, e.g. 1450 -> "14.50".
func Display(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
