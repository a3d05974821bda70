package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultExchangeRate replaces a missing, zero or negative exchange rate.
var DefaultExchangeRate = decimal.RequireFromString("6.5")

// MaxQuantity is the largest quantity a quote accepts.
const MaxQuantity = math.MaxInt32

// Amounts and rates are bounded so that formatting them stays cheap.
const (
	minExponent = -12
	maxExponent = 15
)

var maxAmount = decimal.New(1, maxExponent)

// InBounds reports whether d is a usable money amount or rate: at most 1e15 in magnitude
// with no more than 12 fractional digits.
func InBounds(d decimal.Decimal) bool {
	// Check the exponent first: comparing a value like 1e2000000 rescales it.
	if e := d.Exponent(); e < minExponent || e > maxExponent {
		return false
	}
	return d.Abs().LessThanOrEqual(maxAmount)
}

// NormalizeQuantity clamps quantity to at least 1. Quantities above MaxQuantity are
// unusable and also yield 1.
func NormalizeQuantity(quantity int) int {
	if quantity < 1 || quantity > MaxQuantity {
		return 1
	}
	return quantity
}

// NormalizeAmount replaces negative or out of bounds fees with zero.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() || !InBounds(d) {
		return decimal.Zero
	}
	return d
}

// NormalizeExchangeRate replaces non-positive or out of bounds rates with DefaultExchangeRate.
func NormalizeExchangeRate(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() || !InBounds(d) {
		return DefaultExchangeRate
	}
	return d
}

// ParseQuantity reads a quantity typed by a user. Non-numeric values, values below 1 and
// values above MaxQuantity yield 1; a fractional value is truncated.
func ParseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return NormalizeQuantity(n)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() || !InBounds(d) {
		return 1
	}
	d = d.Truncate(0)
	if d.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
		return 1
	}
	return NormalizeQuantity(int(d.IntPart()))
}

// ParseAmount reads a fee typed by a user. Non-numeric, negative or out of bounds values
// yield zero.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return NormalizeAmount(d)
}

// ParseExchangeRate reads an exchange rate typed by a user, falling back to fallback and
// then to DefaultExchangeRate when the value is unusable.
func ParseExchangeRate(raw string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() || !InBounds(d) {
		return NormalizeExchangeRate(fallback)
	}
	return d
}
