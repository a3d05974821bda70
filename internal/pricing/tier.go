package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier maps an inclusive quantity range to a unit price. A nil Max is unbounded.
type Tier struct {
	Min       int             `json:"min"`
	Max       *int            `json:"max,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Contains reports whether quantity falls inside the tier.
func (t Tier) Contains(quantity int) bool {
	return quantity >= t.Min && (t.Max == nil || quantity <= *t.Max)
}

// Unbounded reports whether the tier has no upper limit.
func (t Tier) Unbounded() bool {
	return t.Max == nil
}

// Bound returns a pointer to n, for building bounded tiers.
func Bound(n int) *int {
	return &n
}

// ResolvePrice returns the unit price of the first tier containing quantity.
// Quantities below 1 are treated as 1. When no tier matches the last tier's price is
// returned: the highest tier acts as the catch-all of a bulk discount table.
func ResolvePrice(quantity int, tiers []Tier) decimal.Decimal {
	if len(tiers) == 0 {
		return decimal.Zero
	}
	quantity = NormalizeQuantity(quantity)

	for _, t := range tiers {
		if t.Contains(quantity) {
			return t.UnitPrice
		}
	}
	return tiers[len(tiers)-1].UnitPrice
}

// ValidateTiers lists the problems of a tier table. The list is advisory: ResolvePrice
// stays total over malformed tables.
func ValidateTiers(tiers []Tier) []string {
	if len(tiers) == 0 {
		return []string{"no price tiers"}
	}

	var problems []string
	if tiers[0].Min != 1 {
		problems = append(problems, fmt.Sprintf("first tier starts at %d, want 1", tiers[0].Min))
	}
	for i, t := range tiers {
		if t.Min < 1 {
			problems = append(problems, fmt.Sprintf("tier %d: min %d is below 1", i+1, t.Min))
		}
		if t.Max != nil && *t.Max < t.Min {
			problems = append(problems, fmt.Sprintf("tier %d: max %d is below min %d", i+1, *t.Max, t.Min))
		}
		if t.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("tier %d: negative unit price %s", i+1, t.UnitPrice))
		}
		if i == 0 {
			continue
		}

		prev := tiers[i-1]
		if prev.Max == nil {
			problems = append(problems, fmt.Sprintf("tier %d follows an unbounded tier", i+1))
			continue
		}
		switch {
		case t.Min > *prev.Max+1:
			problems = append(problems, fmt.Sprintf("gap between %d and %d", *prev.Max, t.Min))
		case t.Min <= *prev.Max:
			problems = append(problems, fmt.Sprintf("tier %d overlaps tier %d", i+1, i))
		}
	}
	if !tiers[len(tiers)-1].Unbounded() {
		problems = append(problems, "last tier is bounded")
	}

	return problems
}
