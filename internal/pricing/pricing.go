package pricing

import (
	"github.com/shopspring/decimal"
)

// Product is anything with a price table: a machine, a water cooler or an accessory.
type Product struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Tiers       []Tier `json:"tiers"`
}

// FlatProduct builds a product whose single tier covers every quantity.
func FlatProduct(id, name string, price decimal.Decimal) Product {
	return Product{
		ID:          id,
		DisplayName: name,
		Tiers:       []Tier{{Min: 1, UnitPrice: price}},
	}
}

// FlatPrice returns the price applicable to a single unit.
func (p Product) FlatPrice() decimal.Decimal {
	return ResolvePrice(1, p.Tiers)
}

// QuoteInput is a snapshot of everything the user selected and typed.
type QuoteInput struct {
	Quantity              int
	Machine               *Product
	WaterCooler           *Product
	Accessories           []Product
	OtherAccessories      []Product
	InternationalShipping decimal.Decimal
	DomesticShipping      decimal.Decimal
	OtherFees             decimal.Decimal
	ExchangeRate          decimal.Decimal
}

// Breakdown contains every line item of a quote. Values are unrounded; use Display for output.
type Breakdown struct {
	Quantity              int             `json:"quantity"`
	ExchangeRate          decimal.Decimal `json:"exchange_rate"`
	MachineUnitPrice      decimal.Decimal `json:"machine_unit_price"`
	MachinePrice          decimal.Decimal `json:"machine_price"`
	WaterCoolerPrice      decimal.Decimal `json:"water_cooler_price"`
	AccessoriesPrice      decimal.Decimal `json:"accessories_price"`
	OtherAccessoriesPrice decimal.Decimal `json:"other_accessories_price"`
	ShippingTotal         decimal.Decimal `json:"shipping_total"`
	OtherFees             decimal.Decimal `json:"other_fees"`
	GrandTotalLocal       decimal.Decimal `json:"grand_total_local"`
	GrandTotalForeign     decimal.Decimal `json:"grand_total_foreign"`
}

// Calculate computes the quote breakdown. Invalid numbers are coerced before use, so
// Calculate is total and has no side effects.
//
// Machine and water cooler prices scale with quantity; accessories are charged once per
// order.
func Calculate(in QuoteInput) Breakdown {
	qty := NormalizeQuantity(in.Quantity)
	quantity := decimal.NewFromInt(int64(qty))
	rate := NormalizeExchangeRate(in.ExchangeRate)

	b := Breakdown{
		Quantity:              qty,
		ExchangeRate:          rate,
		MachineUnitPrice:      decimal.Zero,
		MachinePrice:          decimal.Zero,
		WaterCoolerPrice:      decimal.Zero,
		AccessoriesPrice:      sumFlat(in.Accessories),
		OtherAccessoriesPrice: sumFlat(in.OtherAccessories),
		OtherFees:             NormalizeAmount(in.OtherFees),
	}

	if in.Machine != nil {
		b.MachineUnitPrice = ResolvePrice(qty, in.Machine.Tiers)
		b.MachinePrice = b.MachineUnitPrice.Mul(quantity)
	}
	if in.WaterCooler != nil {
		b.WaterCoolerPrice = ResolvePrice(qty, in.WaterCooler.Tiers).Mul(quantity)
	}

	b.ShippingTotal = NormalizeAmount(in.InternationalShipping).Add(NormalizeAmount(in.DomesticShipping))
	b.GrandTotalLocal = b.MachinePrice.
		Add(b.WaterCoolerPrice).
		Add(b.AccessoriesPrice).
		Add(b.OtherAccessoriesPrice).
		Add(b.ShippingTotal).
		Add(b.OtherFees)
	b.GrandTotalForeign = b.GrandTotalLocal.Div(rate)

	return b
}

// sumFlat adds the flat price of each distinct product; a repeated ID counts once.
func sumFlat(products []Product) decimal.Decimal {
	total := decimal.Zero
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		total = total.Add(p.FlatPrice())
	}
	return total
}

// BreakdownDisplay holds the breakdown rounded to two decimals for presentation.
type BreakdownDisplay struct {
	Quantity              int    `json:"quantity"`
	ExchangeRate          string `json:"exchange_rate"`
	MachineUnitPrice      string `json:"machine_unit_price"`
	MachinePrice          string `json:"machine_price"`
	WaterCoolerPrice      string `json:"water_cooler_price"`
	AccessoriesPrice      string `json:"accessories_price"`
	OtherAccessoriesPrice string `json:"other_accessories_price"`
	ShippingTotal         string `json:"shipping_total"`
	OtherFees             string `json:"other_fees"`
	GrandTotalLocal       string `json:"grand_total_local"`
	GrandTotalForeign     string `json:"grand_total_foreign"`
}

// Display rounds every monetary value to two decimals.
func (b Breakdown) Display() BreakdownDisplay {
	return BreakdownDisplay{
		Quantity:              b.Quantity,
		ExchangeRate:          b.ExchangeRate.String(),
		MachineUnitPrice:      Money(b.MachineUnitPrice),
		MachinePrice:          Money(b.MachinePrice),
		WaterCoolerPrice:      Money(b.WaterCoolerPrice),
		AccessoriesPrice:      Money(b.AccessoriesPrice),
		OtherAccessoriesPrice: Money(b.OtherAccessoriesPrice),
		ShippingTotal:         Money(b.ShippingTotal),
		OtherFees:             Money(b.OtherFees),
		GrandTotalLocal:       Money(b.GrandTotalLocal),
		GrandTotalForeign:     Money(b.GrandTotalForeign),
	}
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
