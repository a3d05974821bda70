package quote

import (
	"fmt"
	"strings"

	"github.com/Simplici0/laserquote/internal/pricing"
)

// Summary renders the price detail of a quote as plain text.
func Summary(r Result) string {
	local := r.Currency.Local
	d := r.Display

	var sb strings.Builder
	if m := r.Input.Machine; m != nil {
		fmt.Fprintf(&sb, "Machine: %s x %d @ %s = %s %s\n", m.DisplayName, d.Quantity, d.MachineUnitPrice, d.MachinePrice, local)
	} else {
		sb.WriteString("Machine: none\n")
	}
	if c := r.Input.WaterCooler; c != nil {
		fmt.Fprintf(&sb, "Water cooler: %s x %d = %s %s\n", c.DisplayName, d.Quantity, d.WaterCoolerPrice, local)
	} else {
		sb.WriteString("Water cooler: none\n")
	}
	fmt.Fprintf(&sb, "Accessories: %s = %s %s\n", itemList(r.Input.Accessories), d.AccessoriesPrice, local)
	fmt.Fprintf(&sb, "Other accessories: %s = %s %s\n", itemList(r.Input.OtherAccessories), d.OtherAccessoriesPrice, local)
	fmt.Fprintf(&sb, "Shipping: %s %s (international %s, domestic %s)\n",
		d.ShippingTotal, local,
		pricing.Money(pricing.NormalizeAmount(r.Input.InternationalShipping)),
		pricing.Money(pricing.NormalizeAmount(r.Input.DomesticShipping)))
	fmt.Fprintf(&sb, "Other fees: %s %s\n", d.OtherFees, local)
	fmt.Fprintf(&sb, "Total: %s %s\n", d.GrandTotalLocal, local)
	fmt.Fprintf(&sb, "Total: %s %s (rate %s)\n", d.GrandTotalForeign, r.Currency.Foreign, d.ExchangeRate)
	return sb.String()
}

func itemList(products []pricing.Product) string {
	if len(products) == 0 {
		return "none"
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, fmt.Sprintf("%s (%s)", p.DisplayName, pricing.Money(p.FlatPrice())))
	}
	return strings.Join(names, ", ")
}
