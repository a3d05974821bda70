// Package cmd - catalog command
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/pricing"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List machines, water coolers and accessories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Open(root.config().CatalogPath)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), c)
		},
	}
}

func printCatalog(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cur := c.Currency()

	fmt.Fprintf(tw, "MACHINE\tNAME\tPRICE (%s)\n", cur.Local)
	for _, m := range c.Machines() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.DisplayName, tierList(m.Tiers))
	}

	sections := []struct {
		title    string
		products []pricing.Product
	}{
		{"WATER COOLER", c.WaterCoolers()},
		{"ACCESSORY", c.Accessories()},
		{"OTHER ACCESSORY", c.OtherAccessories()},
	}
	for _, s := range sections {
		fmt.Fprintf(tw, "\n%s\tNAME\tPRICE (%s)\n", s.title, cur.Local)
		for _, p := range s.products {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.DisplayName, pricing.Money(p.FlatPrice()))
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	warnings := c.Warnings()
	if len(warnings) > 0 {
		fmt.Fprintln(w)
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

// tierList renders tiers as "1-9: 10000.00, 10+: 9500.00".
func tierList(tiers []pricing.Tier) string {
	parts := make([]string, 0, len(tiers))
	for _, t := range tiers {
		rng := fmt.Sprintf("%d+", t.Min)
		if !t.Unbounded() {
			rng = fmt.Sprintf("%d-%d", t.Min, *t.Max)
		}
		parts = append(parts, rng+": "+pricing.Money(t.UnitPrice))
	}
	return strings.Join(parts, ", ")
}
