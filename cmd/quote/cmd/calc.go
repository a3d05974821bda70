// Package cmd - calc command
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/quote"
)

type calcOptions struct {
	form   history.Form
	format string
	save   bool
}

type calcOutput struct {
	quote.Result
	Total   string         `json:"total"`
	Summary string         `json:"summary"`
	Saved   *history.Entry `json:"saved,omitempty"`
}

func newCalcCmd(root *rootOptions) *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a quote",
		Long: `Calculate a quote from catalog ids and fees.

Unknown ids are ignored with a warning. Amounts that are not numbers count as zero;
an exchange rate that is missing or not positive falls back to the configured default.

Examples:
  laserquote calc --machine co2/1390/100w --qty 12 --cooler cw5000
  laserquote calc --machine fiber-cutter/3015/1500w --accessory autofocus --other lens --intl 2000 --rate 7.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.form.MachineID, "machine", "", "machine id as series/model/power")
	f.StringVar(&opts.form.Quantity, "qty", "1", "number of machines")
	f.StringVar(&opts.form.WaterCoolerID, "cooler", "", "water cooler id")
	f.StringArrayVar(&opts.form.AccessoryIDs, "accessory", nil, "accessory id (repeatable)")
	f.StringArrayVar(&opts.form.OtherAccessoryIDs, "other", nil, "other accessory id (repeatable)")
	f.StringVar(&opts.form.InternationalShipping, "intl", "", "international shipping fee")
	f.StringVar(&opts.form.DomesticShipping, "domestic", "", "domestic shipping fee")
	f.StringVar(&opts.form.OtherFees, "fees", "", "other fees")
	f.StringVar(&opts.form.ExchangeRate, "rate", "", "local currency units per foreign unit")
	f.StringVarP(&opts.format, "format", "f", "text", "output format (text, json)")
	f.BoolVar(&opts.save, "save", false, "append the quote to the history")

	return cmd
}

func runCalc(cmd *cobra.Command, root *rootOptions, opts *calcOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unsupported format: %s (use text or json)", opts.format)
	}

	ctx := quote.WithNotifier(cmd.Context(), printNotifier{w: cmd.ErrOrStderr()})
	a, err := root.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.Quotes.Calculate(ctx, opts.form)
	out := calcOutput{Result: result, Total: result.TotalDisplay(), Summary: quote.Summary(result)}

	if opts.save {
		entry, err := a.Quotes.SaveToHistory(ctx, result)
		if err != nil {
			return fmt.Errorf("save quote: %w", err)
		}
		out.Saved = &entry
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprint(cmd.OutOrStdout(), out.Summary)
	if out.Saved != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s at %s\n", out.Saved.ID, out.Saved.Timestamp)
	}
	return nil
}
