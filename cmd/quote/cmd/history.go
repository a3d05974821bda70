// Package cmd - history commands
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/laserquote/internal/quote"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Saved quote history",
	}

	var (
		asJSON bool
		limit  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved quotes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := quote.WithNotifier(cmd.Context(), printNotifier{w: cmd.ErrOrStderr()})
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Quotes.History(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved quotes.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", e.Timestamp, e.TotalDisplay, e.ID)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := quote.WithNotifier(cmd.Context(), printNotifier{w: cmd.ErrOrStderr()})
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Quotes.ClearHistory(ctx)
		},
	}

	historyCmd.AddCommand(listCmd, clearCmd)
	return historyCmd
}
