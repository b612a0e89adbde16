package main

import (
	"fmt"

	"github.com/iwvelando/finance-calculators/pkg/output"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved results",
		Long: `List or clear the saved results. Results are saved with
"compute --save" or through the HTTP API; only the most recent ones are kept.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved results, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				records, err := a.historyStore().List(cmd.Context())
				if err != nil {
					return err
				}
				return output.WriteHistory(cmd.OutOrStdout(), a.conf.Output.Format, a.tag, records)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every saved result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store := a.historyStore()
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "cleared saved results in %s\n", store.Path())
				return err
			},
		},
	)
	return cmd
}
