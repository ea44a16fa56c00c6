package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Aggregate one category and print the result",
	Example: `  marketwire fetch --category crypto --limit 10
  marketwire fetch --category forex --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown(context.Background())

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		report, err := a.Aggregator.Aggregate(ctx, category, limit)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		printReport(cmd.OutOrStdout(), report, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("category", "general", "category to aggregate")
	fetchCmd.Flags().Int("limit", 20, "maximum number of articles")
	fetchCmd.Flags().Bool("json", false, "output as JSON")
}
