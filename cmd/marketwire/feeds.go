package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/marketwire/internal/models"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List the registered feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown(context.Background())

		var feeds []models.FeedSource
		if category != "" {
			feeds = a.Registry.ForCategory(category)
		} else {
			feeds = a.Registry.All()
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), feeds)
		}
		if len(feeds) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), faint("no feeds registered for "+category))
			return nil
		}
		return printFeeds(cmd.OutOrStdout(), feeds)
	},
}

func init() {
	rootCmd.AddCommand(feedsCmd)

	feedsCmd.Flags().String("category", "", "only list feeds tagged with this category")
	feedsCmd.Flags().Bool("json", false, "output as JSON")
}
