package main

import (
	"context"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the news tools over MCP on stdio",
	Long: `Start an MCP server on stdin/stdout exposing get_market_news,
list_feed_sources, get_news_snapshot and refresh_news_snapshot.

Logs go to stderr so stdout carries only protocol messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown(context.Background())

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		return a.RunMCP(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
