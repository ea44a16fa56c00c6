package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/marketwire/internal/app"
	"github.com/johnrirwin/marketwire/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "marketwire",
	Short: "Financial news aggregator for RSS feeds",
	Long: `marketwire pulls financial news from a fixed set of RSS and Atom feeds,
merges them per category and serves the result over HTTP and MCP.

Example usage:
  marketwire serve                          # HTTP API with the news desk refreshing
  marketwire fetch --category crypto        # One-shot aggregation
  marketwire feeds --category forex         # List registered feeds
  marketwire mcp                            # MCP server on stdio`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// newApp loads configuration from the command's flags and the environment.
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
