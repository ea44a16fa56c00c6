package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/marketwire/internal/cache"
	"github.com/johnrirwin/marketwire/internal/config"
	"github.com/johnrirwin/marketwire/internal/httpapi"
	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a remote marketwire server like the news desk does",
	Long: `Run the news desk refresh loop against a remote /rss-news endpoint and
print a summary after every refresh.`,
	Example: `  marketwire watch --server http://localhost:8080 --refresh-interval 20m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		logger := logging.New(logging.ParseLevel(cfg.Logging.Level))

		snapshots := cache.NewMemory(cfg.Cache.TTL)
		defer snapshots.Stop()

		desk := orchestrator.New(httpapi.NewClient(server, nil), snapshots, logger, orchestrator.Config{
			CategoryDelay: cfg.Orchestrator.CategoryDelay,
			Interval:      cfg.Orchestrator.Interval,
		})

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s every %s\n", bold("watching"), server, desk.Config().Interval)

		ticker := time.NewTicker(desk.Config().Interval)
		defer ticker.Stop()

		for {
			snap, err := desk.Refresh(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintln(w, red(err.Error()))
			} else {
				printSnapshot(w, snap)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("server", "http://localhost:8080", "base URL of the marketwire HTTP API")
}
