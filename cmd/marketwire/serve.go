package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/marketwire/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the news desk refresh loop",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	err = a.RunHTTP(ctx)
	a.Logger.Info("Shutting down...")
	if shutdownErr := a.Shutdown(context.Background()); shutdownErr != nil {
		a.Logger.Error("Shutdown error", logging.WithField("error", shutdownErr.Error()))
	}
	return err
}
