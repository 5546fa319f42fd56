package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fleetstream/pkg/logging"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "stream-processor",
		Short: "Vehicle telemetry ingestion and enrichment pipeline",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline",
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() {
	earlyLog := logging.NewEarlyLog()

	app, err := NewApp(configFile)
	if err != nil {
		earlyLog.Error("failed to create application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Initialize(ctx); err != nil {
		earlyLog.Error("failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		earlyLog.Error("application exited with error: %v", err)
	}

	app.Shutdown()
}
