// Package cmd - serve command
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"cloud-architect-sim/api"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation HTTP API",
	Long: `Serve the evaluation engine over HTTP with Prometheus metrics at /metrics.

Examples:
  archsim serve
  archsim serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Serve(ctx, cfg, prometheus.DefaultRegisterer, Version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// Serve builds the engine, attaches metrics and runs the API until ctx
// is cancelled
func Serve(ctx context.Context, c *config.Config, reg prometheus.Registerer, version string) error {
	e, err := engine.Build(c)
	if err != nil {
		return err
	}

	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	e.WithObserver(collector)

	return api.NewServer(e, c, collector, version).Run(ctx)
}
