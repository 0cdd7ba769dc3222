// Package main - Entry point for the architecture evaluation server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"cloud-architect-sim/cmd/cli/cmd"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "config file")
	addr := flag.String("addr", "", "server address (default from config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Architecture evaluation server v%s\n", cmd.Version)
	fmt.Printf("   API:     http://localhost%s/api/v1\n", cfg.Server.Addr)
	fmt.Printf("   Metrics: http://localhost%s/metrics\n", cfg.Server.Addr)

	if err := cmd.Serve(ctx, cfg, prometheus.DefaultRegisterer, cmd.Version); err != nil {
		logging.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
