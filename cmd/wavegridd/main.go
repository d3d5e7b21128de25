// Command wavegridd serves grid generation over WebSocket, streaming one
// frame per resolved cell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tilewright/wavegrid/internal/config"
	"github.com/tilewright/wavegrid/internal/logger"
	"github.com/tilewright/wavegrid/internal/server"
)

func main() {
	configFile := flag.String("config", "data/wavegrid.yaml", "Path to config YAML file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server)
	logger.Info("wavegrid server listening", "addr", cfg.Server.Listen)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("server shut down")
}
