// Command virtualrf runs a standalone virtual RF network. It creates the
// configured pseudo-terminal ports, prints them the way a serial-adapter
// scan would, and relays frames until interrupted.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramses-rf/virtualrf"
	"github.com/ramses-rf/virtualrf/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	rf, err := virtualrf.NewFromConfig(cfg)
	if err != nil {
		slog.Error("create network", "error", err)
		os.Exit(1)
	}
	defer rf.Stop()

	for info := range rf.ComPorts() {
		fmt.Printf("%s  %04X:%04X  %s\n", info.Device, info.VendorID, info.ProductID, info.Description)
	}

	rf.Start()
	slog.Info("network running", "ports", cfg.Ports, "gateways", len(cfg.Gateways))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	rf.Stop()
}
