package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EgorLis/afkbot/internal/bot"
	"github.com/EgorLis/afkbot/internal/config"
	"github.com/EgorLis/afkbot/internal/gateway"
	"github.com/EgorLis/afkbot/internal/logging"
)

const banner = `
     _    _____ _  __  _           _
    / \  |  ___| |/ / | |__   ___ | |_
   / _ \ | |_  | ' /  | '_ \ / _ \| __|
  / ___ \|  _| | . \  | |_) | (_) | |_
 /_/   \_\_|   |_|\_\ |_.__/ \___/ \__|

`

var _ bot.Session = (*gateway.Session)(nil)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	color.New(color.FgCyan).Print(banner)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)
	for _, n := range cfg.Notes {
		logger.Info(n)
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	logger.Warn("automating a user account violates the Discord Terms of Service; use at your own risk")

	printSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := startMetrics(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	session, err := gateway.New(cfg.Token, gateway.DefaultOptions(), logger)
	if err != nil {
		return err
	}

	b := bot.New(session, bot.Config{
		ChannelID:    cfg.ChannelID,
		Activity:     cfg.Activity,
		StatusPrefix: cfg.StatusPrefix,
		StreamURL:    cfg.StreamURL,
		MaxRetries:   bot.DefaultMaxRetries,
	}, logger)

	logger.Info("running… press Ctrl+C to stop")
	if err := b.Run(ctx); err != nil {
		logger.Error("login failed", "error", err)
		return err
	}
	return nil
}

func printSummary(cfg *config.Config) {
	green := color.New(color.FgGreen)

	target := cfg.ChannelID
	if target == "" {
		target = "none"
	}
	green.Print("    ▶ ")
	fmt.Printf("Channel:   %s\n", target)
	green.Print("    ▶ ")
	fmt.Printf("Activity:  %s %q\n", cfg.Activity.Label(), cfg.StatusPrefix+" …")
	if cfg.MetricsAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
}

func startMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
	return srv
}
