package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal_relay/internal/app"
	"signal_relay/internal/infra/webhook"
)

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(app.ConfigPath()); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. HTTP Server
	var metricsHandler http.Handler
	if bootstrap.Metrics != nil {
		metricsHandler = bootstrap.Metrics.Handler()
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      webhook.NewMux(webhook.NewWebhookHandler(bootstrap.Relay), metricsHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		slog.Info("Relay listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("Shutting down gracefully...")
	// in-flight invocations may still be waiting on enrichment
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EnrichmentTimeout()+cfg.MessagingTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown incomplete", slog.Any("error", err))
	}
}
