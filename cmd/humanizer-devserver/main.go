// Package main provides a local humanize API for development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/humanizer-go/internal/config"
	"github.com/raphaelgruber/humanizer-go/internal/devserver"
	"github.com/raphaelgruber/humanizer-go/internal/telemetry"
)

func main() {
	// Parse flags; unset flags fall back to config
	port := flag.Int("port", 0, "listen port (default from devserver.port)")
	token := flag.String("token", "", "require this bearer token on /api/humanize")
	delay := flag.Duration("delay", 0, "artificial latency per humanize request")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	if *port == 0 {
		*port = cfg.DevServer.Port
	}
	if *token == "" {
		*token = cfg.DevServer.Token
	}

	logger, closeLog := config.SetupLogger(cfg.Log.File, cfg.LogLevel())
	defer closeLog()
	slog.SetDefault(logger)

	var handler http.Handler = devserver.New(devserver.Config{Token: *token, Delay: *delay}, logger)
	if cfg.Trace.Enabled {
		shutdown, err := telemetry.InitTracer("humanizer-devserver", os.Stdout, logger)
		if err != nil {
			slog.Error("failed to init tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("failed to flush traces", "error", err)
			}
		}()
		handler = telemetry.Handler(handler, "humanizer-devserver")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting humanizer-devserver",
			"url", fmt.Sprintf("http://localhost:%d/api/humanize", *port),
			"auth", *token != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server stopped")
}
