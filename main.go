package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liveclass/internal/config"
	"liveclass/internal/store"
	"liveclass/internal/transport"

	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run hosts the classroom store until SIGINT or SIGTERM
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	docs, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		_ = docs.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := transport.NewServer(docs, transport.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		Limits:         cfg.Limits(),
		AuthTimeout:    cfg.AuthTimeout,
	}, log)
	go srv.RunCleanup(ctx, cfg.CleanupInterval)

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpServer.RegisterOnShutdown(srv.CloseConnections)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Store server started", "address", cfg.Address())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...", "connections", srv.ConnectionCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// openStore persists to Badger when BADGER_FILEPATH is set, otherwise keeps everything in memory
func openStore(cfg config.Config, log *slog.Logger) (*store.DocumentStore, error) {
	if cfg.BadgerFilepath == "" {
		log.Warn("BADGER_FILEPATH not set, sessions will not survive a restart")
		return store.NewMemory(log), nil
	}
	docs, err := store.OpenBadger(cfg.BadgerFilepath, log)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return docs, nil
}
