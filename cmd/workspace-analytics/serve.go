package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/workspace-analytics/internal/analytics"
	"github.com/example/workspace-analytics/internal/config"
	httptransport "github.com/example/workspace-analytics/internal/http"
	"github.com/example/workspace-analytics/internal/persistence/sqlite"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, cfg config.Config, args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("serve", stderr)
	port := fs.Int("port", cfg.HTTPPort, "HTTP listen port")
	db := fs.String("db", cfg.SQLitePath, "SQLite database file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *port < 0 || *port > 65535 {
		return fmt.Errorf("%w: serve: port %d out of range", errUsage, *port)
	}

	storage, err := openStorage(ctx, *db, logger)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	service, err := analytics.NewServiceWithLogger(storage.Occupancy(), cfg.CacheTTL, time.Now, logger)
	if err != nil {
		return fmt.Errorf("create analytics service: %w", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go invalidateOnSignal(ctx, hup, service, logger)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := newServer(newAPIHandler(service, storage, cfg, logger))
	return serveUntilDone(ctx, server, listener, logger)
}

func newAPIHandler(service *analytics.Service, storage *sqlite.Storage, cfg config.Config, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Analytics:   httptransport.NewAnalyticsHandler(service, logger),
		Health:      httptransport.NewHealthHandler(storage, logger),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
}

func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serveUntilDone serves on listener and shuts the server down once ctx is done.
// A Serve failure stops the shutdown goroutine before the error is returned.
func serveUntilDone(ctx context.Context, server *http.Server, listener net.Listener, logger *slog.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("occupancy API listening", "addr", listener.Addr().String())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return fmt.Errorf("serve: %w", err)
	}
	<-done
	logger.Info("occupancy API stopped")
	return nil
}

func invalidateOnSignal(ctx context.Context, signals <-chan os.Signal, service *analytics.Service, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			service.InvalidateCache()
			logger.Info("query cache invalidated")
		}
	}
}
