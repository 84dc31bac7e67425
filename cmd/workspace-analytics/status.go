package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/example/workspace-analytics/internal/config"
	"github.com/example/workspace-analytics/internal/persistence"
	"github.com/example/workspace-analytics/internal/persistence/sqlite"
)

// runStatus reports schema and load state without migrating or creating the database.
func runStatus(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("status", stderr)
	db := fs.String("db", cfg.SQLitePath, "SQLite database file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := os.Stat(*db); err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	storage, err := sqlite.OpenPath(*db, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStorage(storage, logger)

	status, err := storage.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	version := status.CurrentVersion
	if version == "" {
		version = "none"
	}
	fmt.Fprintf(stdout, "schema version: %s (%d applied, %d pending)\n",
		version, len(status.AppliedMigrations), status.PendingCount)

	if status.PendingCount > 0 {
		fmt.Fprintln(stdout, "latest load: unavailable until migrations are applied")
		return nil
	}

	run, err := storage.Datasets().LatestLoadRun(ctx)
	if errors.Is(err, persistence.ErrNotFound) {
		fmt.Fprintln(stdout, "latest load: none")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest load run: %w", err)
	}
	fmt.Fprintf(stdout, "latest load: %s from %s at %s\n", run.ID, run.Source, run.LoadedAt.Format(time.RFC3339))
	fmt.Fprintf(stdout, "  employees=%d spaces=%d bookings=%d checksum=%s\n", run.Employees, run.Spaces, run.Bookings, run.Checksum)
	return nil
}
