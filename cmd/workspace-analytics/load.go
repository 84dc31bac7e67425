package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/workspace-analytics/internal/config"
	"github.com/example/workspace-analytics/internal/dataset"
	"github.com/example/workspace-analytics/internal/persistence"
	"github.com/example/workspace-analytics/internal/persistence/sqlite"
)

func runLoad(ctx context.Context, cfg config.Config, args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("load", stderr)
	in := fs.String("in", cfg.OutputPath, "path of the CSV artifact to load")
	db := fs.String("db", cfg.SQLitePath, "SQLite database file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	records, err := dataset.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	checksum, err := dataset.ChecksumFile(*in)
	if err != nil {
		return fmt.Errorf("checksum dataset: %w", err)
	}

	storage, err := openStorage(ctx, *db, logger)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	run, err := storage.Datasets().ReplaceDataset(ctx, persistence.LoadRequest{
		Source:   *in,
		Checksum: checksum,
		Records:  records,
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	logger.Info("dataset loaded",
		"load_run_id", run.ID,
		"db", *db,
		"employees", run.Employees,
		"spaces", run.Spaces,
		"bookings", run.Bookings,
		"checksum", run.Checksum,
	)
	return nil
}

// openStorage opens the database file and applies pending migrations.
func openStorage(ctx context.Context, path string, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.OpenPath(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		closeStorage(storage, logger)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, nil
}
