package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/workspace-analytics/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("sqlite: embedded migrations missing: %v", err))
	}
	return sub
}

// Storage owns the connection pool and hands out repositories bound to it.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects using cfg. Call Migrate before using the repositories.
func Open(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("sqlite opened", "dsn", cfg.DSN, "journal_mode", cfg.JournalMode)
	return &Storage{pool: pool, logger: logger}, nil
}

// OpenPath opens a file database with the default production settings.
func OpenPath(path string, logger *slog.Logger) (*Storage, error) {
	return Open(migration.DefaultSQLiteConfig(path), logger)
}

// Migrate applies pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.migrationManager().RunMigrations(ctx)
}

// MigrationStatus reports applied and pending migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrationManager().GetMigrationStatus(ctx)
}

func (s *Storage) migrationManager() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		Migrations(),
		s.logger,
	)
}

// Ping checks connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Pool exposes the connection pool for repositories built outside Storage.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Datasets returns a dataset repository using random UUIDs and wall time.
func (s *Storage) Datasets() *DatasetRepository {
	return NewDatasetRepository(s.pool, uuid.NewString, time.Now, s.logger)
}

// Occupancy returns the read-only aggregate repository.
func (s *Storage) Occupancy() *OccupancyRepository {
	return NewOccupancyRepository(s.pool)
}
