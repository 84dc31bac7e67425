package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/workspace-analytics/internal/persistence"
	"github.com/example/workspace-analytics/internal/persistence/sqlite"
	"github.com/example/workspace-analytics/internal/simulation"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite file for integration-style tests. Load run IDs and timestamps come
// from IDs and Clock so they are deterministic; the clock ticks one second per
// load.
type SQLiteHarness struct {
	Storage   *sqlite.Storage
	Datasets  persistence.DatasetRepository
	Occupancy persistence.OccupancyRepository
	IDs       *RunIDs
	Clock     *Clock

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness. Callers may invoke Close, but
// the helper also registers a cleanup callback with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "workspace.db")
	logger := DiscardLogger()

	storage, err := sqlite.OpenPath(path, logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	ids := &RunIDs{}
	clock := NewClock(ReferenceTime(), time.Second)

	harness := &SQLiteHarness{
		Storage:   storage,
		Datasets:  sqlite.NewDatasetRepository(storage.Pool(), ids.Next, clock.Now, logger),
		Occupancy: sqlite.NewOccupancyRepository(storage.Pool()),
		IDs:       ids,
		Clock:     clock,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// Load replaces the stored dataset with records and fails the test on error.
func (h *SQLiteHarness) Load(tb testing.TB, records []simulation.Record) persistence.LoadRun {
	tb.Helper()
	run, err := h.Datasets.ReplaceDataset(context.Background(), persistence.LoadRequest{
		Source:   "fixture",
		Checksum: "fixture",
		Records:  records,
	})
	if err != nil {
		tb.Fatalf("ReplaceDataset failed: %v", err)
	}
	return run
}
