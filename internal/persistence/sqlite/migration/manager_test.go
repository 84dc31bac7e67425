package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewConnectionManager(InMemoryTestSQLiteConfig()).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSource() fstest.MapFS {
	return fstest.MapFS{
		"001_create_employees.sql": {Data: []byte("CREATE TABLE employees (employee_id INTEGER PRIMARY KEY, department TEXT NOT NULL);")},
		"002_create_bookings.sql": {Data: []byte(
			"CREATE TABLE bookings (booking_id INTEGER PRIMARY KEY AUTOINCREMENT, employee_id INTEGER NOT NULL REFERENCES employees(employee_id));\n" +
				"CREATE INDEX idx_bookings_employee ON bookings(employee_id);")},
	}
}

func TestMigrationManager_RunMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), sampleSource(), quietLogger())

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.AppliedMigrations) != 2 || status.AppliedMigrations[0].Checksum == "" {
		t.Fatalf("expected two applied migrations with checksums, got %+v", status.AppliedMigrations)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO employees (employee_id, department) VALUES (1, 'IT')"); err != nil {
		t.Fatalf("schema not usable: %v", err)
	}

	// Second run is a no-op.
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
}

func TestMigrationManager_AppliesOnlyNewVersions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	source := sampleSource()
	first := fstest.MapFS{"001_create_employees.sql": source["001_create_employees.sql"]}

	if err := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), first, quietLogger()).RunMigrations(ctx); err != nil {
		t.Fatalf("initial RunMigrations failed: %v", err)
	}

	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), source, quietLogger())
	pending, err := manager.GetPendingMigrations(ctx)
	if err != nil {
		t.Fatalf("GetPendingMigrations failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != "002" {
		t.Fatalf("expected only 002 pending, got %+v", pending)
	}
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
}

func TestMigrationManager_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	source := fstest.MapFS{
		"001_partial.sql": {Data: []byte("CREATE TABLE ok (id INTEGER);\nCREATE TABLE broken (id INTEGER REFERENCES);")},
	}
	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), source, quietLogger())

	err := manager.RunMigrations(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'ok'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected table from failed migration to be rolled back, got %v", err)
	}
}

func TestMigrationManager_DetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	source := sampleSource()
	if err := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), source, quietLogger()).RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	edited := sampleSource()
	edited["001_create_employees.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE employees (employee_id INTEGER PRIMARY KEY);")}
	_, err := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), edited, quietLogger()).GetPendingMigrations(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestMigrationManager_RejectsGaps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	source := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"003_c.sql": {Data: []byte("CREATE TABLE c (id INTEGER);")},
	}
	err := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), source, quietLogger()).RunMigrations(ctx)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestMigrationManager_StatusOnFreshDatabaseIsReadOnly(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), sampleSource(), quietLogger())

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.PendingCount != 2 || status.CurrentVersion != "" || len(status.AppliedMigrations) != 0 {
		t.Fatalf("expected every migration pending, got %+v", status)
	}

	var tables int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&tables); err != nil {
		t.Fatalf("count tables failed: %v", err)
	}
	if tables != 0 {
		t.Fatalf("status created %d tables", tables)
	}
}
