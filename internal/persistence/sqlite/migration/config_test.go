package migration

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestConnectionManager_DataSourceName(t *testing.T) {
	cm := NewConnectionManager(DefaultSQLiteConfig("/var/lib/analytics.db"))
	dsn := cm.DataSourceName()

	path, query, ok := strings.Cut(dsn, "?")
	if !ok || path != "/var/lib/analytics.db" {
		t.Fatalf("unexpected DSN %q", dsn)
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	pragmas := strings.Join(values["_pragma"], ",")
	for _, want := range []string{"busy_timeout(30000)", "foreign_keys(1)", "journal_mode(WAL)", "synchronous(NORMAL)", "cache_size(-2000)"} {
		if !strings.Contains(pragmas, want) {
			t.Errorf("expected pragma %s in %s", want, pragmas)
		}
	}
}

func TestConnectionManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SQLiteConfig)
	}{
		{name: "empty DSN", mutate: func(c *SQLiteConfig) { c.DSN = " " }},
		{name: "query in DSN", mutate: func(c *SQLiteConfig) { c.DSN = "db.sqlite?mode=ro" }},
		{name: "journal mode", mutate: func(c *SQLiteConfig) { c.JournalMode = "FAST" }},
		{name: "synchronous", mutate: func(c *SQLiteConfig) { c.Synchronous = "SOMETIMES" }},
		{name: "negative pool", mutate: func(c *SQLiteConfig) { c.MaxOpenConns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSQLiteConfig("db.sqlite")
			tt.mutate(&cfg)
			if err := NewConnectionManager(cfg).ValidateConfig(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConnectionManager_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	db, err := NewConnectionManager(TempFileTestSQLiteConfig(path)).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	defer db.Close()

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA query failed: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("expected foreign keys enabled, got %d", enabled)
	}
}
