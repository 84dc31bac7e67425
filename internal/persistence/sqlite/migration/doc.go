// Package migration applies versioned SQL migrations to SQLite databases.
//
// Migration files are named {version}_{description}.sql and are read from an
// fs.FS, normally an embed.FS compiled into the binary. Applied versions are
// tracked in the schema_migrations table together with the checksum of the
// file that was run, and each file executes inside its own transaction.
//
//	manager := migration.NewMigrationManager(migration.NewFileScanner(), migration.NewSQLiteExecutor(db), files, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
