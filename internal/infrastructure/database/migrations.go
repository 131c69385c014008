package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// MigrationsFS is set by the migrations package to embed migration
// files. This allows the schema to be compiled into the binary.
//
// Usage:
//
//	//go:embed *.sql
//	var migrationsFS embed.FS
//
//	func init() {
//	    database.MigrationsFS = migrationsFS
//	}
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS containing
// migration files. "." means files are at the root of the embedded
// filesystem.
var MigrationsDir = "."

// Migration represents a single database migration.
type Migration struct {
	// Version is extracted from the filename prefix.
	// Format: YYYYMMDD_HHMMSS (e.g. 20260815_120000)
	Version string

	// Name is the human-readable migration name.
	Name string

	// UpSQL contains the SQL to apply this migration.
	UpSQL string
}

// Migrate applies all pending migrations in version order.
//
// Each migration runs in its own transaction: if migration N fails,
// migrations 1..N-1 remain committed, N is rolled back, and later ones
// are not attempted. Re-running Migrate after fixing the issue
// continues from N.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations bookkeeping table.
func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

// appliedVersions returns the set of migration versions already applied.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// applyMigration runs a single migration inside a transaction.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// loadMigrations reads *.up.sql files from the embedded filesystem,
// sorted by version.
func loadMigrations() ([]Migration, error) {
	return loadMigrationsFrom(MigrationsFS)
}

func loadMigrationsFrom(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		version, humanName, ok := parseMigrationFilename(name)
		if !ok {
			return nil, fmt.Errorf("malformed migration filename: %s", name)
		}

		path := name
		if MigrationsDir != "." {
			path = MigrationsDir + "/" + name
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    humanName,
			UpSQL:   string(data),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseMigrationFilename splits "YYYYMMDD_HHMMSS_description.up.sql"
// into its version and description.
func parseMigrationFilename(name string) (version, humanName string, ok bool) {
	base := strings.TrimSuffix(name, ".up.sql")
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0] + "_" + parts[1], parts[2], true
}
