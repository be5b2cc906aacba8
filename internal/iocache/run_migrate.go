package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/monthrank/schema"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// migrationsTable keeps the migrate bookkeeping apart from other tools sharing the database.
const migrationsTable = "monthrank_schema_migrations"

// MigrateRuns migrates the run store schema and reports the outcome on stdout.
// A negative targetVersion migrates to the latest version and zero rolls back everything.
func MigrateRuns(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	return migrateRuns(os.Stdout, backend, connStr, targetVersion)
}

func migrateRuns(w io.Writer, backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend || backend == "" {
		return fmt.Errorf("migrations are not supported for the %q backend", backend)
	}

	db, _, err := openDatabase(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := newMigrator(db, backend)
	if err != nil {
		return err
	}
	return applyMigration(w, m, targetVersion)
}

// newMigrator builds a migrate instance over the embedded migrations of the backend's dialect.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	var driver database.Driver
	var err error
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "monthrank", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// applyMigration moves the schema to targetVersion. Negative means latest, zero
// means a full rollback.
func applyMigration(w io.Writer, m *migrate.Migrate, targetVersion int) error {
	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("run store schema is dirty at version %d; repair it before migrating", from)
	}

	var step func() error
	var target string
	switch {
	case targetVersion < 0:
		step, target = m.Up, "the latest version"
	case targetVersion == 0:
		step, target = m.Down, "version 0"
	default:
		step = func() error { return m.Migrate(uint(targetVersion)) }
		target = fmt.Sprintf("version %d", targetVersion)
	}

	err = step()
	if errors.Is(err, migrate.ErrNoChange) {
		_, _ = fmt.Fprintf(w, "Run store already at %s.\n", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate run store to %s: %w", target, err)
	}

	to, _, _ := m.Version()
	if targetVersion == 0 {
		to = 0
	}
	_, _ = fmt.Fprintf(w, "Migrated run store from version %d to version %d\n", from, to)
	return nil
}
