package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
)

// Manager holds the process-wide run store; InitStores fills it once.
var (
	Manager   = &RunStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetRunDBFilePath returns the path to the SQLite DB file for run history.
func GetRunDBFilePath() string {
	return contract.GetRunDBFilePath()
}

// InitStores initializes the global manager with the run history store.
// An empty backend disables run tracking.
func InitStores(runsBackend schema.DatabaseBackend, runsConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		if runsBackend == "" {
			return
		}
		store, err := NewRunStore(runsBackend, runsConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize run store: %w", err)
			return
		}
		Manager.Lock()
		Manager.runs = store
		Manager.Unlock()
	})

	return initErr
}

// CloseStores releases the run store. Later calls are no-ops.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// ClearRuns forgets all tracked runs. SQLite loses its database file, while
// MySQL and PostgreSQL drop the run tables along with the migration bookkeeping.
func ClearRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.NoneBackend:
		return nil
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return errors.New("no run database file to clear")
		}
		if err := os.Remove(dbFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove run database %s: %w", dbFilePath, err)
		}
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, _, err := openDatabase(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to reach %s run store: %w", backend, err)
		}
		return dropTables(db, backend, clearableTables())
	default:
		return fmt.Errorf("unsupported runs backend for clearing: %s", backend)
	}
}

// clearableTables lists the run tables plus the migrate bookkeeping table.
func clearableTables() []string {
	return []string{runsTable, bucketStatsTable, migrationsTable}
}

// dropTables drops every table, stopping at the first failure.
func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables []string) error {
	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
