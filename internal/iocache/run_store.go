package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run tracking.
const (
	runsTable        = "monthrank_runs"
	bucketStatsTable = "monthrank_bucket_stats"
)

// runTables lists the run tracking tables in creation order.
var runTables = []string{runsTable, bucketStatsTable}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, driverName, err := openDatabase(backend, connStr)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return newRunStoreWithDB(db, backend, driverName), nil
}

// newRunStoreWithDB wraps an open connection. Tables are expected to exist.
func newRunStoreWithDB(db *sql.DB, backend schema.DatabaseBackend, driverName string) *RunStoreImpl {
	return &RunStoreImpl{db: db, backend: backend, driverName: driverName}
}

// openDatabase opens a connection for the backend without verifying it.
func openDatabase(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetRunDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, "sqlite", nil

	case schema.MySQLBackend:
		db, err := sql.Open("mysql", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		return db, "mysql", nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		return db, "pgx", nil

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{bucketStatsTable, getCreateBucketStatsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for monthrank_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				algorithm VARCHAR(16) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				total_records BIGINT,
				total_buckets BIGINT,
				grouping_time DOUBLE,
				sorting_time DOUBLE,
				month_sorting_time DOUBLE,
				total_time DOUBLE,
				input_size BIGINT,
				output_size BIGINT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				algorithm TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				total_records BIGINT,
				total_buckets BIGINT,
				grouping_time DOUBLE PRECISION,
				sorting_time DOUBLE PRECISION,
				month_sorting_time DOUBLE PRECISION,
				total_time DOUBLE PRECISION,
				input_size BIGINT,
				output_size BIGINT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				algorithm TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_records INTEGER,
				total_buckets INTEGER,
				grouping_time REAL,
				sorting_time REAL,
				month_sorting_time REAL,
				total_time REAL,
				input_size INTEGER,
				output_size INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateBucketStatsQuery returns the CREATE TABLE query for monthrank_bucket_stats.
func getCreateBucketStatsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(bucketStatsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				bucket_key VARCHAR(7) NOT NULL,
				record_count BIGINT NOT NULL,
				max_value VARCHAR(64) NOT NULL,
				min_value VARCHAR(64) NOT NULL,
				sort_time DOUBLE NOT NULL,
				PRIMARY KEY (run_id, bucket_key)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				bucket_key TEXT NOT NULL,
				record_count BIGINT NOT NULL,
				max_value TEXT NOT NULL,
				min_value TEXT NOT NULL,
				sort_time DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, bucket_key)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				bucket_key TEXT NOT NULL,
				record_count INTEGER NOT NULL,
				max_value TEXT NOT NULL,
				min_value TEXT NOT NULL,
				sort_time REAL NOT NULL,
				PRIMARY KEY (run_id, bucket_key)
			);
		`, quotedTableName)
	}
}

// disabled reports whether every call should be a no-op.
func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run record and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, runUUID string, algorithm schema.Algorithm, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, algorithm, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, runUUID, string(algorithm), startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, algorithm, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, string(algorithm), formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordBucketStats stores the per-bucket summary of a run in one transaction.
func (rs *RunStoreImpl) RecordBucketStats(runID int64, stats []schema.BucketStat) error {
	if rs.disabled() || len(stats) == 0 {
		return nil
	}

	quotedTableName := quoteTableName(bucketStatsTable, rs.backend)
	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (run_id, bucket_key, record_count, max_value, min_value, sort_time) VALUES ($1, $2, $3, $4, $5, $6)`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`INSERT INTO %s (run_id, bucket_key, record_count, max_value, min_value, sort_time) VALUES (?, ?, ?, ?, ?, ?)`, quotedTableName)
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin bucket stats transaction: %w", err)
	}
	for _, s := range stats {
		if _, err := tx.Exec(query, runID, s.Key, s.RecordCount, s.MaxValue, s.MinValue, s.SortSeconds); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert bucket stats for %s: %w", s.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bucket stats: %w", err)
	}
	return nil
}

// EndRun updates the run record with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, metrics schema.Metrics, totalRecords, totalBuckets int) error {
	if rs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	// First, get the start_time to calculate duration
	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = $1`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName)
	}
	startTime, err := scanTime(rs.db.QueryRow(query, runID), rs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	args := []any{
		formatTime(endTime, rs.backend), durationMs, totalRecords, totalBuckets,
		metrics.GroupingTime, metrics.SortingTime, metrics.MonthSortingTime, metrics.TotalTime,
		metrics.MemoryUsage.InputSize, metrics.MemoryUsage.OutputSize, runID,
	}
	var updateQuery string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_records = $3, total_buckets = $4,
			grouping_time = $5, sorting_time = $6, month_sorting_time = $7, total_time = $8,
			input_size = $9, output_size = $10 WHERE run_id = $11`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_records = ?, total_buckets = ?,
			grouping_time = ?, sorting_time = ?, month_sorting_time = ?, total_time = ?,
			input_size = ?, output_size = ? WHERE run_id = ?`, quotedTableName)
	}

	if _, err := rs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// AbortRun deletes a run and any bucket stats it recorded, so failed runs never
// show up in status or export.
func (rs *RunStoreImpl) AbortRun(runID int64) error {
	if rs.disabled() {
		return nil
	}

	placeholder := "?"
	if rs.backend == schema.PostgreSQLBackend {
		placeholder = "$1"
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin abort of run %d: %w", runID, err)
	}
	for _, table := range []string{bucketStatsTable, runsTable} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = %s`, quoteTableName(table, rs.backend), placeholder)
		if _, err := tx.Exec(query, runID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete run %d from %s: %w", runID, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit abort of run %d: %w", runID, err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStoreStatus, error) {
	status := schema.RunStoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Last run info
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)), rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		// Oldest run time
		oldestRunTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)), rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		// Total records processed
		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_records), 0) FROM %s", quotedRuns))
		if err := row.Scan(&status.TotalRecords); err != nil {
			return status, fmt.Errorf("failed to get total records: %w", err)
		}
	}

	for _, table := range runTables {
		row = rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, algorithm, start_time, end_time, run_duration_ms,
		total_records, total_buckets, grouping_time, sorting_time, month_sorting_time, total_time,
		input_size, output_size, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		tail := []any{
			&record.RunDurationMs, &record.TotalRecords, &record.TotalBuckets,
			&record.GroupingTime, &record.SortingTime, &record.MonthSortingTime, &record.TotalTime,
			&record.InputSize, &record.OutputSize, &record.ConfigParams,
		}

		switch rs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			dest := append([]any{&record.RunID, &record.RunUUID, &record.Algorithm, &startTimeStr, &endTimeStr}, tail...)
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			dest := append([]any{&record.RunID, &record.RunUUID, &record.Algorithm, &record.StartTime, &record.EndTime}, tail...)
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllBucketStats retrieves all bucket statistics from the store.
func (rs *RunStoreImpl) GetAllBucketStats() ([]schema.BucketStatRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, bucket_key, record_count, max_value, min_value, sort_time
		FROM %s ORDER BY run_id, bucket_key`, quoteTableName(bucketStatsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.BucketStatRecord
	for rows.Next() {
		var record schema.BucketStatRecord
		if err := rows.Scan(&record.RunID, &record.BucketKey, &record.RecordCount,
			&record.MaxValue, &record.MinValue, &record.SortTime); err != nil {
			return nil, fmt.Errorf("failed to scan bucket stats: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bucket stats: %w", err)
	}
	return results, nil
}

// scanTime reads a single timestamp column. SQLite stores RFC3339Nano text.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects names that could not be quoted safely.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}
