package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/huangsam/monthrank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run history operations.
// It avoids input validation since no records are ranked.
func runsSetup() error {
	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for run history commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetupWrapper loads the backend settings without opening the store,
// so migrations can run against a fresh database.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = iocache.GetRunDBFilePath()
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of tracked ranking runs",
	Long: `Manage the run history recorded when --runs-backend is set.

Each tracked run stores its algorithm, configuration, stage timings and one
summary row per month (record count, largest and smallest value, sort time).

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Examples:
  # Check tracking status
  monthrank runs status --runs-backend sqlite

  # Export for analysis in pandas/DuckDB
  monthrank runs export --runs-backend sqlite --output-file history`,
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("run tracking is disabled; set --runs-backend"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all tracked runs to two Parquet files:

  <output-file>.runs.parquet          one row per run
  <output-file>.bucket_stats.parquet  one row per month of every run

Requires: --output-file parameter

Examples:
  monthrank runs export --runs-backend sqlite --output-file history
  duckdb -c "SELECT algorithm, avg(total_time) FROM read_parquet('history.runs.parquet') GROUP BY 1"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(os.Stdout, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked run history",
	Long: `Delete all stored runs and month statistics.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunsBackend, iocache.GetRunDBFilePath(), cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  monthrank runs migrate --runs-backend sqlite

  # Rollback to initial state
  monthrank runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
