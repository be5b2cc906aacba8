package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/parquet"
)

// ExecuteRunsExport exports the run history of the global manager to Parquet files.
func ExecuteRunsExport(w io.Writer, outputFile string) error {
	return exportRuns(w, Manager.GetRunStore(), outputFile)
}

func exportRuns(w io.Writer, store contract.RunStore, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled; set --runs-backend to export runs")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total bucket records: %d\n", status.TableSizes[bucketStatsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	bucketStats, err := store.GetAllBucketStats()
	if err != nil {
		return fmt.Errorf("failed to retrieve bucket stats: %w", err)
	}

	runRows := parquet.ConvertRunRecords(runs)
	bucketRows := parquet.ConvertBucketStatRecords(bucketStats)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(runRows, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runRows), runsFile)

	bucketsFile := outputFile + ".bucket_stats.parquet"
	if err := parquet.WriteBucketStatsParquet(bucketRows, bucketsFile); err != nil {
		return fmt.Errorf("failed to write bucket stats: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d bucket records to: %s\n", len(bucketRows), bucketsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}
