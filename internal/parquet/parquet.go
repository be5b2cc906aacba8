// Package parquet provides data structures and functions for exporting monthrank
// run history and ranked results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/monthrank/schema"
	"github.com/parquet-go/parquet-go"
)

// RunRow represents a single pipeline run with its metrics.
// This struct maps to the monthrank_runs database table.
type RunRow struct {
	// RunID is the store-assigned identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the identifier generated by the pipeline
	RunUUID string `parquet:"run_uuid,snappy"`

	// Algorithm is the ordering strategy used
	Algorithm string `parquet:"algorithm,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs    *int64   `parquet:"run_duration_ms,optional,snappy"`
	TotalRecords     *int64   `parquet:"total_records,optional,snappy"`
	TotalBuckets     *int64   `parquet:"total_buckets,optional,snappy"`
	GroupingTime     *float64 `parquet:"grouping_time,optional,snappy"`
	SortingTime      *float64 `parquet:"sorting_time,optional,snappy"`
	MonthSortingTime *float64 `parquet:"month_sorting_time,optional,snappy"`
	TotalTime        *float64 `parquet:"total_time,optional,snappy"`
	InputSize        *int64   `parquet:"input_size,optional,snappy"`
	OutputSize       *int64   `parquet:"output_size,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// BucketStatRow represents the ranking summary of one bucket in a run.
// This struct maps to the monthrank_bucket_stats database table.
type BucketStatRow struct {
	RunID       int64   `parquet:"run_id,snappy"`
	BucketKey   string  `parquet:"bucket_key,snappy"`
	RecordCount int64   `parquet:"record_count,snappy"`
	MaxValue    string  `parquet:"max_value,snappy"`
	MinValue    string  `parquet:"min_value,snappy"`
	SortTime    float64 `parquet:"sort_time,snappy"`
}

// RankedRow is one record of a ranked result, flattened for columnar output.
type RankedRow struct {
	// BucketKey is the "YYYY-MM" key of the record's bucket
	BucketKey string `parquet:"bucket_key,snappy"`

	// Rank is the 1-based position of the record inside its bucket
	Rank int32 `parquet:"rank,snappy"`

	// Value is the decimal text of the ranking value
	Value string `parquet:"value,snappy"`

	// Country is the record's country label (nullable)
	Country *string `parquet:"country,optional,snappy"`

	// Record is the original JSON object
	Record string `parquet:"record,snappy"`
}

// WriteRunsParquet writes a slice of RunRow structs to a Parquet file.
func WriteRunsParquet(data []RunRow, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return writeRows(w, data)
	})
}

// WriteBucketStatsParquet writes a slice of BucketStatRow structs to a Parquet file.
func WriteBucketStatsParquet(data []BucketStatRow, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return writeRows(w, data)
	})
}

// WriteRanked writes ranked rows to w.
func WriteRanked(w io.Writer, data []RankedRow) error {
	return writeRows(w, data)
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeRows infers the schema from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to RunRow for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		result[i] = RunRow{
			RunID:            record.RunID,
			RunUUID:          record.RunUUID,
			Algorithm:        record.Algorithm,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			TotalRecords:     record.TotalRecords,
			TotalBuckets:     record.TotalBuckets,
			GroupingTime:     record.GroupingTime,
			SortingTime:      record.SortingTime,
			MonthSortingTime: record.MonthSortingTime,
			TotalTime:        record.TotalTime,
			InputSize:        record.InputSize,
			OutputSize:       record.OutputSize,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertBucketStatRecords converts schema.BucketStatRecord to BucketStatRow for Parquet export.
func ConvertBucketStatRecords(records []schema.BucketStatRecord) []BucketStatRow {
	result := make([]BucketStatRow, len(records))
	for i, record := range records {
		result[i] = BucketStatRow{
			RunID:       record.RunID,
			BucketKey:   record.BucketKey,
			RecordCount: record.RecordCount,
			MaxValue:    record.MaxValue,
			MinValue:    record.MinValue,
			SortTime:    record.SortTime,
		}
	}
	return result
}

// ConvertRunResult flattens a ranked result into one row per record.
// The country column is left empty for records without a country field.
func ConvertRunResult(result schema.RunResult, fields schema.FieldMap) ([]RankedRow, error) {
	var rows []RankedRow
	for _, bucket := range result.Data {
		for i, rec := range bucket.Data {
			value, err := rec.Number(fields.Value)
			if err != nil {
				return nil, fmt.Errorf("bucket %s rank %d: %w", bucket.Date, i+1, err)
			}
			row := RankedRow{
				BucketKey: bucket.Date,
				Rank:      int32(i + 1),
				Value:     value.String(),
				Record:    string(rec.Raw()),
			}
			if fields.Country != "" {
				if country, err := rec.String(fields.Country); err == nil {
					row.Country = &country
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
