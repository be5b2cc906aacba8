package schema

import "time"

// RunRecord represents a row from the monthrank_runs table.
type RunRecord struct {
	RunID            int64
	RunUUID          string
	Algorithm        string
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int64
	TotalRecords     *int64
	TotalBuckets     *int64
	GroupingTime     *float64
	SortingTime      *float64
	MonthSortingTime *float64
	TotalTime        *float64
	InputSize        *int64
	OutputSize       *int64
	ConfigParams     *string
}

// BucketStatRecord represents a row from the monthrank_bucket_stats table.
type BucketStatRecord struct {
	RunID       int64
	BucketKey   string
	RecordCount int64
	MaxValue    string
	MinValue    string
	SortTime    float64
}

// RunStoreStatus represents the status of the run history store.
type RunStoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int64            `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
