// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/monthrank/schema"
)

// StoreManager defines the interface for managing the run history store.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking pipeline runs and their bucket statistics.
type RunStore interface {
	// BeginRun creates a new run record and returns its unique ID
	BeginRun(startTime time.Time, runUUID string, algorithm schema.Algorithm, configParams map[string]any) (int64, error)

	// RecordBucketStats stores the per-bucket summary of a run
	RecordBucketStats(runID int64, stats []schema.BucketStat) error

	// EndRun updates the run record with completion data
	EndRun(runID int64, endTime time.Time, metrics schema.Metrics, totalRecords, totalBuckets int) error

	// AbortRun removes a run that failed before it could be finalized
	AbortRun(runID int64) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStoreStatus, error)

	// GetAllRuns retrieves every run record
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllBucketStats retrieves every bucket statistic
	GetAllBucketStats() ([]schema.BucketStatRecord, error)

	// Close closes the underlying connection
	Close() error
}
