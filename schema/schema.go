// Package schema has models, enums and defaults shared by all parts of monthrank.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Bucket is the group of records sharing a (year, month) pair.
// Records are in input order until the pipeline ranks them.
type Bucket struct {
	Key     string
	Year    int
	Month   int
	Records []*Record
}

// Chronological returns a sortable integer for the bucket's (year, month).
func (b *Bucket) Chronological() int64 {
	return int64(b.Year)*100 + int64(b.Month)
}

// BucketResult is one entry of the ranked output.
type BucketResult struct {
	Date string    `json:"date"`
	Data []*Record `json:"data"`
}

// MemoryUsage holds the size accounting of a run.
type MemoryUsage struct {
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	PeakMemory uint64 `json:"peak_memory"`
}

// Metrics holds the timings of a run in seconds plus its size accounting.
type Metrics struct {
	GroupingTime     float64     `json:"grouping_time"`
	SortingTime      float64     `json:"sorting_time"`
	MonthSortingTime float64     `json:"month_sorting_time"`
	TotalTime        float64     `json:"total_time"`
	MemoryUsage      MemoryUsage `json:"memory_usage"`
}

// RunResult is the outcome of one pipeline run. Only Data and Metrics are persisted
// in the JSON output.
type RunResult struct {
	RunID       string         `json:"-"`
	Algorithm   Algorithm      `json:"-"`
	Data        []BucketResult `json:"data"`
	Metrics     Metrics        `json:"metrics"`
	BucketStats []BucketStat   `json:"-"`
	RecordCount int            `json:"-"`
}

// BucketStat summarizes one ranked bucket for the run history.
type BucketStat struct {
	Key         string
	RecordCount int
	MaxValue    string // decimal text of the top-ranked value
	MinValue    string // decimal text of the bottom-ranked value
	SortSeconds float64
}

// CountryPeak is the highest value a country reached within one month.
type CountryPeak struct {
	Country string      `json:"country"`
	Value   json.Number `json:"cases"`
	Date    string      `json:"date"`
}

// MonthSummary lists the top country peaks of one month.
type MonthSummary struct {
	Date  string        `json:"date"`
	Peaks []CountryPeak `json:"data"`
}

// AlgorithmRun is the outcome of one algorithm when every algorithm runs on the same input.
type AlgorithmRun struct {
	Algorithm  Algorithm `json:"algorithm"`
	RunID      string    `json:"run_id"`
	OutputPath string    `json:"output_path"`
	Buckets    int       `json:"buckets"`
	Records    int       `json:"records"`
	Metrics    Metrics   `json:"metrics"`
}

// ComparisonResult holds the runs of every algorithm on the same input.
// Equivalent is true when all runs agree on bucket assignment and value rank order.
type ComparisonResult struct {
	Runs       []AlgorithmRun `json:"runs"`
	Equivalent bool           `json:"equivalent"`
}

// BucketKey formats a (year, month) pair as "YYYY-MM".
func BucketKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseBucketKey splits a "YYYY-MM" key into its year and month.
func ParseBucketKey(key string) (year, month int, err error) {
	y, m, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid bucket key %q: expected YYYY-MM", key)
	}
	if year, err = strconv.Atoi(y); err != nil {
		return 0, 0, fmt.Errorf("invalid year in bucket key %q: %w", key, err)
	}
	if month, err = strconv.Atoi(m); err != nil {
		return 0, 0, fmt.Errorf("invalid month in bucket key %q: %w", key, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in bucket key %q: must be 1-12", key)
	}
	return year, month, nil
}
