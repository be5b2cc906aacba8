package core

import (
	"log/slog"

	"github.com/huangsam/monthrank/schema"
)

// Year bounds that still format as a four-digit bucket key.
const (
	minYear = 0
	maxYear = 9999
)

// Group partitions records into monthly buckets. Every record must carry a year,
// a month and a numeric value; the first one that does not stops the grouping.
// Buckets come back in the order their key was first seen, and records keep their
// input order inside a bucket.
func Group(records []*schema.Record, fields schema.FieldMap, logger *slog.Logger) ([]*schema.Bucket, error) {
	index := make(map[string]*schema.Bucket)
	var buckets []*schema.Bucket

	for i, rec := range records {
		if rec == nil {
			return nil, &RecordError{Index: i, Reason: "record is null"}
		}
		year, err := rec.Int(fields.Year)
		if err != nil {
			return nil, &RecordError{Index: i, Reason: "invalid year", Err: err}
		}
		month, err := rec.Int(fields.Month)
		if err != nil {
			return nil, &RecordError{Index: i, Reason: "invalid month", Err: err}
		}
		if month < 1 || month > 12 {
			return nil, &RecordError{Index: i, Reason: "month out of range 1-12"}
		}
		if year < minYear || year > maxYear {
			return nil, &RecordError{Index: i, Reason: "year out of range 0-9999"}
		}
		if _, err := rec.Number(fields.Value); err != nil {
			return nil, &RecordError{Index: i, Reason: "invalid value", Err: err}
		}

		key := schema.BucketKey(year, month)
		b, ok := index[key]
		if !ok {
			b = &schema.Bucket{Key: key, Year: year, Month: month}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.Records = append(b.Records, rec)
	}

	if logger != nil {
		logger.Info("grouped records", "buckets", len(buckets), "records", len(records))
	}
	return buckets, nil
}
