package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/monthrank/core/algo"
	"github.com/huangsam/monthrank/schema"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Pipeline groups records into monthly buckets, ranks each bucket by value and
// orders the buckets chronologically.
type Pipeline struct {
	Ordering algo.Ordering
	Fields   schema.FieldMap
	Workers  int          // > 1 sorts buckets concurrently
	Logger   *slog.Logger // nil discards events
	RunID    string       // empty generates a new UUID per run

	newRecorder func() *MetricsRecorder
}

// sortedBucket is a bucket after ranking, with the time its sort took.
type sortedBucket struct {
	bucket  *schema.Bucket
	elapsed time.Duration
}

// Process runs the pipeline. On error the result is empty; nothing partial escapes.
func (p *Pipeline) Process(ctx context.Context, records []*schema.Record) (schema.RunResult, error) {
	if p.Ordering == nil {
		return schema.RunResult{}, errors.New("pipeline has no ordering")
	}

	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := p.logger().With("run_id", runID, "algorithm", string(p.Ordering.Name()))

	if len(records) == 0 {
		log.Info("no records to process")
		return schema.RunResult{
			RunID:     runID,
			Algorithm: p.Ordering.Name(),
			Data:      []schema.BucketResult{},
		}, nil
	}

	rec := p.recorder()

	// --- 1. Grouping ---
	stop := rec.Start(schema.GroupingStage)
	buckets, err := Group(records, p.Fields, log)
	stop()
	if err != nil {
		return schema.RunResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return schema.RunResult{}, err
	}

	// --- 2. Per-bucket ranking ---
	sorted, err := p.sortBuckets(ctx, log, buckets)
	if err != nil {
		return schema.RunResult{}, err
	}
	elapsedByKey := make(map[string]time.Duration, len(sorted))
	for _, sb := range sorted {
		rec.Add(schema.SortingStage, sb.elapsed)
		elapsedByKey[sb.bucket.Key] = sb.elapsed
	}
	rec.SampleMemory()

	// --- 3. Chronological bucket order ---
	ranked := make([]*schema.Bucket, len(sorted))
	for i, sb := range sorted {
		ranked[i] = sb.bucket
	}
	stop = rec.Start(schema.MonthSortingStage)
	ordered, err := algo.SortBy(p.Ordering, ranked, chronologicalKey, algo.Ascending)
	elapsed := stop()
	if err != nil {
		return schema.RunResult{}, fmt.Errorf("failed to sort months: %w", err)
	}
	log.Info("sorted months", "buckets", len(ordered), "duration", elapsed)

	// --- 4. Assembly ---
	data := make([]schema.BucketResult, len(ordered))
	stats := make([]schema.BucketStat, len(ordered))
	valueOf := valueKey(p.Fields.Value)
	for i, b := range ordered {
		data[i] = schema.BucketResult{Date: b.Key, Data: b.Records}
		stats[i], err = bucketStat(b, valueOf, elapsedByKey[b.Key])
		if err != nil {
			return schema.RunResult{}, err
		}
	}

	inputSize, err := serializedSize(records)
	if err != nil {
		return schema.RunResult{}, fmt.Errorf("failed to measure input: %w", err)
	}
	outputSize, err := serializedSize(data)
	if err != nil {
		return schema.RunResult{}, fmt.Errorf("failed to measure output: %w", err)
	}
	rec.SetSizes(inputSize, outputSize)

	metrics := rec.Metrics()
	log.Info("run complete",
		"grouping_time", metrics.GroupingTime,
		"sorting_time", metrics.SortingTime,
		"month_sorting_time", metrics.MonthSortingTime,
		"total_time", metrics.TotalTime,
		"input_size", metrics.MemoryUsage.InputSize,
		"output_size", metrics.MemoryUsage.OutputSize,
	)

	return schema.RunResult{
		RunID:       runID,
		Algorithm:   p.Ordering.Name(),
		Data:        data,
		Metrics:     metrics,
		BucketStats: stats,
		RecordCount: len(records),
	}, nil
}

// sortBuckets ranks every bucket by value. With more than one worker the buckets
// are ranked concurrently; each task owns its slot and Wait is the join.
func (p *Pipeline) sortBuckets(ctx context.Context, log *slog.Logger, buckets []*schema.Bucket) ([]sortedBucket, error) {
	out := make([]sortedBucket, len(buckets))
	valueOf := valueKey(p.Fields.Value)

	sortOne := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := buckets[i]
		start := time.Now()
		records, err := algo.SortBy(p.Ordering, b.Records, valueOf, algo.Descending)
		if err != nil {
			return fmt.Errorf("failed to sort bucket %s: %w", b.Key, err)
		}
		elapsed := time.Since(start)
		out[i] = sortedBucket{
			bucket:  &schema.Bucket{Key: b.Key, Year: b.Year, Month: b.Month, Records: records},
			elapsed: elapsed,
		}
		log.Info("sorted bucket", "bucket", b.Key, "records", len(records), "duration", elapsed)
		return nil
	}

	if p.Workers <= 1 {
		for i := range buckets {
			if err := sortOne(ctx, i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := range buckets {
		g.Go(func() error {
			return sortOne(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func (p *Pipeline) recorder() *MetricsRecorder {
	if p.newRecorder != nil {
		return p.newRecorder()
	}
	return NewMetricsRecorder()
}

// valueKey extracts the ranking value of a record as an exact decimal.
func valueKey(path schema.FieldPath) algo.KeyFunc[*schema.Record] {
	return func(r *schema.Record) (algo.Key, error) {
		num, err := r.Number(path)
		if err != nil {
			return algo.Key{}, err
		}
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			return algo.Key{}, fmt.Errorf("field %s: %w", path, err)
		}
		return d, nil
	}
}

func chronologicalKey(b *schema.Bucket) (algo.Key, error) {
	return decimal.NewFromInt(b.Chronological()), nil
}

func bucketStat(b *schema.Bucket, valueOf algo.KeyFunc[*schema.Record], elapsed time.Duration) (schema.BucketStat, error) {
	stat := schema.BucketStat{
		Key:         b.Key,
		RecordCount: len(b.Records),
		SortSeconds: elapsed.Seconds(),
	}
	if len(b.Records) == 0 {
		return stat, nil
	}
	top, err := valueOf(b.Records[0])
	if err != nil {
		return stat, err
	}
	bottom, err := valueOf(b.Records[len(b.Records)-1])
	if err != nil {
		return stat, err
	}
	stat.MaxValue = top.String()
	stat.MinValue = bottom.String()
	return stat, nil
}

func serializedSize(v any) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
