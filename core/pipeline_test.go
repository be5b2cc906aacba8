package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/monthrank/core/algo"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/huangsam/monthrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input string) []*schema.Record {
	t.Helper()
	records, err := iocache.DecodeRecords(strings.NewReader(input))
	require.NoError(t, err)
	return records
}

// dailyRecord builds one record in the shape of the daily case-count dataset.
func dailyRecord(year, month, day int, cases any, country string) string {
	return fmt.Sprintf(`{"Date": {"Year": %d, "Month": %d, "Day": %d}, "Data": {"Cases": %v}, "Location": {"Country": %q}}`,
		year, month, day, cases, country)
}

// randomRecords draws n records over three years with many repeated values.
func randomRecords(t *testing.T, n int) []*schema.Record {
	t.Helper()
	r := rand.New(rand.NewPCG(7, 11))
	countries := []string{"Italy", "Spain", "France", "Chile", "Kenya"}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = dailyRecord(2019+r.IntN(3), 1+r.IntN(12), 1+r.IntN(28), r.IntN(50), countries[r.IntN(len(countries))])
	}
	return decode(t, "["+strings.Join(parts, ",")+"]")
}

func newPipeline(t *testing.T, name schema.Algorithm) *Pipeline {
	t.Helper()
	ordering, err := algo.New(name, nil)
	require.NoError(t, err)
	return &Pipeline{Ordering: ordering, Fields: schema.DefaultFieldMap()}
}

func values(t *testing.T, records []*schema.Record) []string {
	t.Helper()
	out := make([]string, len(records))
	for i, rec := range records {
		num, err := rec.Number(schema.DefaultValueField)
		require.NoError(t, err)
		out[i] = num.String()
	}
	return out
}

func TestProcess_Scenario(t *testing.T) {
	input := "[" + strings.Join([]string{
		dailyRecord(2020, 1, 1, 5, "Italy"),
		dailyRecord(2020, 1, 2, 9, "Italy"),
		dailyRecord(2020, 2, 1, 3, "Italy"),
	}, ",") + "]"

	for _, name := range schema.AllAlgorithms {
		t.Run(string(name), func(t *testing.T) {
			result, err := newPipeline(t, name).Process(context.Background(), decode(t, input))
			require.NoError(t, err)

			require.Len(t, result.Data, 2)
			assert.Equal(t, "2020-01", result.Data[0].Date)
			assert.Equal(t, []string{"9", "5"}, values(t, result.Data[0].Data))
			assert.Equal(t, "2020-02", result.Data[1].Date)
			assert.Equal(t, []string{"3"}, values(t, result.Data[1].Data))

			assert.Equal(t, name, result.Algorithm)
			assert.NotEmpty(t, result.RunID)
			assert.Equal(t, 3, result.RecordCount)
			assert.Positive(t, result.Metrics.MemoryUsage.InputSize)
			assert.Positive(t, result.Metrics.MemoryUsage.OutputSize)
		})
	}
}

func TestProcess_Properties(t *testing.T) {
	records := randomRecords(t, 300)

	for _, name := range schema.AllAlgorithms {
		t.Run(string(name), func(t *testing.T) {
			result, err := newPipeline(t, name).Process(context.Background(), records)
			require.NoError(t, err)

			seen := make(map[*schema.Record]int)
			prevKey := ""
			for _, bucket := range result.Data {
				// Buckets are strictly chronological
				assert.Greater(t, bucket.Date, prevKey)
				prevKey = bucket.Date

				for i, rec := range bucket.Data {
					seen[rec]++

					year, err := rec.Int(schema.DefaultYearField)
					require.NoError(t, err)
					month, err := rec.Int(schema.DefaultMonthField)
					require.NoError(t, err)
					assert.Equal(t, bucket.Date, schema.BucketKey(year, month))

					if i > 0 {
						prev, err := valueKey(schema.DefaultValueField)(bucket.Data[i-1])
						require.NoError(t, err)
						cur, err := valueKey(schema.DefaultValueField)(rec)
						require.NoError(t, err)
						assert.True(t, prev.GreaterThanOrEqual(cur), "bucket %s is not descending at %d", bucket.Date, i)
					}
				}
			}

			// Every record appears exactly once
			assert.Len(t, seen, len(records))
			for _, rec := range records {
				assert.Equal(t, 1, seen[rec])
			}
		})
	}
}

func TestProcess_Idempotent(t *testing.T) {
	records := randomRecords(t, 120)
	p := newPipeline(t, schema.MergeSort)

	first, err := p.Process(context.Background(), records)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)

	// Ranking an already ranked output changes nothing
	var flattened []*schema.Record
	for _, bucket := range first.Data {
		flattened = append(flattened, bucket.Data...)
	}
	again, err := p.Process(context.Background(), flattened)
	require.NoError(t, err)
	assert.Equal(t, first.Data, again.Data)
}

func TestProcess_AlgorithmsAgree(t *testing.T) {
	records := randomRecords(t, 200)

	bubble, err := newPipeline(t, schema.BubbleSort).Process(context.Background(), records)
	require.NoError(t, err)
	merge, err := newPipeline(t, schema.MergeSort).Process(context.Background(), records)
	require.NoError(t, err)

	assert.NoError(t, CompareResults(bubble, merge, schema.DefaultFieldMap()))
	// Both keep ties in input order, so even record identity matches
	assert.Equal(t, bubble.Data, merge.Data)
}

func TestProcess_TiesKeepInputOrder(t *testing.T) {
	input := "[" + strings.Join([]string{
		dailyRecord(2020, 3, 1, 4, "Italy"),
		dailyRecord(2020, 3, 2, 8, "Spain"),
		dailyRecord(2020, 3, 3, 4, "France"),
		dailyRecord(2020, 3, 4, 8, "Chile"),
	}, ",") + "]"

	for _, name := range schema.AllAlgorithms {
		t.Run(string(name), func(t *testing.T) {
			result, err := newPipeline(t, name).Process(context.Background(), decode(t, input))
			require.NoError(t, err)
			require.Len(t, result.Data, 1)

			var countries []string
			for _, rec := range result.Data[0].Data {
				c, err := rec.String(schema.DefaultCountryField)
				require.NoError(t, err)
				countries = append(countries, c)
			}
			assert.Equal(t, []string{"Spain", "Chile", "Italy", "France"}, countries)
		})
	}
}

func TestProcess_Boundaries(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		result, err := newPipeline(t, schema.MergeSort).Process(context.Background(), nil)
		require.NoError(t, err)
		assert.NotNil(t, result.Data)
		assert.Empty(t, result.Data)
		assert.Equal(t, schema.Metrics{}, result.Metrics)

		out, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"data":[]`)
	})

	t.Run("single record", func(t *testing.T) {
		records := decode(t, "["+dailyRecord(1999, 12, 31, 1, "Italy")+"]")
		result, err := newPipeline(t, schema.BubbleSort).Process(context.Background(), records)
		require.NoError(t, err)
		require.Len(t, result.Data, 1)
		assert.Equal(t, "1999-12", result.Data[0].Date)
		assert.Same(t, records[0], result.Data[0].Data[0])
	})

	t.Run("input is not mutated", func(t *testing.T) {
		records := randomRecords(t, 50)
		before := append([]*schema.Record(nil), records...)
		_, err := newPipeline(t, schema.MergeSort).Process(context.Background(), records)
		require.NoError(t, err)
		assert.Equal(t, before, records)
	})

	t.Run("decimal values", func(t *testing.T) {
		input := "[" + dailyRecord(2020, 1, 1, "0.1", "A") + "," + dailyRecord(2020, 1, 2, "1e2", "B") + "," + dailyRecord(2020, 1, 3, "-3", "C") + "]"
		result, err := newPipeline(t, schema.MergeSort).Process(context.Background(), decode(t, input))
		require.NoError(t, err)
		assert.Equal(t, []string{"1e2", "0.1", "-3"}, values(t, result.Data[0].Data))
	})
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name      string
		record    string
		wantIs    error
		wantIndex int
	}{
		{name: "missing month", record: `{"Date": {"Year": 2020}, "Data": {"Cases": 1}}`, wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "month out of range", record: dailyRecord(2020, 13, 1, 1, "X"), wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "fractional year", record: `{"Date": {"Year": 2020.5, "Month": 1}, "Data": {"Cases": 1}}`, wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "year as string", record: `{"Date": {"Year": "2020", "Month": 1}, "Data": {"Cases": 1}}`, wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "missing value", record: `{"Date": {"Year": 2020, "Month": 1}}`, wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "value as string", record: `{"Date": {"Year": 2020, "Month": 1}, "Data": {"Cases": "many"}}`, wantIs: ErrMalformedRecord, wantIndex: 1},
		{name: "value beyond decimal range", record: `{"Date": {"Year": 2020, "Month": 1}, "Data": {"Cases": 1e99999999999}}`, wantIs: algo.ErrKeyExtraction, wantIndex: 1},
	}

	for _, name := range schema.AllAlgorithms {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", name, tt.name), func(t *testing.T) {
				input := "[" + dailyRecord(2020, 1, 1, 5, "Italy") + "," + tt.record + "]"
				result, err := newPipeline(t, name).Process(context.Background(), decode(t, input))
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantIs)
				assert.Empty(t, result.Data)

				var recErr *RecordError
				var keyErr *algo.KeyError
				switch {
				case errors.As(err, &recErr):
					assert.Equal(t, tt.wantIndex, recErr.Index)
				case errors.As(err, &keyErr):
					assert.Equal(t, tt.wantIndex, keyErr.Index)
				default:
					t.Fatalf("unexpected error type %T", err)
				}
			})
		}
	}

	t.Run("null record", func(t *testing.T) {
		_, err := newPipeline(t, schema.MergeSort).Process(context.Background(), []*schema.Record{nil})
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("no ordering", func(t *testing.T) {
		_, err := (&Pipeline{}).Process(context.Background(), randomRecords(t, 3))
		assert.Error(t, err)
	})
}

func TestProcess_ParallelMatchesSequential(t *testing.T) {
	records := randomRecords(t, 400)

	for _, name := range schema.AllAlgorithms {
		t.Run(string(name), func(t *testing.T) {
			sequential, err := newPipeline(t, name).Process(context.Background(), records)
			require.NoError(t, err)

			p := newPipeline(t, name)
			p.Workers = 4
			parallel, err := p.Process(context.Background(), records)
			require.NoError(t, err)

			assert.Equal(t, sequential.Data, parallel.Data)
			assert.Equal(t, sequential.BucketStats[0].Key, parallel.BucketStats[0].Key)
		})
	}
}

func TestProcess_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		p := newPipeline(t, schema.MergeSort)
		p.Workers = workers
		result, err := p.Process(ctx, randomRecords(t, 20))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, result.Data)
	}
}

// fakeRecorder returns recorders whose clock moves one step per reading.
func fakeRecorder(step time.Duration) func() *MetricsRecorder {
	return func() *MetricsRecorder {
		now := time.Unix(0, 0)
		var heap uint64
		return newMetricsRecorder(
			func() time.Time { now = now.Add(step); return now },
			func() uint64 { heap += 1024; return heap },
		)
	}
}

func TestProcess_MetricsAndStats(t *testing.T) {
	input := "[" + strings.Join([]string{
		dailyRecord(2020, 2, 1, 3, "Italy"),
		dailyRecord(2020, 1, 1, 5, "Italy"),
		dailyRecord(2020, 1, 2, 9, "Spain"),
	}, ",") + "]"
	records := decode(t, input)

	p := newPipeline(t, schema.MergeSort)
	p.newRecorder = fakeRecorder(time.Second)
	result, err := p.Process(context.Background(), records)
	require.NoError(t, err)

	m := result.Metrics
	assert.InDelta(t, 1.0, m.GroupingTime, 1e-9)
	assert.InDelta(t, 1.0, m.MonthSortingTime, 1e-9)
	assert.GreaterOrEqual(t, m.SortingTime, m.MonthSortingTime)
	assert.InDelta(t, m.GroupingTime+m.SortingTime, m.TotalTime, 1e-9)
	assert.Positive(t, m.MemoryUsage.PeakMemory)

	inputJSON, err := json.Marshal(records)
	require.NoError(t, err)
	outputJSON, err := json.Marshal(result.Data)
	require.NoError(t, err)
	assert.Equal(t, len(inputJSON), m.MemoryUsage.InputSize)
	assert.Equal(t, len(outputJSON), m.MemoryUsage.OutputSize)

	require.Len(t, result.BucketStats, 2)
	assert.Equal(t, "2020-01", result.BucketStats[0].Key)
	assert.Equal(t, 2, result.BucketStats[0].RecordCount)
	assert.Equal(t, "9", result.BucketStats[0].MaxValue)
	assert.Equal(t, "5", result.BucketStats[0].MinValue)
	assert.Equal(t, "2020-02", result.BucketStats[1].Key)
}

func TestProcess_LogsEvents(t *testing.T) {
	var buf bytes.Buffer
	p := newPipeline(t, schema.BubbleSort)
	p.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	p.RunID = "run-1"

	_, err := p.Process(context.Background(), randomRecords(t, 30))
	require.NoError(t, err)

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		assert.Equal(t, "run-1", event["run_id"])
		assert.Equal(t, "bubble", event["algorithm"])
		messages = append(messages, event["msg"].(string))
	}
	assert.Contains(t, messages, "grouped records")
	assert.Contains(t, messages, "sorted bucket")
	assert.Contains(t, messages, "sorted months")
	assert.Equal(t, "run complete", messages[len(messages)-1])
}
