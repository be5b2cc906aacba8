package core

import (
	"testing"
	"time"

	"github.com/huangsam/monthrank/schema"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecorder(t *testing.T) {
	rec := fakeRecorder(250 * time.Millisecond)()

	stop := rec.Start(schema.GroupingStage)
	assert.Equal(t, 250*time.Millisecond, stop())

	rec.Add(schema.SortingStage, time.Second)
	rec.Add(schema.SortingStage, 500*time.Millisecond)

	stop = rec.Start(schema.MonthSortingStage)
	stop()
	rec.SetSizes(120, 150)

	m := rec.Metrics()
	assert.InDelta(t, 0.25, m.GroupingTime, 1e-9)
	assert.InDelta(t, 0.25, m.MonthSortingTime, 1e-9)
	assert.InDelta(t, 1.75, m.SortingTime, 1e-9, "sorting includes the month sort")
	assert.InDelta(t, 2.0, m.TotalTime, 1e-9)
	assert.Equal(t, 120, m.MemoryUsage.InputSize)
	assert.Equal(t, 150, m.MemoryUsage.OutputSize)
	assert.Equal(t, uint64(2048), m.MemoryUsage.PeakMemory)
}

func TestMetricsRecorder_Empty(t *testing.T) {
	rec := newMetricsRecorder(time.Now, nil)
	rec.SampleMemory()
	assert.Equal(t, schema.Metrics{}, rec.Metrics())
}
