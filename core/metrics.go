package core

import (
	"runtime"
	"time"

	"github.com/huangsam/monthrank/schema"
)

// MetricsRecorder accumulates stage timings and size accounting for one run.
// It is not safe for concurrent use; parallel work measures itself and reports
// through Add after joining.
type MetricsRecorder struct {
	now        func() time.Time
	heapInUse  func() uint64
	durations  map[schema.Stage]time.Duration
	inputSize  int
	outputSize int
	peak       uint64
}

// NewMetricsRecorder creates a recorder backed by the wall clock and the Go heap.
func NewMetricsRecorder() *MetricsRecorder {
	return newMetricsRecorder(time.Now, readHeapInUse)
}

func newMetricsRecorder(now func() time.Time, heapInUse func() uint64) *MetricsRecorder {
	return &MetricsRecorder{
		now:       now,
		heapInUse: heapInUse,
		durations: make(map[schema.Stage]time.Duration),
	}
}

// Start begins timing a stage. The returned func stops the timer, adds the
// elapsed time to the stage and returns it.
func (m *MetricsRecorder) Start(stage schema.Stage) func() time.Duration {
	begin := m.now()
	return func() time.Duration {
		elapsed := m.now().Sub(begin)
		m.durations[stage] += elapsed
		m.SampleMemory()
		return elapsed
	}
}

// Add adds an externally measured duration to a stage.
func (m *MetricsRecorder) Add(stage schema.Stage, d time.Duration) {
	m.durations[stage] += d
}

// SetSizes records the serialized input and output sizes in bytes.
func (m *MetricsRecorder) SetSizes(input, output int) {
	m.inputSize = input
	m.outputSize = output
}

// SampleMemory keeps the largest heap-in-use value seen so far.
func (m *MetricsRecorder) SampleMemory() {
	if m.heapInUse == nil {
		return
	}
	m.peak = max(m.peak, m.heapInUse())
}

// Metrics returns the snapshot of the run. Sorting time includes the month sort
// and the total is grouping plus all sorting.
func (m *MetricsRecorder) Metrics() schema.Metrics {
	grouping := m.durations[schema.GroupingStage].Seconds()
	monthSorting := m.durations[schema.MonthSortingStage].Seconds()
	sorting := m.durations[schema.SortingStage].Seconds() + monthSorting

	return schema.Metrics{
		GroupingTime:     grouping,
		SortingTime:      sorting,
		MonthSortingTime: monthSorting,
		TotalTime:        grouping + sorting,
		MemoryUsage: schema.MemoryUsage{
			InputSize:  m.inputSize,
			OutputSize: m.outputSize,
			PeakMemory: m.peak,
		},
	}
}

func readHeapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}
