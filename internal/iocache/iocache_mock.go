package iocache

import (
	"time"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, runUUID string, algorithm schema.Algorithm, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, runUUID, algorithm, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// RecordBucketStats implements the RunStore interface.
func (m *MockRunStore) RecordBucketStats(runID int64, stats []schema.BucketStat) error {
	args := m.Called(runID, stats)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, metrics schema.Metrics, totalRecords, totalBuckets int) error {
	args := m.Called(runID, endTime, metrics, totalRecords, totalBuckets)
	return args.Error(0)
}

// AbortRun implements the RunStore interface.
func (m *MockRunStore) AbortRun(runID int64) error {
	args := m.Called(runID)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStoreStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllBucketStats implements the RunStore interface.
func (m *MockRunStore) GetAllBucketStats() ([]schema.BucketStatRecord, error) {
	args := m.Called()
	stats, _ := args.Get(0).([]schema.BucketStatRecord)
	return stats, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
