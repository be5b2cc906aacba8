// Package iocache handles record I/O and the run history store.
package iocache

import (
	"sync"

	"github.com/huangsam/monthrank/internal/contract"
)

// RunStoreManager manages the RunStore instance.
type RunStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	runs         contract.RunStore
}

var _ contract.StoreManager = &RunStoreManager{} // Compile-time check

// GetRunStore returns the run history store, or nil when tracking is disabled.
func (mgr *RunStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
