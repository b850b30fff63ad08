// Package data provides thread-safe storage of the medicine reference set.
// The set is swapped atomically so suggestion lookups never see a partial load.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
)

// Compile-time check to ensure DataContainer implements ReferenceStore
var _ interfaces.ReferenceStore = (*DataContainer)(nil)

// DataContainer holds the reference dataset with atomic pointers for zero-downtime updates
type DataContainer struct {
	medicines       atomic.Value // []entities.Medicine
	source          atomic.Value // string
	lastLoaded      atomic.Value // time.Time
	loading         atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.medicines.Store(make([]entities.Medicine, 0))
	dc.source.Store("")
	dc.lastLoaded.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetMedicines returns the reference rows in dataset order.
// Callers must treat the slice as read-only.
func (dc *DataContainer) GetMedicines() []entities.Medicine {
	if v := dc.medicines.Load(); v != nil {
		if medicines, ok := v.([]entities.Medicine); ok {
			return medicines
		}
	}

	logging.Warn("Medicine reference list is empty or invalid")
	return []entities.Medicine{}
}

// GetSource returns where the current reference set came from
func (dc *DataContainer) GetSource() string {
	if v, ok := dc.source.Load().(string); ok {
		return v
	}
	return ""
}

// GetLastLoaded returns the timestamp of the last dataset load
func (dc *DataContainer) GetLastLoaded() time.Time {
	if v := dc.lastLoaded.Load(); v != nil {
		if lastLoaded, ok := v.(time.Time); ok {
			return lastLoaded
		}
	}

	logging.Warn("Could not get the last loaded value")
	return time.Time{}
}

// IsLoading returns true if a dataset load is currently in progress
func (dc *DataContainer) IsLoading() bool {
	return dc.loading.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the reference set
func (dc *DataContainer) UpdateData(medicines []entities.Medicine, source string) {
	if medicines == nil {
		medicines = make([]entities.Medicine, 0)
	}
	dc.medicines.Store(medicines)
	dc.source.Store(source)
	dc.lastLoaded.Store(time.Now())
}

// BeginUpdate marks the start of a dataset load.
// Returns true if the load can proceed, false if another load is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.loading.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a dataset load
func (dc *DataContainer) EndUpdate() {
	dc.loading.Store(false)
}
