// Package data provides thread-safe storage for the loaded SmPC records.
// DataContainer swaps whole snapshots atomically so readers never observe a
// half-applied update and never block on a refresh.
package data

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/record"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

type snapshot struct {
	interfaces.Snapshot
	byKey map[string]record.Record
}

// DataContainer holds the current snapshot
type DataContainer struct {
	current         atomic.Value // *snapshot
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a container in the loading state
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{
		Snapshot: interfaces.Snapshot{State: interfaces.StateLoading, Records: []record.Record{}},
		byKey:    map[string]record.Record{},
	})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if v := dc.current.Load(); v != nil {
		if s, ok := v.(*snapshot); ok {
			return s
		}
	}

	logging.Warn("Data snapshot is empty or invalid")
	return &snapshot{
		Snapshot: interfaces.Snapshot{State: interfaces.StateLoading, Records: []record.Record{}},
		byKey:    map[string]record.Record{},
	}
}

// Snapshot returns a consistent view of every field at once
func (dc *DataContainer) Snapshot() interfaces.Snapshot {
	return dc.load().Snapshot
}

// GetState returns the view state
func (dc *DataContainer) GetState() interfaces.ViewState {
	return dc.load().State
}

// GetRecords returns the loaded records in upstream order. The slice is shared
// and must not be modified.
func (dc *DataContainer) GetRecords() []record.Record {
	return dc.load().Records
}

// Lookup finds a record by key. When keys collide the first record wins.
func (dc *DataContainer) Lookup(key string) (record.Record, bool) {
	r, ok := dc.load().byKey[key]
	return r, ok
}

// GetVersion returns the id of the loaded data set, empty before the first load
func (dc *DataContainer) GetVersion() string {
	return dc.load().Version
}

// GetLastUpdated returns when the records were last replaced
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().LastUpdated
}

// GetError returns the error of the last failed fetch, nil after a success
func (dc *DataContainer) GetError() error {
	return dc.load().Err
}

// GetReport returns the data quality report of the current records
func (dc *DataContainer) GetReport() interfaces.DataQualityReport {
	return dc.load().Report
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
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

// UpdateData replaces the records and moves the container to ready
func (dc *DataContainer) UpdateData(records []record.Record, report interfaces.DataQualityReport) {
	if records == nil {
		records = []record.Record{}
	}

	byKey := make(map[string]record.Record, len(records))
	for _, r := range records {
		if _, dup := byKey[r.Key]; !dup {
			byKey[r.Key] = r
		}
	}

	dc.current.Store(&snapshot{
		Snapshot: interfaces.Snapshot{
			State:       interfaces.StateReady,
			Records:     records,
			Version:     uuid.NewString(),
			LastUpdated: time.Now(),
			Report:      report,
		},
		byKey: byKey,
	})
}

// MarkFailed records a fetch failure. Before the first successful load the
// container moves to the error state; once ready it keeps serving the
// previous records and only remembers the error.
func (dc *DataContainer) MarkFailed(err error) {
	prev := dc.load()
	next := *prev
	next.Err = err
	if prev.State != interfaces.StateReady {
		next.State = interfaces.StateError
	}
	dc.current.Store(&next)
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
