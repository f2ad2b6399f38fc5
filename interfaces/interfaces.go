// Package interfaces defines the contracts shared by the comparator's
// packages so that each layer can be tested against mocks.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/smpc-comparator/record"
)

// ViewState is the lifecycle of the loaded data set
type ViewState int

const (
	StateLoading ViewState = iota // no fetch has completed yet
	StateError                    // the fetch failed and no data was ever loaded
	StateReady                    // records are available
)

func (s ViewState) String() string {
	switch s {
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	}
	return "loading"
}

// DataQualityReport summarises what a load found wrong with the upstream data
type DataQualityReport struct {
	TotalRecords             int      `json:"total_records"`
	SkippedElements          int      `json:"skipped_elements"` // array elements that were not objects
	DuplicateKeys            []string `json:"duplicate_keys,omitempty"`
	RecordsWithoutID         int      `json:"records_without_id"`
	RecordsWithoutName       int      `json:"records_without_name"`
	RecordsWithoutAuthNumber int      `json:"records_without_auth_number"`
}

// Snapshot is one immutable view of the data container
type Snapshot struct {
	State       ViewState
	Records     []record.Record
	Version     string
	LastUpdated time.Time
	Err         error
	Report      DataQualityReport
}

// DataStore holds the loaded records. Readers never block; writers swap a
// whole snapshot at once.
type DataStore interface {
	Snapshot() Snapshot
	GetState() ViewState
	GetRecords() []record.Record
	Lookup(key string) (record.Record, bool)
	GetVersion() string
	GetLastUpdated() time.Time
	GetError() error
	GetReport() DataQualityReport
	GetServerStartTime() time.Time
	IsUpdating() bool

	UpdateData(records []record.Record, report DataQualityReport)
	MarkFailed(err error)
	BeginUpdate() bool
	EndUpdate()
}

// Fetcher downloads the full record set
type Fetcher interface {
	Fetch(ctx context.Context) ([]record.Record, record.DecodeReport, error)
}

// DataValidator checks loaded records and user input
type DataValidator interface {
	ValidateRecord(r record.Record) error
	ReportDataQuality(records []record.Record, decoded record.DecodeReport) DataQualityReport
	ValidateFilter(input string) error
	ValidateKey(input string) error
}

// Scheduler loads the data at start-up and on a schedule
type Scheduler interface {
	Start(ctx context.Context) error
	Refresh(ctx context.Context) error
	Stop()
}

// HealthChecker reports service health
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// HTTPHandler serves the comparator routes
type HTTPHandler interface {
	ServePage(w http.ResponseWriter, r *http.Request)
	ServeRecords(w http.ResponseWriter, r *http.Request)
	ServeRecord(w http.ResponseWriter, r *http.Request)
	ServeSelection(w http.ResponseWriter, r *http.Request)
	ServeCompare(w http.ResponseWriter, r *http.Request)
	ServeFields(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
