// Package health reports whether the comparator has usable data.
package health

import (
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/giygas/smpc-comparator/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore    interfaces.DataStore
	refreshTimes []string
	now          func() time.Time
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a health checker. refreshTimes are the daily
// HH:MM refresh times; without them data age is not judged.
func NewHealthChecker(dataStore interfaces.DataStore, refreshTimes []string) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore:    dataStore,
		refreshTimes: refreshTimes,
		now:          time.Now,
	}
}

// HealthCheck returns the status, the details and the HTTP code for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	snap := h.dataStore.Snapshot()
	isUpdating := h.dataStore.IsUpdating()
	scheduled := len(h.refreshTimes) > 0

	var dataAge time.Duration
	if !snap.LastUpdated.IsZero() {
		dataAge = h.now().Sub(snap.LastUpdated)
	}

	switch {
	case snap.State == interfaces.StateLoading:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case snap.State == interfaces.StateError:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(snap.Records) == 0:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case scheduled && dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case scheduled && dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case snap.Err != nil:
		// last refresh failed, previous records are still served
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"state":       snap.State.String(),
		"records":     len(snap.Records),
		"is_updating": isUpdating,
	}
	if !snap.LastUpdated.IsZero() {
		data["last_update"] = snap.LastUpdated.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
		data["version"] = snap.Version
	}
	if snap.Err != nil {
		data["last_error"] = snap.Err.Error()
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		data["next_update"] = next.Format(time.RFC3339)
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh, zero when
// refreshes are disabled
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextRefresh(h.now(), h.refreshTimes)
}

// NextRefresh returns the first of the daily HH:MM times strictly after now,
// rolling over to tomorrow's earliest time. Malformed entries are ignored.
func NextRefresh(now time.Time, refreshTimes []string) time.Time {
	var today []time.Time
	for _, hhmm := range refreshTimes {
		t, err := time.Parse("15:04", hhmm)
		if err != nil {
			continue
		}
		today = append(today, time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()))
	}
	if len(today) == 0 {
		return time.Time{}
	}

	slices.SortFunc(today, func(a, b time.Time) int { return a.Compare(b) })
	for _, t := range today {
		if t.After(now) {
			return t
		}
	}
	return today[0].AddDate(0, 0, 1)
}
