// Package scheduler loads the SmPC records at start-up and refreshes them on
// a daily schedule, keeping the data container and fetch metrics current.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/metrics"
	"github.com/giygas/smpc-comparator/validation"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// ErrUpdateInProgress is returned by Refresh when another refresh is running
var ErrUpdateInProgress = errors.New("update already in progress")

// staleAfter is how old scheduled data may get before the monitor warns
const staleAfter = 25 * time.Hour

// Scheduler drives data loads
type Scheduler struct {
	dataStore    interfaces.DataStore
	fetcher      interfaces.Fetcher
	validator    interfaces.DataValidator
	schedule     string
	fetchTimeout time.Duration
	scheduler    *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler. schedule lists daily times such as
// "06:00;18:00"; an empty schedule loads once and never refreshes.
func NewScheduler(dataStore interfaces.DataStore, fetcher interfaces.Fetcher, schedule string, fetchTimeout time.Duration) *Scheduler {
	return &Scheduler{
		dataStore:    dataStore,
		fetcher:      fetcher,
		validator:    validation.NewDataValidator(),
		schedule:     schedule,
		fetchTimeout: fetchTimeout,
		scheduler:    gocron.NewScheduler(time.Local),
		stop:         make(chan struct{}),
	}
}

// Start performs the initial load and installs the refresh job. A failed
// initial load leaves the store in the error state and is not returned;
// only an invalid schedule is.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
	}

	if s.schedule == "" {
		logging.Info("No refresh schedule configured, data is loaded once")
		return nil
	}

	_, err := s.scheduler.Every(1).Days().At(s.schedule).Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			if errors.Is(err, ErrUpdateInProgress) {
				logging.Info("Update already in progress, skipping...")
				return
			}
			logging.Error("Failed to refresh data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "schedule", s.schedule, "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Data refresh scheduled", "at", s.schedule)

	s.startHealthMonitoring()
	return nil
}

// Stop stops the refresh job and the monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.scheduler.Stop()
		close(s.stop)
	})
}

// NextRun returns the next scheduled refresh, zero when none is scheduled
func (s *Scheduler) NextRun() time.Time {
	if s.schedule == "" || !s.scheduler.IsRunning() {
		return time.Time{}
	}
	_, next := s.scheduler.NextRun()
	return next
}

// Refresh fetches the records once and swaps them into the store. On failure
// the store keeps its previous records.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		return ErrUpdateInProgress
	}
	defer s.dataStore.EndUpdate()

	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	logging.Info(fmt.Sprintf("Starting data update at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	records, decoded, err := s.fetcher.Fetch(ctx)
	metrics.ObserveFetch(time.Since(start).Seconds(), err)
	if err != nil {
		s.dataStore.MarkFailed(err)
		return fmt.Errorf("data fetch failed: %w", err)
	}

	report := s.validator.ReportDataQuality(records, decoded)
	logReport(report)

	s.dataStore.UpdateData(records, report)
	metrics.RecordsLoaded.Set(float64(len(records)))

	logging.Info("Data update completed",
		"duration", time.Since(start).String(),
		"record_count", len(records),
		"version", s.dataStore.GetVersion())
	return nil
}

func logReport(report interfaces.DataQualityReport) {
	if report.SkippedElements > 0 {
		logging.Warn("Non-object elements skipped", "count", report.SkippedElements)
	}
	if len(report.DuplicateKeys) > 0 {
		logging.Warn("Duplicate record ids detected",
			"total", len(report.DuplicateKeys),
			"id_list", report.DuplicateKeys)
	}
	if report.RecordsWithoutID > 0 {
		logging.Warn("Records without id", "count", report.RecordsWithoutID)
	}
	if report.RecordsWithoutName > 0 {
		logging.Warn("Records without product name, hidden from the list", "count", report.RecordsWithoutName)
	}
	if report.RecordsWithoutAuthNumber > 0 {
		logging.Debug("Records without authorisation number", "count", report.RecordsWithoutAuthNumber)
	}
}

// startHealthMonitoring warns when scheduled refreshes stop landing
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if lastUpdate.IsZero() || time.Since(lastUpdate) > staleAfter {
					logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate)
				}
			}
		}
	}()
}
