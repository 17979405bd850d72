package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"printfarm-backend/internal/models"
)

// CollectorFunc fetches and normalizes current snapshots for the whole fleet.
// The vendor client behind it (Bambu Cloud MQTT fetch) lives outside this
// service; the scheduler only cares about the snapshot boundary.
type CollectorFunc func(ctx context.Context) ([]models.PrinterSnapshot, error)

// SyncScheduler triggers a sync cycle on a fixed interval using an injected
// collector. Deployments that rely on an external cron hitting the sync
// endpoint simply don't start it.
type SyncScheduler struct {
	syncService *SyncService
	collector   CollectorFunc

	ticker          *time.Ticker
	pollingInterval time.Duration
	intervalSeconds int
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// NewSyncScheduler creates a scheduler that runs the collector every
// pollingInterval and accounts intervalSeconds of printing time per cycle.
func NewSyncScheduler(syncService *SyncService, collector CollectorFunc, pollingInterval time.Duration, intervalSeconds int) *SyncScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &SyncScheduler{
		syncService:     syncService,
		collector:       collector,
		pollingInterval: pollingInterval,
		intervalSeconds: intervalSeconds,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start starts the scheduler
func (s *SyncScheduler) Start() {
	log.Printf("Starting sync scheduler with polling interval: %v", s.pollingInterval)

	s.ticker = time.NewTicker(s.pollingInterval)

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop stops the scheduler
func (s *SyncScheduler) Stop() {
	log.Println("Stopping sync scheduler")

	s.cancel()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.wg.Wait()

	log.Println("Sync scheduler stopped")
}

func (s *SyncScheduler) schedulerLoop() {
	defer s.wg.Done()

	// Initial cycle
	s.runCycle()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			s.runCycle()
		}
	}
}

func (s *SyncScheduler) runCycle() {
	if err := s.runCycleWithRetry(); err != nil {
		log.Printf("Sync cycle failed: %v", err)
	}
}

// runCycleWithRetry retries transient database connection errors; a
// collector failure aborts the cycle immediately and the previous snapshots
// stay untouched.
func (s *SyncScheduler) runCycleWithRetry() error {
	const maxRetries = 3
	const retryDelay = 5 * time.Second

	snapshots, err := s.collector(s.ctx)
	if err != nil {
		return fmt.Errorf("collector failed: %w", err)
	}
	if len(snapshots) == 0 {
		return nil
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		summary, err := s.syncService.RunCycle(snapshots, s.intervalSeconds)
		if err == nil {
			if summary.JobsStarted+summary.JobsFinished+summary.JobsFailed+summary.AutoCompleted > 0 {
				log.Printf("Sync cycle: %d printers, %d started, %d finished, %d failed, %d auto-completed",
					summary.Synced, summary.JobsStarted, summary.JobsFinished, summary.JobsFailed, summary.AutoCompleted)
			}
			return nil
		}

		lastErr = err
		log.Printf("Sync cycle error (attempt %d/%d): %v", i+1, maxRetries, err)

		if isDBConnectionError(err) && i < maxRetries-1 {
			log.Printf("Database connection error detected, retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
			continue
		}

		return err
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// isDBConnectionError checks if an error is a database connection error
func isDBConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	connectionErrors := []string{
		"database is locked",
		"connection refused",
		"no such host",
		"connection reset",
		"broken pipe",
		"bad connection",
		"driver: bad connection",
		"sql: database is closed",
	}

	for _, connErr := range connectionErrors {
		if strings.Contains(strings.ToLower(errStr), connErr) {
			return true
		}
	}

	return false
}
