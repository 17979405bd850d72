package services

import (
	"fmt"
	"log"

	"printfarm-backend/internal/models"
)

// SyncService runs one full sync cycle for a batch of collected snapshots:
// read previous states, commit current ones, account printing time, then
// reconcile edges. Both the Bambu path and the Elegoo hub path funnel into
// RunCycle with their own interval.
type SyncService struct {
	printerService *PrinterService
	statsService   *PrinterStatsService
	reconciler     *FleetReconciler
}

func NewSyncService(printerService *PrinterService, statsService *PrinterStatsService, reconciler *FleetReconciler) *SyncService {
	return &SyncService{
		printerService: printerService,
		statsService:   statsService,
		reconciler:     reconciler,
	}
}

// RunCycle processes one sync invocation. The snapshot upsert is the commit
// point: it happens before any lifecycle effect so the next cycle always
// diffs against what this cycle observed, even when downstream effects fail.
// A failed upsert aborts the cycle with the previous states untouched, so no
// spurious transition can be synthesized from missing data.
func (s *SyncService) RunCycle(snapshots []models.PrinterSnapshot, intervalSeconds int) (*models.SyncSummary, error) {
	if len(snapshots) == 0 {
		return &models.SyncSummary{}, nil
	}

	// Previous states must be read before the upsert overwrites them.
	prev, err := s.printerService.GetPreviousSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to read previous printer states: %w", err)
	}

	if err := s.printerService.UpsertSnapshots(snapshots); err != nil {
		return nil, fmt.Errorf("failed to commit snapshots: %w", err)
	}

	// Time accounting and reconciliation are best-effort: their failures are
	// reported but the committed snapshots stand.
	if err := s.statsService.RecordPrintingTime(snapshots, intervalSeconds); err != nil {
		log.Printf("[sync] Failed to record printing time: %v", err)
	}

	summary := s.reconciler.Reconcile(prev, snapshots)
	summary.NewAlerts = DetectNewAlerts(prev, snapshots)

	return &summary, nil
}
