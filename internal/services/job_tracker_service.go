package services

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"printfarm-backend/internal/models"
)

// JobTrackerService drives the per-printer print job lifecycle:
// queued -> printing -> done | failed. It is the only writer of print job
// status and reacts to snapshot edges detected by the fleet reconciler.
type JobTrackerService struct {
	db     *sql.DB
	rollup *RollupService
}

func NewJobTrackerService(db *sql.DB, rollup *RollupService) *JobTrackerService {
	return &JobTrackerService{db: db, rollup: rollup}
}

// HandleStart reacts to a printer transitioning into RUNNING: the queued job
// with the lowest position moves to printing. When both the physically
// printing file and the queued job's filename decode, mismatched project
// short ids abort the start, so a manually loaded unrelated file cannot
// consume the queue entry. A printer with no queued job is a valid state
// (unmanaged print) and a no-op.
func (t *JobTrackerService) HandleStart(printerID string, currentFile *string) (bool, error) {
	var jobID, itemID string
	var gcodeFilename *string
	err := t.db.QueryRow(`
		SELECT id, gcode_filename, project_item_id
		FROM print_jobs
		WHERE printer_id = ? AND status = ?
		ORDER BY position ASC
		LIMIT 1
	`, printerID, models.JobStatusQueued).Scan(&jobID, &gcodeFilename, &itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query queued job: %w", err)
	}

	if currentFile != nil && gcodeFilename != nil {
		parsed, ok := ParseJobFilename(*currentFile)
		expected, expectedOk := ParseJobFilename(*gcodeFilename)
		if ok && expectedOk && !strings.EqualFold(parsed.ProjectShortID, expected.ProjectShortID) {
			log.Printf("[job-tracker] Printer %s: file %q doesn't match expected %q, skipping auto-start",
				printerID, *currentFile, *gcodeFilename)
			return false, nil
		}
	}

	_, err = t.db.Exec(`
		UPDATE print_jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?
	`, models.JobStatusPrinting, time.Now(), jobID, models.JobStatusQueued)
	if err != nil {
		return false, fmt.Errorf("failed to mark job printing: %w", err)
	}

	// A project with queued work that physically starts printing moves out of
	// its design phases. Guarded so later statuses never regress.
	_, err = t.db.Exec(`
		UPDATE projects SET status = ?, updated_at = ?
		WHERE id = (SELECT project_id FROM project_items WHERE id = ?)
		  AND status IN (?, ?)
	`, models.ProjectStatusPrinting, time.Now(), itemID,
		models.ProjectStatusPending, models.ProjectStatusDesign)
	if err != nil {
		return false, fmt.Errorf("failed to advance project to printing: %w", err)
	}

	log.Printf("[job-tracker] Printer %s: RUNNING detected, job %s marked as printing", printerID, jobID)
	return true, nil
}

// HandleFinish reacts to a printer transitioning out of RUNNING into
// FINISH/IDLE: the single printing job on that printer moves to done and is
// rolled up. Returns false when no printing job was tracked so the caller
// can fall back to keyword matching.
func (t *JobTrackerService) HandleFinish(printerID string) (bool, error) {
	var jobID, itemID string
	var pieces int
	err := t.db.QueryRow(`
		SELECT id, project_item_id, pieces_in_batch
		FROM print_jobs
		WHERE printer_id = ? AND status = ?
		LIMIT 1
	`, printerID, models.JobStatusPrinting).Scan(&jobID, &itemID, &pieces)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query printing job: %w", err)
	}

	_, err = t.db.Exec(`
		UPDATE print_jobs SET status = ?, completed_at = ? WHERE id = ? AND status = ?
	`, models.JobStatusDone, time.Now(), jobID, models.JobStatusPrinting)
	if err != nil {
		return false, fmt.Errorf("failed to mark job done: %w", err)
	}

	if err := t.rollup.ApplyJobCompletion(itemID, pieces); err != nil {
		return true, fmt.Errorf("job %s done but rollup failed: %w", jobID, err)
	}

	log.Printf("[job-tracker] Printer %s: FINISH detected, job %s marked as done", printerID, jobID)
	return true, nil
}

// HandleFailed reacts to a printer transitioning to FAILED: the printing job
// moves to failed. Failed pieces are never counted as completed and the job
// is not retried; re-queueing is an operator decision.
func (t *JobTrackerService) HandleFailed(printerID string) (bool, error) {
	var jobID string
	err := t.db.QueryRow(`
		SELECT id FROM print_jobs
		WHERE printer_id = ? AND status = ?
		LIMIT 1
	`, printerID, models.JobStatusPrinting).Scan(&jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query printing job: %w", err)
	}

	_, err = t.db.Exec(`
		UPDATE print_jobs SET status = ? WHERE id = ? AND status = ?
	`, models.JobStatusFailed, jobID, models.JobStatusPrinting)
	if err != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", err)
	}

	log.Printf("[job-tracker] Printer %s: FAILED detected, job %s marked as failed", printerID, jobID)
	return true, nil
}
