package services

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"printfarm-backend/internal/models"
)

// FinishedPrint is a printer whose file finished this cycle without a tracked
// printing job consuming the finish edge.
type FinishedPrint struct {
	SerialNumber string
	PrinterID    string
	CurrentFile  string
}

// AutoCompleteService is the keyword fallback path: when a finish edge found
// no tracked job, the finished filename is matched against item file keywords
// and the earliest open job of the matched item is completed. It only ever
// sees edges the queue path did not consume, so one physical finish cannot
// complete two jobs.
type AutoCompleteService struct {
	db     *sql.DB
	rollup *RollupService
}

func NewAutoCompleteService(db *sql.DB, rollup *RollupService) *AutoCompleteService {
	return &AutoCompleteService{db: db, rollup: rollup}
}

type keywordItem struct {
	id        string
	keyword   string
	completed int
	quantity  int
}

// CompleteByKeyword matches each finished filename (case-insensitive
// substring) against incomplete items with a file_keyword in projects that
// are not yet shipping or delivered. At most one job is completed per printer
// per cycle.
func (a *AutoCompleteService) CompleteByKeyword(finished []FinishedPrint) (int, error) {
	if len(finished) == 0 {
		return 0, nil
	}

	rows, err := a.db.Query(`
		SELECT i.id, i.file_keyword, i.completed, i.quantity
		FROM project_items i
		JOIN projects p ON p.id = i.project_id
		WHERE i.file_keyword IS NOT NULL
		  AND p.status NOT IN (?, ?)
	`, models.ProjectStatusShipping, models.ProjectStatusDelivered)
	if err != nil {
		return 0, fmt.Errorf("failed to query keyword items: %w", err)
	}
	defer rows.Close()

	var items []*keywordItem
	for rows.Next() {
		var item keywordItem
		if err := rows.Scan(&item.id, &item.keyword, &item.completed, &item.quantity); err != nil {
			return 0, fmt.Errorf("failed to scan keyword item: %w", err)
		}
		items = append(items, &item)
	}
	if len(items) == 0 {
		return 0, nil
	}

	completed := 0
	for _, print := range finished {
		filenameLower := strings.ToLower(print.CurrentFile)

		for _, item := range items {
			if item.keyword == "" || !strings.Contains(filenameLower, strings.ToLower(item.keyword)) {
				continue
			}
			if item.completed >= item.quantity {
				continue
			}

			done, pieces, err := a.completeFirstOpenJob(item.id)
			if err != nil {
				return completed, err
			}
			if !done {
				continue
			}

			if err := a.rollup.ApplyJobCompletion(item.id, pieces); err != nil {
				return completed, err
			}
			// Keep the in-memory count fresh so a later printer matching the
			// same item this cycle sees the updated completion.
			item.completed += pieces
			if item.completed > item.quantity {
				item.completed = item.quantity
			}
			completed++

			log.Printf("[auto-complete] Printer %s finished %q, matched keyword %q (%d/%d)",
				print.SerialNumber, print.CurrentFile, item.keyword, item.completed, item.quantity)

			// Only one completion per printer per cycle.
			break
		}
	}

	return completed, nil
}

// completeFirstOpenJob marks the earliest queued-or-printing job of an item
// as done and reports its batch size.
func (a *AutoCompleteService) completeFirstOpenJob(itemID string) (bool, int, error) {
	var jobID string
	var pieces int
	err := a.db.QueryRow(`
		SELECT id, pieces_in_batch
		FROM print_jobs
		WHERE project_item_id = ? AND status IN (?, ?)
		ORDER BY position ASC
		LIMIT 1
	`, itemID, models.JobStatusQueued, models.JobStatusPrinting).Scan(&jobID, &pieces)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to query open job for item %s: %w", itemID, err)
	}

	_, err = a.db.Exec(`
		UPDATE print_jobs SET status = ?, completed_at = ? WHERE id = ? AND status IN (?, ?)
	`, models.JobStatusDone, time.Now(), jobID, models.JobStatusQueued, models.JobStatusPrinting)
	if err != nil {
		return false, 0, fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	return true, pieces, nil
}
