package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"printfarm-backend/internal/models"
)

// RollupService propagates job completion into item piece counts and project
// status. Item updates are saturating and monotonic in SQL so two printers
// finishing batches for the same item in one cycle cannot lose an increment.
type RollupService struct {
	db *sql.DB
}

func NewRollupService(db *sql.DB) *RollupService {
	return &RollupService{db: db}
}

// ApplyJobCompletion adds a finished batch to its item's completed count,
// capped at the item quantity, then advances the owning project to
// post_processing when every item of the project is complete. The project
// check reads fresh counts from the store, so the just-updated item is never
// seen stale.
func (r *RollupService) ApplyJobCompletion(itemID string, piecesInBatch int) error {
	result, err := r.db.Exec(`
		UPDATE project_items
		SET completed = least(completed + ?, quantity)
		WHERE id = ?
	`, piecesInBatch, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item completion: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("project item %s not found", itemID)
	}

	var projectID string
	err = r.db.QueryRow(`SELECT project_id FROM project_items WHERE id = ?`, itemID).Scan(&projectID)
	if err != nil {
		return fmt.Errorf("failed to look up item project: %w", err)
	}

	var incomplete int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM project_items
		WHERE project_id = ? AND completed < quantity
	`, projectID).Scan(&incomplete)
	if err != nil {
		return fmt.Errorf("failed to count incomplete items: %w", err)
	}

	if incomplete > 0 {
		return nil
	}

	// Status guard keeps the lifecycle monotonic even if two rollups race.
	result, err = r.db.Exec(`
		UPDATE projects
		SET status = ?, updated_at = ?
		WHERE id = ? AND status NOT IN (?, ?, ?, ?)
	`, models.ProjectStatusPostProcessing, time.Now(),
		projectID,
		models.ProjectStatusPostProcessing,
		models.ProjectStatusQC,
		models.ProjectStatusShipping,
		models.ProjectStatusDelivered,
	)
	if err != nil {
		return fmt.Errorf("failed to advance project status: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		log.Printf("[rollup] Project %s: all items complete, advanced to post_processing", projectID)
	}

	return nil
}
