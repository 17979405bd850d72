package services

import (
	"testing"

	"printfarm-backend/internal/models"
)

func TestHandleStartMarksFirstQueuedJob(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusDesign)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	first := createTestJob(t, db, printerID, itemID, 1, 5, strPtr("PRJ-a1b2c3-MainBody-B1.3mf"), models.JobStatusQueued)
	second := createTestJob(t, db, printerID, itemID, 2, 5, strPtr("PRJ-a1b2c3-MainBody-B2.3mf"), models.JobStatusQueued)

	started, err := tracker.HandleStart(printerID, strPtr("PRJ-a1b2c3-MainBody-B1.3mf"))
	if err != nil {
		t.Fatalf("HandleStart failed: %v", err)
	}
	if !started {
		t.Fatal("Expected job to start")
	}

	if got := jobStatus(t, db, first); got != models.JobStatusPrinting {
		t.Errorf("First job status = %q, want printing", got)
	}
	if got := jobStatus(t, db, second); got != models.JobStatusQueued {
		t.Errorf("Second job status = %q, want queued", got)
	}

	// A project in a design phase moves to printing when work starts
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusPrinting {
		t.Errorf("Project status = %q, want printing", got)
	}
}

func TestHandleStartAbortsOnProjectMismatch(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPending)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	jobID := createTestJob(t, db, printerID, itemID, 1, 5, strPtr("PRJ-a1b2c3-MainBody-B1.3mf"), models.JobStatusQueued)

	// The physically printing file belongs to a different project
	started, err := tracker.HandleStart(printerID, strPtr("PRJ-ffffff-OtherPart-B1.3mf"))
	if err != nil {
		t.Fatalf("HandleStart failed: %v", err)
	}
	if started {
		t.Fatal("Expected start to be aborted on project mismatch")
	}

	if got := jobStatus(t, db, jobID); got != models.JobStatusQueued {
		t.Errorf("Job status = %q, want queued (start aborted)", got)
	}
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusPending {
		t.Errorf("Project status = %q, want pending (untouched)", got)
	}
}

func TestHandleStartProceedsOnUndecodableFile(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPending)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	jobID := createTestJob(t, db, printerID, itemID, 1, 5, strPtr("PRJ-a1b2c3-MainBody-B1.3mf"), models.JobStatusQueued)

	// Manually sliced file names can't be decoded; the start proceeds
	started, err := tracker.HandleStart(printerID, strPtr("benchy_final_v3.3mf"))
	if err != nil {
		t.Fatalf("HandleStart failed: %v", err)
	}
	if !started {
		t.Fatal("Expected job to start on undecodable file")
	}
	if got := jobStatus(t, db, jobID); got != models.JobStatusPrinting {
		t.Errorf("Job status = %q, want printing", got)
	}
}

func TestHandleStartNoQueuedJobIsNoOp(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")

	// An unmanaged/manual print is a valid state, not a fault
	started, err := tracker.HandleStart(printerID, strPtr("benchy.3mf"))
	if err != nil {
		t.Fatalf("HandleStart failed: %v", err)
	}
	if started {
		t.Error("Expected no-op when no job is queued")
	}
}

func TestHandleFinishRollsUpCompletion(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	jobID := createTestJob(t, db, printerID, itemID, 1, 4, nil, models.JobStatusPrinting)

	finished, err := tracker.HandleFinish(printerID)
	if err != nil {
		t.Fatalf("HandleFinish failed: %v", err)
	}
	if !finished {
		t.Fatal("Expected job to finish")
	}

	if got := jobStatus(t, db, jobID); got != models.JobStatusDone {
		t.Errorf("Job status = %q, want done", got)
	}
	if got := itemCompleted(t, db, itemID); got != 4 {
		t.Errorf("Item completed = %d, want 4", got)
	}
	// 4 of 10 pieces done, project stays in printing
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusPrinting {
		t.Errorf("Project status = %q, want printing", got)
	}
}

func TestHandleFinishSaturatesAtQuantity(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 8, nil)
	createTestJob(t, db, printerID, itemID, 1, 5, nil, models.JobStatusPrinting)

	if _, err := tracker.HandleFinish(printerID); err != nil {
		t.Fatalf("HandleFinish failed: %v", err)
	}

	// 8 + 5 overshoots; completion caps at quantity
	if got := itemCompleted(t, db, itemID); got != 10 {
		t.Errorf("Item completed = %d, want 10 (saturated)", got)
	}
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusPostProcessing {
		t.Errorf("Project status = %q, want post_processing", got)
	}
}

func TestHandleFinishDuplicateEventIsIdempotent(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	createTestJob(t, db, printerID, itemID, 1, 4, nil, models.JobStatusPrinting)

	if _, err := tracker.HandleFinish(printerID); err != nil {
		t.Fatalf("First HandleFinish failed: %v", err)
	}

	// The job is no longer printing, so a replayed finish edge is a no-op
	finished, err := tracker.HandleFinish(printerID)
	if err != nil {
		t.Fatalf("Second HandleFinish failed: %v", err)
	}
	if finished {
		t.Error("Expected duplicate finish to be a no-op")
	}
	if got := itemCompleted(t, db, itemID); got != 4 {
		t.Errorf("Item completed = %d, want 4 (no double count)", got)
	}
}

func TestHandleFinishCascadesProjectWhenAllItemsComplete(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	doneItem := createTestItem(t, db, projectID, "Lid", 5, 5, nil)
	lastItem := createTestItem(t, db, projectID, "Main Body", 10, 7, nil)
	createTestJob(t, db, printerID, lastItem, 1, 3, nil, models.JobStatusPrinting)

	if _, err := tracker.HandleFinish(printerID); err != nil {
		t.Fatalf("HandleFinish failed: %v", err)
	}

	// The just-updated item's fresh count must be used for the evaluation
	if got := itemCompleted(t, db, lastItem); got != 10 {
		t.Errorf("Item completed = %d, want 10", got)
	}
	if got := itemCompleted(t, db, doneItem); got != 5 {
		t.Errorf("Untouched item completed = %d, want 5", got)
	}
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusPostProcessing {
		t.Errorf("Project status = %q, want post_processing", got)
	}
}

func TestProjectStatusNeverRegresses(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusQC)
	itemID := createTestItem(t, db, projectID, "Main Body", 5, 0, nil)
	createTestJob(t, db, printerID, itemID, 1, 5, nil, models.JobStatusPrinting)

	if _, err := tracker.HandleFinish(printerID); err != nil {
		t.Fatalf("HandleFinish failed: %v", err)
	}

	// A project already past post_processing keeps its status
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusQC {
		t.Errorf("Project status = %q, want qc (no regression)", got)
	}

	// Neither does a late start edge pull it back to printing
	itemID2 := createTestItem(t, db, projectID, "Lid", 5, 0, nil)
	createTestJob(t, db, printerID, itemID2, 2, 5, nil, models.JobStatusQueued)
	if _, err := tracker.HandleStart(printerID, nil); err != nil {
		t.Fatalf("HandleStart failed: %v", err)
	}
	if got := projectStatus(t, db, projectID); got != models.ProjectStatusQC {
		t.Errorf("Project status = %q, want qc (no regression on start)", got)
	}
}

func TestHandleFailedMarksJobWithoutRollup(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, nil)
	jobID := createTestJob(t, db, printerID, itemID, 1, 4, nil, models.JobStatusPrinting)

	failed, err := tracker.HandleFailed(printerID)
	if err != nil {
		t.Fatalf("HandleFailed failed: %v", err)
	}
	if !failed {
		t.Fatal("Expected job to be marked failed")
	}

	if got := jobStatus(t, db, jobID); got != models.JobStatusFailed {
		t.Errorf("Job status = %q, want failed", got)
	}
	// Failed pieces are not counted as completed
	if got := itemCompleted(t, db, itemID); got != 0 {
		t.Errorf("Item completed = %d, want 0", got)
	}
}

func TestHandleFailedNoPrintingJobIsNoOp(t *testing.T) {
	db := setupFleetTestDB(t)
	tracker := NewJobTrackerService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")

	failed, err := tracker.HandleFailed(printerID)
	if err != nil {
		t.Fatalf("HandleFailed failed: %v", err)
	}
	if failed {
		t.Error("Expected no-op when nothing is printing")
	}
}
