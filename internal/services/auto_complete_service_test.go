package services

import (
	"testing"

	"printfarm-backend/internal/models"
)

func TestCompleteByKeywordMatchesSubstring(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, strPtr("mainbody"))
	jobID := createTestJob(t, db, printerID, itemID, 1, 5, nil, models.JobStatusQueued)

	completed, err := autoComplete.CompleteByKeyword([]FinishedPrint{
		{SerialNumber: "SN001", PrinterID: printerID, CurrentFile: "MainBody_plate1.gcode.3mf"},
	})
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("Completed = %d, want 1", completed)
	}

	if got := jobStatus(t, db, jobID); got != models.JobStatusDone {
		t.Errorf("Job status = %q, want done", got)
	}
	if got := itemCompleted(t, db, itemID); got != 5 {
		t.Errorf("Item completed = %d, want 5", got)
	}
}

func TestCompleteByKeywordOnlyOneJobPerPrinter(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	// Two items both matching the finished filename
	itemA := createTestItem(t, db, projectID, "Main Body", 10, 0, strPtr("body"))
	itemB := createTestItem(t, db, projectID, "Body Lid", 10, 0, strPtr("bodylid"))
	jobA := createTestJob(t, db, printerID, itemA, 1, 5, nil, models.JobStatusQueued)
	jobB := createTestJob(t, db, printerID, itemB, 2, 5, nil, models.JobStatusQueued)

	completed, err := autoComplete.CompleteByKeyword([]FinishedPrint{
		{SerialNumber: "SN001", PrinterID: printerID, CurrentFile: "bodylid_v2.3mf"},
	})
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}

	// One finish event must not fan out into multiple completions
	if completed != 1 {
		t.Fatalf("Completed = %d, want 1", completed)
	}
	doneCount := 0
	for _, jobID := range []string{jobA, jobB} {
		if jobStatus(t, db, jobID) == models.JobStatusDone {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Errorf("Done jobs = %d, want exactly 1", doneCount)
	}
}

func TestCompleteByKeywordSkipsCompleteItems(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	fullItem := createTestItem(t, db, projectID, "Main Body", 5, 5, strPtr("body"))
	openItem := createTestItem(t, db, projectID, "Body Lid", 5, 0, strPtr("body"))
	createTestJob(t, db, printerID, fullItem, 1, 5, nil, models.JobStatusQueued)
	openJob := createTestJob(t, db, printerID, openItem, 2, 5, nil, models.JobStatusQueued)

	completed, err := autoComplete.CompleteByKeyword([]FinishedPrint{
		{SerialNumber: "SN001", PrinterID: printerID, CurrentFile: "body_batch.3mf"},
	})
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("Completed = %d, want 1", completed)
	}

	// The already-complete item is skipped in favor of the open one
	if got := jobStatus(t, db, openJob); got != models.JobStatusDone {
		t.Errorf("Open item's job status = %q, want done", got)
	}
	if got := itemCompleted(t, db, openItem); got != 5 {
		t.Errorf("Open item completed = %d, want 5", got)
	}
}

func TestCompleteByKeywordSkipsShippedProjects(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusShipping)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, strPtr("body"))
	jobID := createTestJob(t, db, printerID, itemID, 1, 5, nil, models.JobStatusQueued)

	completed, err := autoComplete.CompleteByKeyword([]FinishedPrint{
		{SerialNumber: "SN001", PrinterID: printerID, CurrentFile: "body_batch.3mf"},
	})
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}
	if completed != 0 {
		t.Errorf("Completed = %d, want 0 (shipping project excluded)", completed)
	}
	if got := jobStatus(t, db, jobID); got != models.JobStatusQueued {
		t.Errorf("Job status = %q, want queued", got)
	}
}

func TestCompleteByKeywordCaseInsensitive(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	printerID := createTestPrinter(t, db, "SN001", "Printer 1")
	projectID := createTestProject(t, db, "Widgets", models.ProjectStatusPrinting)
	itemID := createTestItem(t, db, projectID, "Main Body", 10, 0, strPtr("MainBody"))
	jobID := createTestJob(t, db, printerID, itemID, 1, 5, nil, models.JobStatusPrinting)

	completed, err := autoComplete.CompleteByKeyword([]FinishedPrint{
		{SerialNumber: "SN001", PrinterID: printerID, CurrentFile: "MAINBODY_FINAL.3MF"},
	})
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("Completed = %d, want 1", completed)
	}
	if got := jobStatus(t, db, jobID); got != models.JobStatusDone {
		t.Errorf("Job status = %q, want done", got)
	}
}

func TestCompleteByKeywordNoFinishedPrints(t *testing.T) {
	db := setupFleetTestDB(t)
	autoComplete := NewAutoCompleteService(db, NewRollupService(db))

	completed, err := autoComplete.CompleteByKeyword(nil)
	if err != nil {
		t.Fatalf("CompleteByKeyword failed: %v", err)
	}
	if completed != 0 {
		t.Errorf("Completed = %d, want 0", completed)
	}
}
