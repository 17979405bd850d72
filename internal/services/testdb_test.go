package services

import (
	"database/sql"
	"testing"
	"time"

	"printfarm-backend/internal/database"
	"printfarm-backend/internal/models"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb/v2"
)

func setupFleetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.CreateTables(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}

func createTestPrinter(t *testing.T, db *sql.DB, serial, name string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO printers (id, serial_number, name, online)
		VALUES (?, ?, ?, true)`,
		id, serial, name)
	if err != nil {
		t.Fatalf("Failed to create test printer: %v", err)
	}
	return id
}

func createTestProject(t *testing.T, db *sql.DB, name, status string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO projects (id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, name, status, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	return id
}

func createTestItem(t *testing.T, db *sql.DB, projectID, name string, quantity, completed int, fileKeyword *string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO project_items (id, project_id, name, quantity, completed, file_keyword)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, name, quantity, completed, fileKeyword)
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}
	return id
}

func createTestJob(t *testing.T, db *sql.DB, printerID, itemID string, position, pieces int, gcodeFilename *string, status string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO print_jobs (id, printer_id, project_item_id, position, pieces_in_batch, gcode_filename, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, printerID, itemID, position, pieces, gcodeFilename, status)
	if err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}
	return id
}

func jobStatus(t *testing.T, db *sql.DB, jobID string) string {
	t.Helper()

	var status string
	if err := db.QueryRow(`SELECT status FROM print_jobs WHERE id = ?`, jobID).Scan(&status); err != nil {
		t.Fatalf("Failed to read job status: %v", err)
	}
	return status
}

func itemCompleted(t *testing.T, db *sql.DB, itemID string) int {
	t.Helper()

	var completed int
	if err := db.QueryRow(`SELECT completed FROM project_items WHERE id = ?`, itemID).Scan(&completed); err != nil {
		t.Fatalf("Failed to read item completion: %v", err)
	}
	return completed
}

func projectStatus(t *testing.T, db *sql.DB, projectID string) string {
	t.Helper()

	var status string
	if err := db.QueryRow(`SELECT status FROM projects WHERE id = ?`, projectID).Scan(&status); err != nil {
		t.Fatalf("Failed to read project status: %v", err)
	}
	return status
}

func strPtr(s string) *string {
	return &s
}

func snapshot(serial string, state models.GcodeState, currentFile *string) models.PrinterSnapshot {
	return models.PrinterSnapshot{
		SerialNumber: serial,
		Name:         serial,
		State:        state,
		CurrentFile:  currentFile,
		LastSyncAt:   time.Now(),
	}
}
