package database

import (
	"database/sql"
	"fmt"

	"printfarm-backend/internal/config"

	_ "github.com/marcboeker/go-duckdb/v2"
)

func Initialize() (*sql.DB, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return InitializeWithConfig(cfg)
}

func InitializeWithConfig(cfg *config.Config) (*sql.DB, error) {
	if err := cfg.EnsureDatabaseDir(); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := CreateTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// CreateTables creates the fleet schema. Also used by service tests against
// in-memory databases.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS printers (
			id VARCHAR PRIMARY KEY,
			serial_number VARCHAR NOT NULL UNIQUE,
			name VARCHAR NOT NULL,
			model VARCHAR,
			online BOOLEAN DEFAULT false,
			mqtt_connected BOOLEAN DEFAULT false,
			gcode_state VARCHAR,
			print_percent INTEGER DEFAULT 0,
			remaining_minutes INTEGER,
			current_file VARCHAR,
			layer_current INTEGER,
			layer_total INTEGER,
			nozzle_temp DOUBLE,
			nozzle_target DOUBLE,
			bed_temp DOUBLE,
			bed_target DOUBLE,
			chamber_temp DOUBLE,
			speed_level INTEGER,
			fan_speed INTEGER,
			print_error INTEGER DEFAULT 0,
			last_sync_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS project_items (
			id VARCHAR PRIMARY KEY,
			project_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			quantity INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			file_keyword VARCHAR,
			material VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects (id)
		)`,

		`CREATE TABLE IF NOT EXISTS print_jobs (
			id VARCHAR PRIMARY KEY,
			printer_id VARCHAR NOT NULL,
			project_item_id VARCHAR NOT NULL,
			position INTEGER NOT NULL,
			pieces_in_batch INTEGER NOT NULL DEFAULT 1,
			gcode_filename VARCHAR,
			status VARCHAR NOT NULL DEFAULT 'queued',
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (printer_id) REFERENCES printers (id),
			FOREIGN KEY (project_item_id) REFERENCES project_items (id)
		)`,

		`CREATE TABLE IF NOT EXISTS printer_daily_stats (
			printer_id VARCHAR NOT NULL,
			stat_date DATE NOT NULL,
			printing_seconds INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (printer_id, stat_date)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_print_jobs_printer_status ON print_jobs (printer_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_print_jobs_item ON print_jobs (project_item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_project_items_project ON project_items (project_id)`,
	}

	for _, query := range indexes {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
