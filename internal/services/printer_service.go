package services

import (
	"database/sql"
	"fmt"
	"time"

	"printfarm-backend/internal/models"

	"github.com/google/uuid"
)

// PrinterService persists fleet snapshots. The printers table always holds
// the most recent snapshot per serial number, which is read back as the
// "previous" snapshot at the start of the next sync cycle.
type PrinterService struct {
	db *sql.DB
}

func NewPrinterService(db *sql.DB) *PrinterService {
	return &PrinterService{db: db}
}

// GetPreviousSnapshots reads the last persisted snapshot of every printer.
// Must be called before UpsertSnapshots within a sync cycle.
func (p *PrinterService) GetPreviousSnapshots() ([]models.PrinterSnapshot, error) {
	query := `
		SELECT serial_number, name, model, online, mqtt_connected, gcode_state,
			   print_percent, remaining_minutes, current_file, print_error, last_sync_at
		FROM printers
	`

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query previous printer states: %w", err)
	}
	defer rows.Close()

	var snapshots []models.PrinterSnapshot
	for rows.Next() {
		var snap models.PrinterSnapshot
		var state *string
		var lastSync *time.Time
		err := rows.Scan(
			&snap.SerialNumber,
			&snap.Name,
			&snap.Model,
			&snap.Online,
			&snap.MqttConnected,
			&state,
			&snap.PrintPercent,
			&snap.RemainingMinutes,
			&snap.CurrentFile,
			&snap.PrintError,
			&lastSync,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan printer state: %w", err)
		}
		snap.State = models.NormalizeGcodeState(state)
		if lastSync != nil {
			snap.LastSyncAt = *lastSync
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// UpsertSnapshots commits the current cycle's snapshots as the new previous
// state, keyed by serial number. This runs before job tracking effects are
// dispatched so a downstream failure never replays a stale edge.
func (p *PrinterService) UpsertSnapshots(snapshots []models.PrinterSnapshot) error {
	query := `
		INSERT INTO printers (
			id, serial_number, name, model, online, mqtt_connected, gcode_state,
			print_percent, remaining_minutes, current_file, layer_current, layer_total,
			nozzle_temp, nozzle_target, bed_temp, bed_target, chamber_temp,
			speed_level, fan_speed, print_error, last_sync_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (serial_number) DO UPDATE SET
			name = excluded.name,
			model = excluded.model,
			online = excluded.online,
			mqtt_connected = excluded.mqtt_connected,
			gcode_state = excluded.gcode_state,
			print_percent = excluded.print_percent,
			remaining_minutes = excluded.remaining_minutes,
			current_file = excluded.current_file,
			layer_current = excluded.layer_current,
			layer_total = excluded.layer_total,
			nozzle_temp = excluded.nozzle_temp,
			nozzle_target = excluded.nozzle_target,
			bed_temp = excluded.bed_temp,
			bed_target = excluded.bed_target,
			chamber_temp = excluded.chamber_temp,
			speed_level = excluded.speed_level,
			fan_speed = excluded.fan_speed,
			print_error = excluded.print_error,
			last_sync_at = excluded.last_sync_at
	`

	for _, snap := range snapshots {
		state := string(snap.State)
		_, err := p.db.Exec(query,
			uuid.New().String(),
			snap.SerialNumber,
			snap.Name,
			snap.Model,
			snap.Online,
			snap.MqttConnected,
			state,
			snap.PrintPercent,
			snap.RemainingMinutes,
			snap.CurrentFile,
			snap.LayerCurrent,
			snap.LayerTotal,
			snap.NozzleTemp,
			snap.NozzleTarget,
			snap.BedTemp,
			snap.BedTarget,
			snap.ChamberTemp,
			snap.SpeedLevel,
			snap.FanSpeed,
			snap.PrintError,
			snap.LastSyncAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert printer %s: %w", snap.SerialNumber, err)
		}
	}

	return nil
}

// SerialToIDMap returns the serial_number -> printer id lookup for the fleet.
func (p *PrinterService) SerialToIDMap() (map[string]string, error) {
	rows, err := p.db.Query(`SELECT serial_number, id FROM printers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query printer ids: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var serial, id string
		if err := rows.Scan(&serial, &id); err != nil {
			return nil, fmt.Errorf("failed to scan printer id: %w", err)
		}
		m[serial] = id
	}
	return m, nil
}

// GetAllPrinters returns the fleet with the latest persisted telemetry.
func (p *PrinterService) GetAllPrinters() ([]models.Printer, error) {
	query := `
		SELECT id, serial_number, name, model, online, mqtt_connected, gcode_state,
			   print_percent, remaining_minutes, current_file, layer_current, layer_total,
			   nozzle_temp, nozzle_target, bed_temp, bed_target, chamber_temp,
			   speed_level, fan_speed, print_error, last_sync_at, created_at
		FROM printers
		ORDER BY name ASC
	`

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query printers: %w", err)
	}
	defer rows.Close()

	var printers []models.Printer
	for rows.Next() {
		var printer models.Printer
		err := rows.Scan(
			&printer.ID,
			&printer.SerialNumber,
			&printer.Name,
			&printer.Model,
			&printer.Online,
			&printer.MqttConnected,
			&printer.GcodeState,
			&printer.PrintPercent,
			&printer.RemainingMinutes,
			&printer.CurrentFile,
			&printer.LayerCurrent,
			&printer.LayerTotal,
			&printer.NozzleTemp,
			&printer.NozzleTarget,
			&printer.BedTemp,
			&printer.BedTarget,
			&printer.ChamberTemp,
			&printer.SpeedLevel,
			&printer.FanSpeed,
			&printer.PrintError,
			&printer.LastSyncAt,
			&printer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, printer)
	}

	return printers, nil
}

// GetPrinterJobs returns a printer's job queue in position order.
func (p *PrinterService) GetPrinterJobs(printerID string) ([]models.PrintJob, error) {
	query := `
		SELECT id, printer_id, project_item_id, position, pieces_in_batch,
			   gcode_filename, status, started_at, completed_at, created_at
		FROM print_jobs
		WHERE printer_id = ?
		ORDER BY position ASC
	`

	rows, err := p.db.Query(query, printerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query printer jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.PrintJob
	for rows.Next() {
		var job models.PrintJob
		err := rows.Scan(
			&job.ID,
			&job.PrinterID,
			&job.ProjectItemID,
			&job.Position,
			&job.PiecesInBatch,
			&job.GcodeFilename,
			&job.Status,
			&job.StartedAt,
			&job.CompletedAt,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// DetectNewAlerts reports printers whose error code appeared or changed since
// the previous snapshot. Alert delivery is left to the caller.
func DetectNewAlerts(prev, curr []models.PrinterSnapshot) []models.PrinterAlert {
	prevErrors := make(map[string]int, len(prev))
	for _, snap := range prev {
		prevErrors[snap.SerialNumber] = snap.PrintError
	}

	var alerts []models.PrinterAlert
	for _, snap := range curr {
		if snap.PrintError == 0 {
			continue
		}
		if prevErrors[snap.SerialNumber] != snap.PrintError {
			alerts = append(alerts, models.PrinterAlert{
				SerialNumber: snap.SerialNumber,
				Name:         snap.Name,
				PrintError:   snap.PrintError,
			})
		}
	}
	return alerts
}
