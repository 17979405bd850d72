package models

import (
	"time"
)

// GcodeState is the normalized printer state shared by all collectors.
// Vendor-specific raw strings map 1:1; anything else becomes GcodeStateUnknown.
type GcodeState string

const (
	GcodeStateIdle    GcodeState = "IDLE"
	GcodeStateRunning GcodeState = "RUNNING"
	GcodeStatePause   GcodeState = "PAUSE"
	GcodeStateFinish  GcodeState = "FINISH"
	GcodeStateFailed  GcodeState = "FAILED"
	GcodeStateUnknown GcodeState = "UNKNOWN"
)

// NormalizeGcodeState maps a raw vendor state string to a GcodeState.
// Unrecognized values (including absent ones) are UNKNOWN, which is neither
// RUNNING nor a terminal state, so they can never synthesize a transition.
func NormalizeGcodeState(raw *string) GcodeState {
	if raw == nil {
		return GcodeStateUnknown
	}
	switch GcodeState(*raw) {
	case GcodeStateIdle, GcodeStateRunning, GcodeStatePause, GcodeStateFinish, GcodeStateFailed:
		return GcodeState(*raw)
	default:
		return GcodeStateUnknown
	}
}

// Job status state machine: queued -> printing -> done | failed.
const (
	JobStatusQueued   = "queued"
	JobStatusPrinting = "printing"
	JobStatusDone     = "done"
	JobStatusFailed   = "failed"
)

// Project lifecycle, ordered. Transitions driven by the reconciler only move
// forward along this sequence.
const (
	ProjectStatusPending        = "pending"
	ProjectStatusDesign         = "design"
	ProjectStatusPrinting       = "printing"
	ProjectStatusPostProcessing = "post_processing"
	ProjectStatusQC             = "qc"
	ProjectStatusShipping       = "shipping"
	ProjectStatusDelivered      = "delivered"
)

// PrinterSnapshot is the normalized point-in-time telemetry for one printer,
// produced by a collector once per sync cycle. Snapshots are values: the
// reconciler derives transitions by comparing two of them, never by mutating
// one. Temperature/layer fields are passed through for the dashboard and are
// not reasoned about.
type PrinterSnapshot struct {
	SerialNumber     string     `json:"serial_number"`
	Name             string     `json:"name"`
	Model            *string    `json:"model"`
	Online           bool       `json:"online"`
	MqttConnected    bool       `json:"mqtt_connected"`
	State            GcodeState `json:"gcode_state"`
	CurrentFile      *string    `json:"current_file"`
	PrintPercent     int        `json:"print_percent"`
	RemainingMinutes *int       `json:"remaining_minutes"`
	LayerCurrent     *int       `json:"layer_current"`
	LayerTotal       *int       `json:"layer_total"`
	NozzleTemp       *float64   `json:"nozzle_temp"`
	NozzleTarget     *float64   `json:"nozzle_target"`
	BedTemp          *float64   `json:"bed_temp"`
	BedTarget        *float64   `json:"bed_target"`
	ChamberTemp      *float64   `json:"chamber_temp"`
	SpeedLevel       *int       `json:"speed_level"`
	FanSpeed         *int       `json:"fan_speed"`
	PrintError       int        `json:"print_error"`
	LastSyncAt       time.Time  `json:"last_sync_at"`
}

// Printer is the persisted fleet row: stable identity plus the most recent
// snapshot, which serves as the "previous" snapshot for the next sync cycle.
type Printer struct {
	ID               string     `json:"id" db:"id"`
	SerialNumber     string     `json:"serial_number" db:"serial_number"`
	Name             string     `json:"name" db:"name"`
	Model            *string    `json:"model" db:"model"`
	Online           bool       `json:"online" db:"online"`
	MqttConnected    bool       `json:"mqtt_connected" db:"mqtt_connected"`
	GcodeState       *string    `json:"gcode_state" db:"gcode_state"`
	PrintPercent     int        `json:"print_percent" db:"print_percent"`
	RemainingMinutes *int       `json:"remaining_minutes" db:"remaining_minutes"`
	CurrentFile      *string    `json:"current_file" db:"current_file"`
	LayerCurrent     *int       `json:"layer_current" db:"layer_current"`
	LayerTotal       *int       `json:"layer_total" db:"layer_total"`
	NozzleTemp       *float64   `json:"nozzle_temp" db:"nozzle_temp"`
	NozzleTarget     *float64   `json:"nozzle_target" db:"nozzle_target"`
	BedTemp          *float64   `json:"bed_temp" db:"bed_temp"`
	BedTarget        *float64   `json:"bed_target" db:"bed_target"`
	ChamberTemp      *float64   `json:"chamber_temp" db:"chamber_temp"`
	SpeedLevel       *int       `json:"speed_level" db:"speed_level"`
	FanSpeed         *int       `json:"fan_speed" db:"fan_speed"`
	PrintError       int        `json:"print_error" db:"print_error"`
	LastSyncAt       *time.Time `json:"last_sync_at" db:"last_sync_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// PrintJob is one queued batch of identical pieces on a specific printer.
// Created by the upstream queue builder; mutated only by the job tracker.
type PrintJob struct {
	ID            string     `json:"id" db:"id"`
	PrinterID     string     `json:"printer_id" db:"printer_id"`
	ProjectItemID string     `json:"project_item_id" db:"project_item_id"`
	Position      int        `json:"position" db:"position"`
	PiecesInBatch int        `json:"pieces_in_batch" db:"pieces_in_batch"`
	GcodeFilename *string    `json:"gcode_filename" db:"gcode_filename"`
	Status        string     `json:"status" db:"status"`
	StartedAt     *time.Time `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// ProjectItem is a project's requirement for N identical pieces.
// Invariant: 0 <= Completed <= Quantity, Completed never decreases.
type ProjectItem struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Name        string    `json:"name" db:"name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Completed   int       `json:"completed" db:"completed"`
	FileKeyword *string   `json:"file_keyword" db:"file_keyword"`
	Material    *string   `json:"material" db:"material"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectSummary is a project with its items and overall completion.
type ProjectSummary struct {
	Project
	Items          []ProjectItem `json:"items"`
	TotalPieces    int           `json:"total_pieces"`
	PiecesComplete int           `json:"pieces_complete"`
}

// PrinterDailyStat is the printing-time ledger entry for one printer and day.
type PrinterDailyStat struct {
	PrinterID       string `json:"printer_id" db:"printer_id"`
	StatDate        string `json:"stat_date" db:"stat_date"` // YYYY-MM-DD
	PrintingSeconds int    `json:"printing_seconds" db:"printing_seconds"`
}

// PrinterAlert reports a newly appeared print error code on a printer,
// detected by comparing against the previous snapshot.
type PrinterAlert struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
	PrintError   int    `json:"print_error"`
}

// SyncSummary is the result of one full sync cycle.
type SyncSummary struct {
	Synced        int            `json:"synced"`
	JobsStarted   int            `json:"jobs_started"`
	JobsFinished  int            `json:"jobs_finished"`
	JobsFailed    int            `json:"jobs_failed"`
	AutoCompleted int            `json:"auto_completed"`
	Errors        int            `json:"errors"`
	NewAlerts     []PrinterAlert `json:"new_alerts,omitempty"`
}
