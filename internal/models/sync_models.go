package models

import (
	"time"
)

// PrinterStatusPayload is the wire shape one collector entry arrives in.
// All telemetry fields are nullable; gcode_state is the raw vendor string
// and is normalized on conversion.
type PrinterStatusPayload struct {
	SerialNumber     string   `json:"serial_number" binding:"required"`
	Name             string   `json:"name"`
	Model            *string  `json:"model"`
	Online           bool     `json:"online"`
	MqttConnected    bool     `json:"mqtt_connected"`
	GcodeState       *string  `json:"gcode_state"`
	PrintPercent     *int     `json:"print_percent"`
	RemainingMinutes *int     `json:"remaining_minutes"`
	CurrentFile      *string  `json:"current_file"`
	LayerCurrent     *int     `json:"layer_current"`
	LayerTotal       *int     `json:"layer_total"`
	NozzleTemp       *float64 `json:"nozzle_temp"`
	NozzleTarget     *float64 `json:"nozzle_target"`
	BedTemp          *float64 `json:"bed_temp"`
	BedTarget        *float64 `json:"bed_target"`
	ChamberTemp      *float64 `json:"chamber_temp"`
	SpeedLevel       *int     `json:"speed_level"`
	FanSpeed         *int     `json:"fan_speed"`
	PrintError       *int     `json:"print_error"`
}

// PrinterSyncRequest is the body of a sync ingest call (Bambu collector
// results or the Elegoo hub push).
type PrinterSyncRequest struct {
	Printers []PrinterStatusPayload `json:"printers" binding:"required"`
}

// ToSnapshot normalizes a payload entry into a PrinterSnapshot captured at
// syncTime.
func (p *PrinterStatusPayload) ToSnapshot(syncTime time.Time) PrinterSnapshot {
	snap := PrinterSnapshot{
		SerialNumber:     p.SerialNumber,
		Name:             p.Name,
		Model:            p.Model,
		Online:           p.Online,
		MqttConnected:    p.MqttConnected,
		State:            NormalizeGcodeState(p.GcodeState),
		CurrentFile:      p.CurrentFile,
		RemainingMinutes: p.RemainingMinutes,
		LayerCurrent:     p.LayerCurrent,
		LayerTotal:       p.LayerTotal,
		NozzleTemp:       p.NozzleTemp,
		NozzleTarget:     p.NozzleTarget,
		BedTemp:          p.BedTemp,
		BedTarget:        p.BedTarget,
		ChamberTemp:      p.ChamberTemp,
		SpeedLevel:       p.SpeedLevel,
		FanSpeed:         p.FanSpeed,
		LastSyncAt:       syncTime,
	}
	if p.PrintPercent != nil {
		snap.PrintPercent = *p.PrintPercent
	}
	if p.PrintError != nil {
		snap.PrintError = *p.PrintError
	}
	return snap
}
