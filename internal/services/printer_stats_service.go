package services

import (
	"database/sql"
	"fmt"
	"time"

	"printfarm-backend/internal/models"
)

// PrinterStatsService keeps the per-printer, per-day printing time ledger.
// Both sync paths (Bambu and Elegoo) write to it, possibly concurrently, so
// every increment is a single atomic add-or-create statement at the storage
// boundary rather than a read-modify-write in application code.
type PrinterStatsService struct {
	db *sql.DB
}

func NewPrinterStatsService(db *sql.DB) *PrinterStatsService {
	return &PrinterStatsService{db: db}
}

// RecordPrintingTime adds intervalSeconds to today's ledger entry of every
// printer observed as RUNNING in the current snapshots. Unknown serial
// numbers are skipped (the printer row is created by the snapshot upsert,
// which runs first in the cycle).
func (s *PrinterStatsService) RecordPrintingTime(snapshots []models.PrinterSnapshot, intervalSeconds int) error {
	if intervalSeconds <= 0 {
		return fmt.Errorf("invalid interval: %d seconds", intervalSeconds)
	}

	today := time.Now().Format("2006-01-02")

	query := `
		INSERT INTO printer_daily_stats (printer_id, stat_date, printing_seconds)
		SELECT id, ?, ? FROM printers WHERE serial_number = ?
		ON CONFLICT (printer_id, stat_date) DO UPDATE SET
			printing_seconds = printing_seconds + excluded.printing_seconds
	`

	for _, snap := range snapshots {
		if snap.State != models.GcodeStateRunning {
			continue
		}
		if _, err := s.db.Exec(query, today, intervalSeconds, snap.SerialNumber); err != nil {
			return fmt.Errorf("failed to record printing time for %s: %w", snap.SerialNumber, err)
		}
	}

	return nil
}

// GetDailyStats returns ledger entries for one printer between two dates
// (inclusive, YYYY-MM-DD).
func (s *PrinterStatsService) GetDailyStats(printerID, fromDate, toDate string) ([]models.PrinterDailyStat, error) {
	query := `
		SELECT printer_id, CAST(stat_date AS VARCHAR), printing_seconds
		FROM printer_daily_stats
		WHERE printer_id = ? AND stat_date >= ? AND stat_date <= ?
		ORDER BY stat_date ASC
	`

	rows, err := s.db.Query(query, printerID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.PrinterDailyStat
	for rows.Next() {
		var stat models.PrinterDailyStat
		if err := rows.Scan(&stat.PrinterID, &stat.StatDate, &stat.PrintingSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

// GetTotalSeconds returns the summed printing time of one printer across all
// recorded days.
func (s *PrinterStatsService) GetTotalSeconds(printerID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(
		`SELECT SUM(printing_seconds) FROM printer_daily_stats WHERE printer_id = ?`,
		printerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum printing time: %w", err)
	}
	return int(total.Int64), nil
}
