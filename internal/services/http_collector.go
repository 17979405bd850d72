package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"printfarm-backend/internal/models"
)

// NewHTTPCollector returns a CollectorFunc that fetches normalized fleet
// snapshots from a collector endpoint (e.g. a sidecar wrapping the Bambu
// Cloud fetch). The endpoint returns the same {printers: [...]} shape the
// ingest handlers accept. A fetch failure aborts the whole cycle so no
// transitions are synthesized from missing data.
func NewHTTPCollector(url, secret string, timeout time.Duration) CollectorFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) ([]models.PrinterSnapshot, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build collector request: %w", err)
		}
		if secret != "" {
			req.Header.Set("Authorization", "Bearer "+secret)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("collector request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("collector returned status %d", resp.StatusCode)
		}

		var payload models.PrinterSyncRequest
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode collector response: %w", err)
		}

		now := time.Now()
		snapshots := make([]models.PrinterSnapshot, 0, len(payload.Printers))
		for i := range payload.Printers {
			snapshots = append(snapshots, payload.Printers[i].ToSnapshot(now))
		}
		return snapshots, nil
	}
}
