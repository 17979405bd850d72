package services

import (
	"math"
	"strings"
	"time"
)

// Print time estimation from model volume.

// Warmup/setup overhead applied to every print.
const baseEstimateMinutes = 10

// Minutes of print time per cm3, by material.
var ratePerMaterial = map[string]float64{
	"PLA":  0.8,
	"PETG": 1.0,
	"ABS":  1.0,
	"TPU":  1.5,
}

// EstimatePrintMinutes estimates print time in minutes from a model's volume.
// Unknown materials fall back to a 1.0 rate.
func EstimatePrintMinutes(volumeCm3 float64, material string) int {
	rate, ok := ratePerMaterial[strings.ToUpper(material)]
	if !ok {
		rate = 1.0
	}
	return int(math.Ceil(baseEstimateMinutes + volumeCm3*rate))
}

// SupportedMaterials lists the materials with a calibrated rate.
func SupportedMaterials() []string {
	return []string{"PLA", "PETG", "ABS", "TPU"}
}

// EstimateQueuedCompletion estimates when a not-yet-started job of the given
// duration would finish, assuming it launches at the next allowed start and
// then runs around the clock. Jobs that are already printing are not
// constrained by the window and should use their remaining minutes directly.
func EstimateQueuedCompletion(now time.Time, printMinutes int, window LaunchWindow) time.Time {
	start := window.NextStart(now)
	return AddRealMinutes(start, printMinutes)
}
