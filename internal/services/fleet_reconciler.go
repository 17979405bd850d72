package services

import (
	"log"

	"printfarm-backend/internal/models"
)

// snapshotEdge classifies the transition between two consecutive snapshots of
// the same printer.
type snapshotEdge int

const (
	edgeNone snapshotEdge = iota
	edgeStart
	edgeFinish
	edgeFailed
)

// classifyEdge is a total function over snapshot state pairs. Only a
// transition into RUNNING starts a job and only a transition out of RUNNING
// finishes or fails one; every other pair, including RUNNING->PAUSE and
// anything involving UNKNOWN, is a no-op. UNKNOWN is never treated as
// RUNNING or as terminal, so flapping vendor strings cannot synthesize edges.
func classifyEdge(prev, curr models.GcodeState) snapshotEdge {
	switch {
	case curr == models.GcodeStateRunning && prev != models.GcodeStateRunning:
		return edgeStart
	case prev == models.GcodeStateRunning && (curr == models.GcodeStateFinish || curr == models.GcodeStateIdle):
		return edgeFinish
	case prev == models.GcodeStateRunning && curr == models.GcodeStateFailed:
		return edgeFailed
	default:
		return edgeNone
	}
}

// FleetReconciler diffs the previous and current snapshot of every printer in
// one sync cycle and dispatches lifecycle effects. Printers are processed
// independently: an error on one is counted and logged but never blocks the
// rest, and effects are at-most-once because the caller has already committed
// the current snapshots as the new previous state.
type FleetReconciler struct {
	printerService *PrinterService
	jobTracker     *JobTrackerService
	autoComplete   *AutoCompleteService
}

func NewFleetReconciler(printerService *PrinterService, jobTracker *JobTrackerService, autoComplete *AutoCompleteService) *FleetReconciler {
	return &FleetReconciler{
		printerService: printerService,
		jobTracker:     jobTracker,
		autoComplete:   autoComplete,
	}
}

// Reconcile processes all (previous, current) snapshot pairs of one cycle.
// A printer seen for the first time produces no edge: a first observation
// cannot distinguish "always was running" from "just started".
func (r *FleetReconciler) Reconcile(prev, curr []models.PrinterSnapshot) models.SyncSummary {
	summary := models.SyncSummary{Synced: len(curr)}

	prevBySerial := make(map[string]models.PrinterSnapshot, len(prev))
	for _, snap := range prev {
		prevBySerial[snap.SerialNumber] = snap
	}

	serialToID, err := r.printerService.SerialToIDMap()
	if err != nil {
		log.Printf("[reconciler] Failed to load printer ids: %v", err)
		summary.Errors++
		return summary
	}

	// Finish edges the queue path couldn't consume; handed to the keyword
	// fallback after the main pass.
	var unconsumedFinishes []FinishedPrint

	for _, current := range curr {
		previous, seen := prevBySerial[current.SerialNumber]
		if !seen {
			continue
		}

		printerID, ok := serialToID[current.SerialNumber]
		if !ok {
			continue
		}

		switch classifyEdge(previous.State, current.State) {
		case edgeStart:
			started, err := r.jobTracker.HandleStart(printerID, current.CurrentFile)
			if err != nil {
				log.Printf("[reconciler] Printer %s: start handling failed: %v", current.SerialNumber, err)
				summary.Errors++
				continue
			}
			if started {
				summary.JobsStarted++
			}

		case edgeFinish:
			finished, err := r.jobTracker.HandleFinish(printerID)
			if err != nil {
				log.Printf("[reconciler] Printer %s: finish handling failed: %v", current.SerialNumber, err)
				summary.Errors++
				continue
			}
			if finished {
				summary.JobsFinished++
			} else if previous.CurrentFile != nil && *previous.CurrentFile != "" {
				unconsumedFinishes = append(unconsumedFinishes, FinishedPrint{
					SerialNumber: current.SerialNumber,
					PrinterID:    printerID,
					CurrentFile:  *previous.CurrentFile,
				})
			}

		case edgeFailed:
			failed, err := r.jobTracker.HandleFailed(printerID)
			if err != nil {
				log.Printf("[reconciler] Printer %s: failure handling failed: %v", current.SerialNumber, err)
				summary.Errors++
				continue
			}
			if failed {
				summary.JobsFailed++
			}
		}
	}

	autoCompleted, err := r.autoComplete.CompleteByKeyword(unconsumedFinishes)
	if err != nil {
		log.Printf("[reconciler] Keyword auto-complete failed: %v", err)
		summary.Errors++
	}
	summary.AutoCompleted = autoCompleted

	return summary
}
