package model

import "time"

// Phase identifies which half of the two-phase harvest a run executed.
type Phase string

// Phase constants.
const (
	// PhaseUnknown represents an unrecognized phase value.
	PhaseUnknown Phase = ""
	// PhaseCollect is the enumeration phase: crawl search terms and
	// checkpoint the deduplicated identifier list.
	PhaseCollect Phase = "collect"
	// PhaseProcess is the detail phase: fetch and parse each
	// checkpointed identifier into CSV records.
	PhaseProcess Phase = "process"
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	if p == PhaseUnknown {
		return "unknown"
	}
	return string(p)
}

// IsValid returns true if this is a known phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseCollect, PhaseProcess:
		return true
	default:
		return false
	}
}

// ParsePhase converts a string to a Phase.
func ParsePhase(s string) Phase {
	switch s {
	case "collect":
		return PhaseCollect
	case "process":
		return PhaseProcess
	default:
		return PhaseUnknown
	}
}

// RunSummary aggregates one collect or process run for the run ledger and
// for report output.
type RunSummary struct {
	// Phase is the phase the run executed.
	Phase Phase `json:"phase"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the run's total wall-clock time in nanoseconds.
	Duration time.Duration `json:"duration_ns"`

	// Units is the number of units of work attempted: search terms for
	// collect, identifiers for process.
	Units int `json:"units"`

	// Succeeded is the number of units that completed without error.
	Succeeded int `json:"succeeded"`

	// Failed is the number of units that errored. Not-found identifiers
	// count as succeeded; they are a normal outcome.
	Failed int `json:"failed"`

	// FailedUnits lists the failed units so a later run can be scoped to
	// just the stragglers.
	FailedUnits []string `json:"failed_units,omitempty"`

	// Items is the number of distinct identifiers the run produced
	// (collect) or records it wrote (process).
	Items int `json:"items"`

	// OutputPath is the checkpoint list (collect) or CSV file (process)
	// the run wrote.
	OutputPath string `json:"output_path"`

	// Resumed is true when the run continued a previous run's output
	// rather than starting fresh.
	Resumed bool `json:"resumed"`
}
