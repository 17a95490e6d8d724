package events

import (
	"time"

	"github.com/scantriage/scantriage/pkg/report"
)

// SummaryEvent represents the final run summary.
// It contains the repository identity, the aggregate counts from the
// built report, timing, and the exit status of the run.
type SummaryEvent struct {
	BaseEvent
	Version    string         `json:"version"`
	Source     SummarySource  `json:"source"`
	Summary    report.Summary `json:"summary"`
	Timing     SummaryTiming  `json:"timing"`
	ExitCode   int            `json:"exit_code"`
	ExitReason string         `json:"exit_reason"`
}

// SummarySource identifies the repository and policy the run covered.
type SummarySource struct {
	Organization string `json:"organization,omitempty"`
	Repository   string `json:"repository"`
	Policy       string `json:"policy"`
}

// SummaryTiming contains timing information for the run.
type SummaryTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationSec float64   `json:"duration_sec"`
}
