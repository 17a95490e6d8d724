package events

import (
	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/report"
)

// GroupEvent is emitted for each correlated finding group after
// classification. It carries the full group, the triage verdict,
// and the lifecycle state relative to the previous run.
type GroupEvent struct {
	BaseEvent
	Group     correlate.Group   `json:"group"`
	Verdict   finding.Verdict   `json:"verdict"`
	Lifecycle finding.Lifecycle `json:"lifecycle"`
}

// Entry returns the report entry carried by this event.
func (e GroupEvent) Entry() report.Entry {
	return report.Entry{Group: e.Group, Verdict: e.Verdict, Lifecycle: e.Lifecycle}
}
