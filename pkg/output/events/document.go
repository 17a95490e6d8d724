package events

import (
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/report"
)

// DocumentEvent is emitted after each scanner document is read and
// normalized. A degraded status means the run continued without the
// document's findings.
type DocumentEvent struct {
	BaseEvent
	Scanner  string              `json:"scanner"`
	Kind     finding.ScannerKind `json:"kind"`
	Status   report.InputStatus  `json:"status"`
	Findings int                 `json:"findings"`
	Detail   string              `json:"detail,omitempty"`
}
