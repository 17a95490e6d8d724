// Package report assembles the per-run triage report: classified
// groups in review order, lifecycle context from the snapshot diff,
// and the status of every scanner document that fed the run.
package report

import (
	"sort"
	"time"

	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
)

// InputStatus describes how one scanner document fared.
type InputStatus string

const (
	// InputOK means the document parsed and contributed findings.
	InputOK InputStatus = "ok"

	// InputUnavailable means the document was missing, unreadable or
	// oversized. The run continued without that scanner.
	InputUnavailable InputStatus = "scanner_unavailable"

	// InputMalformed means the document was present but undecodable.
	// All of its records were discarded to avoid partial ingestion.
	InputMalformed InputStatus = "malformed_input"
)

// ScannerStatus annotates one scanner document in the report.
type ScannerStatus struct {
	Scanner  string              `json:"scanner"`
	Kind     finding.ScannerKind `json:"kind"`
	Status   InputStatus         `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Findings int                 `json:"findings"`
}

// Entry is one reviewed group: the correlated findings, the verdict,
// and where the group sits in the repository's history.
type Entry struct {
	Group     correlate.Group   `json:"group"`
	Verdict   finding.Verdict   `json:"verdict"`
	Lifecycle finding.Lifecycle `json:"lifecycle"`
}

// Summary aggregates the run for dashboards and exit-code decisions.
// Tier, lifecycle and severity counts are per group; kind counts are
// per raw finding, so they show how much each scanner contributed.
type Summary struct {
	Findings    int                         `json:"findings"`
	Groups      int                         `json:"groups"`
	ByTier      map[finding.Tier]int        `json:"by_tier"`
	ByKind      map[finding.ScannerKind]int `json:"by_kind"`
	BySeverity  map[finding.Severity]int    `json:"by_severity"`
	ByLifecycle map[finding.Lifecycle]int   `json:"by_lifecycle"`
	Resolved    int                         `json:"resolved"`
	Degraded    int                         `json:"degraded"`
}

// Meta identifies the run a report belongs to.
type Meta struct {
	RunID        string    `json:"run_id"`
	Organization string    `json:"organization,omitempty"`
	Repository   string    `json:"repository"`
	Policy       string    `json:"policy"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Report is the full triage document for one run.
type Report struct {
	Version string `json:"version"`
	Meta    Meta   `json:"meta"`

	// Entries are in review order: reportable before investigate
	// before false positive, higher severity first within a tier,
	// group id as the final tie-break.
	Entries []Entry `json:"entries"`

	// Resolved lists fingerprints live in the previous run and gone
	// now, so fixes surface even though they produce no entry.
	Resolved []string `json:"resolved,omitempty"`

	Inputs  []ScannerStatus `json:"inputs,omitempty"`
	Summary Summary         `json:"summary"`
}

// Build assembles a report. Entries, resolved fingerprints and input
// statuses are copied and sorted; the caller's slices stay untouched.
func Build(meta Meta, entries []Entry, resolved []string, inputs []ScannerStatus) *Report {
	r := &Report{
		Version:  defaults.Version,
		Meta:     meta,
		Entries:  make([]Entry, len(entries)),
		Inputs:   make([]ScannerStatus, len(inputs)),
		Resolved: append([]string(nil), resolved...),
	}
	copy(r.Entries, entries)
	copy(r.Inputs, inputs)

	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if ra, rb := a.Verdict.Tier.Rank(), b.Verdict.Tier.Rank(); ra != rb {
			return ra > rb
		}
		if sa, sb := a.Group.Severity.Score(), b.Group.Severity.Score(); sa != sb {
			return sa > sb
		}
		return a.Group.ID < b.Group.ID
	})
	sort.Strings(r.Resolved)
	sort.SliceStable(r.Inputs, func(i, j int) bool {
		return r.Inputs[i].Scanner < r.Inputs[j].Scanner
	})

	r.Summary = summarize(r)
	return r
}

func summarize(r *Report) Summary {
	s := Summary{
		Groups:      len(r.Entries),
		Resolved:    len(r.Resolved),
		ByTier:      make(map[finding.Tier]int),
		ByKind:      make(map[finding.ScannerKind]int),
		BySeverity:  make(map[finding.Severity]int),
		ByLifecycle: make(map[finding.Lifecycle]int),
	}
	for _, e := range r.Entries {
		s.ByTier[e.Verdict.Tier]++
		s.BySeverity[e.Group.Severity]++
		s.ByLifecycle[e.Lifecycle]++
		s.Findings += len(e.Group.Findings)
		for _, f := range e.Group.Findings {
			s.ByKind[f.Kind]++
		}
	}
	for _, in := range r.Inputs {
		if in.Status != InputOK {
			s.Degraded++
		}
	}
	return s
}

// Tier returns the entries holding the given verdict tier, in report
// order.
func (r *Report) Tier(t finding.Tier) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Verdict.Tier == t {
			out = append(out, e)
		}
	}
	return out
}

// Degraded returns the scanner documents that did not fully parse.
func (r *Report) Degraded() []ScannerStatus {
	var out []ScannerStatus
	for _, in := range r.Inputs {
		if in.Status != InputOK {
			out = append(out, in)
		}
	}
	return out
}

// Reportable reports whether any group classified at the reportable
// tier, the signal CI gates on.
func (r *Report) Reportable() bool {
	return r.Summary.ByTier[finding.TierReportable] > 0
}
