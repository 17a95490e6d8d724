// Package lifecycle computes the history delta between the current
// run's fingerprints and the prior snapshot. The diff is pure: it
// never touches the snapshot it reads, and persisting the successor
// snapshot is a separate step the caller performs only after the full
// run succeeds.
package lifecycle

import (
	"sort"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/snapshot"
)

// Delta partitions fingerprints by lifecycle. New, Persistent and
// Resolved are disjoint; New and Persistent cover the current run,
// Resolved and Persistent cover the prior snapshot's live set.
// Regressed is the subset of New found in the prior snapshot's
// resolved ledger. All slices are sorted.
type Delta struct {
	New        []string `json:"new"`
	Persistent []string `json:"persistent"`
	Resolved   []string `json:"resolved"`
	Regressed  []string `json:"regressed,omitempty"`
}

// Diff compares the current fingerprints against the prior snapshot.
// A nil snapshot is an empty history: everything is new and nothing
// can have regressed.
func Diff(current []string, prev *snapshot.Snapshot) Delta {
	currentSet := make(map[string]bool, len(current))
	for _, fp := range current {
		if fp != "" {
			currentSet[fp] = true
		}
	}
	prevLive := prev.LiveSet()
	prevResolved := prev.ResolvedSet()

	var d Delta
	for fp := range currentSet {
		if prevLive[fp] {
			d.Persistent = append(d.Persistent, fp)
			continue
		}
		d.New = append(d.New, fp)
		if prevResolved[fp] {
			d.Regressed = append(d.Regressed, fp)
		}
	}
	for fp := range prevLive {
		if !currentSet[fp] {
			d.Resolved = append(d.Resolved, fp)
		}
	}

	sort.Strings(d.New)
	sort.Strings(d.Persistent)
	sort.Strings(d.Resolved)
	sort.Strings(d.Regressed)
	return d
}

// Tag returns the lifecycle tag for one fingerprint. Regressed wins
// over new; a fingerprint the delta never saw counts as new.
func (d Delta) Tag(fp string) finding.Lifecycle {
	switch {
	case contains(d.Regressed, fp):
		return finding.LifecycleRegressed
	case contains(d.New, fp):
		return finding.LifecycleNew
	case contains(d.Persistent, fp):
		return finding.LifecyclePersistent
	case contains(d.Resolved, fp):
		return finding.LifecycleResolved
	}
	return finding.LifecycleNew
}

// TagGroup returns the tag for a correlated group's fingerprint set,
// by attention order: any regression tags the group regressed, then
// any new fingerprint tags it new, otherwise it is persistent.
func (d Delta) TagGroup(fingerprints []string) finding.Lifecycle {
	tag := finding.LifecyclePersistent
	for _, fp := range fingerprints {
		switch d.Tag(fp) {
		case finding.LifecycleRegressed:
			return finding.LifecycleRegressed
		case finding.LifecycleNew:
			tag = finding.LifecycleNew
		}
	}
	return tag
}

func contains(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}
