// Package snapshot persists per-repository triage history as
// versioned JSON records: the fingerprints live at the end of each
// successful run, plus a resolved-fingerprint ledger that powers
// regression detection. Snapshots are written atomically and
// superseded, never merged; the two most recent are kept on disk.
package snapshot

import (
	"fmt"
	"sort"
	"time"

	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
)

// Version is the current snapshot wire version.
const Version = 1

// Entry is one live fingerprint with its state at last classification.
type Entry struct {
	Fingerprint string `json:"fingerprint"`

	// LastSeen is the scan time of the run that most recently
	// produced the fingerprint.
	LastSeen time.Time `json:"last_seen"`

	// Tier and Severity record the verdict at last classification.
	Tier     finding.Tier     `json:"tier"`
	Severity finding.Severity `json:"severity"`
}

// ResolvedEntry is one ledger record: a fingerprint that disappeared,
// and when. A later reappearance within the retention window is a
// regression.
type ResolvedEntry struct {
	Fingerprint string    `json:"fingerprint"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Snapshot is the persisted state of one repository at the end of one
// triage run.
type Snapshot struct {
	Version      int       `json:"version"`
	Organization string    `json:"organization,omitempty"`
	Repository   string    `json:"repository"`
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Live holds the fingerprints present in the run, sorted.
	Live []Entry `json:"live"`

	// Resolved is the regression ledger, sorted by fingerprint.
	Resolved []ResolvedEntry `json:"resolved,omitempty"`
}

// LiveFingerprints returns the sorted live fingerprint list.
func (s *Snapshot) LiveFingerprints() []string {
	if s == nil {
		return nil
	}
	fps := make([]string, len(s.Live))
	for i, e := range s.Live {
		fps[i] = e.Fingerprint
	}
	return fps
}

// LiveSet returns the live fingerprints as a set.
func (s *Snapshot) LiveSet() map[string]bool {
	if s == nil {
		return nil
	}
	set := make(map[string]bool, len(s.Live))
	for _, e := range s.Live {
		set[e.Fingerprint] = true
	}
	return set
}

// ResolvedSet returns the ledger fingerprints as a set.
func (s *Snapshot) ResolvedSet() map[string]bool {
	if s == nil {
		return nil
	}
	set := make(map[string]bool, len(s.Resolved))
	for _, e := range s.Resolved {
		set[e.Fingerprint] = true
	}
	return set
}

// CorruptionError reports unreadable persisted history. The run
// proceeds as if no history existed; the caller logs loudly instead
// of failing silently.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("snapshot: corrupt history at %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// Next builds the successor snapshot after a successful run. The
// resolved ledger carries forward from prev, gains the fingerprints
// resolved this run, loses any fingerprint that is live again, and is
// pruned by the retention window.
func Next(prev *Snapshot, org, repo, runID string, live []Entry, resolvedNow []string, now time.Time) *Snapshot {
	next := &Snapshot{
		Version:      Version,
		Organization: org,
		Repository:   repo,
		RunID:        runID,
		CreatedAt:    now,
		Live:         make([]Entry, len(live)),
	}
	copy(next.Live, live)
	sort.Slice(next.Live, func(i, j int) bool {
		return next.Live[i].Fingerprint < next.Live[j].Fingerprint
	})

	liveSet := next.LiveSet()
	cutoff := now.Add(-duration.ResolvedRetention)
	ledger := map[string]time.Time{}
	if prev != nil {
		for _, e := range prev.Resolved {
			if e.ResolvedAt.Before(cutoff) || liveSet[e.Fingerprint] {
				continue
			}
			ledger[e.Fingerprint] = e.ResolvedAt
		}
	}
	for _, fp := range resolvedNow {
		ledger[fp] = now
	}

	next.Resolved = make([]ResolvedEntry, 0, len(ledger))
	for fp, at := range ledger {
		next.Resolved = append(next.Resolved, ResolvedEntry{Fingerprint: fp, ResolvedAt: at})
	}
	sort.Slice(next.Resolved, func(i, j int) bool {
		return next.Resolved[i].Fingerprint < next.Resolved[j].Fingerprint
	})
	return next
}
