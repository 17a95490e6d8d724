package triage

import (
	"context"
	"time"

	"github.com/scantriage/scantriage/pkg/lifecycle"
	"github.com/scantriage/scantriage/pkg/report"
	"github.com/scantriage/scantriage/pkg/snapshot"
)

// openHistory opens the snapshot store and loads the repository's
// latest snapshot. Unreadable history degrades to an empty one: the
// run proceeds with every fingerprint tagged new, and the exit code
// reports the snapshot fault instead of the run failing silently.
func (e *Engine) openHistory(ctx context.Context, runID, org, repo string) (*snapshot.Store, *snapshot.Snapshot) {
	if e.config.SnapshotRoot == "" {
		return nil, nil
	}
	store, err := snapshot.NewStore(e.config.SnapshotRoot)
	if err != nil {
		e.exits.SetSnapshotError()
		e.fault(ctx, runID, "", "snapshot", err, false)
		return nil, nil
	}
	prev, err := store.Load(org, repo)
	if err != nil {
		e.exits.SetSnapshotError()
		e.fault(ctx, runID, "", "snapshot", err, false)
		return store, nil
	}
	return store, prev
}

// persist builds and writes the run's snapshot. Stateless runs skip
// it entirely; dry runs build it without saving so callers can
// inspect what would have been written. A failed save marks the exit
// code and leaves the rotated prior history untouched.
func (e *Engine) persist(ctx context.Context, runID string, store *snapshot.Store, prev *snapshot.Snapshot,
	entries []report.Entry, delta lifecycle.Delta, scanTime time.Time, org, repo string) *snapshot.Snapshot {
	if store == nil {
		return nil
	}
	next := snapshot.Next(prev, org, repo, runID, liveEntries(entries, scanTime), delta.Resolved, e.now())
	if e.config.DryRun {
		return next
	}
	if err := store.Save(next); err != nil {
		e.exits.SetSnapshotError()
		e.fault(ctx, runID, "", "snapshot", err, false)
		return nil
	}
	return next
}

// liveEntries flattens report entries into snapshot entries, one per
// constituent fingerprint, each carrying its group's verdict tier and
// aggregate severity.
func liveEntries(entries []report.Entry, scanTime time.Time) []snapshot.Entry {
	var live []snapshot.Entry
	for _, en := range entries {
		for _, fp := range en.Group.Fingerprints {
			live = append(live, snapshot.Entry{
				Fingerprint: fp,
				LastSeen:    scanTime,
				Tier:        en.Verdict.Tier,
				Severity:    en.Group.Severity,
			})
		}
	}
	return live
}
