// Package triage orchestrates one full triage run: discover scanner
// documents under the results root, normalize and fingerprint their
// findings in parallel, correlate them into groups, classify each
// group against the policy, diff the run against the repository's
// previous snapshot, and emit the result as a stream of events.
//
// The engine owns pipeline ordering and degradation decisions. The
// stages themselves live in their own packages and stay pure; only
// the snapshot store touches durable state, and only at the very end
// of a successful run.
package triage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scantriage/scantriage/pkg/classify"
	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/input"
	"github.com/scantriage/scantriage/pkg/lifecycle"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/output/exitcode"
	"github.com/scantriage/scantriage/pkg/policy"
	"github.com/scantriage/scantriage/pkg/report"
	"github.com/scantriage/scantriage/pkg/snapshot"
)

// Config holds triage run settings.
type Config struct {
	// ResultsRoot is the directory scanned for scanner documents.
	ResultsRoot string

	// SnapshotRoot is the snapshot store directory. Empty runs
	// stateless: every group reports as new and nothing is persisted.
	SnapshotRoot string

	// Organization and Repository select the codebase to triage.
	// Both may be empty when the results root holds exactly one
	// repository.
	Organization string
	Repository   string

	// PolicyPath selects the policy file. Empty loads the embedded
	// default policy.
	PolicyPath string

	// Workers bounds the parallel document normalization stage.
	Workers int

	// DryRun classifies and reports without writing the snapshot.
	DryRun bool

	// InputTimeout bounds each scanner document read. A document that
	// cannot be read in time degrades to scanner_unavailable instead
	// of stalling the run.
	InputTimeout time.Duration
}

// Engine runs the triage pipeline.
type Engine struct {
	config Config
	disp   *dispatcher.Dispatcher
	logger *slog.Logger
	exits  *exitcode.Manager
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDispatcher routes run events through d. Without a dispatcher
// the engine still runs; events are simply not emitted. The engine
// flushes the dispatcher at the end of a run but never closes it.
func WithDispatcher(d *dispatcher.Dispatcher) Option {
	return func(e *Engine) { e.disp = d }
}

// WithExitConfig overrides how run outcomes map onto exit codes.
func WithExitConfig(cfg exitcode.Config) Option {
	return func(e *Engine) { e.exits = exitcode.New(cfg) }
}

// WithClock pins the engine's time source for deterministic run
// timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a triage engine, applying defaults for zero config
// values.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.WorkersMedium
	}
	if cfg.InputTimeout <= 0 {
		cfg.InputTimeout = duration.NormalizeTimeout
	}
	e := &Engine{
		config: cfg,
		logger: slog.Default(),
		exits:  exitcode.New(exitcode.DefaultConfig()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one triage run.
type Result struct {
	RunID string

	// Report is nil when the run failed before classification.
	Report *report.Report

	// Snapshot is the history state the run produced, nil for
	// stateless runs and failed saves. Dry runs still carry it so
	// callers can inspect what would have been written.
	Snapshot *snapshot.Snapshot

	ExitCode   exitcode.Code
	ExitReason string
	Duration   time.Duration
}

// Run executes the pipeline once. The returned Result always carries
// the exit code and reason; err is non-nil only when no report could
// be produced, which means a configuration failure or a cancelled
// context. Degraded scanners, unreadable history and failed snapshot
// writes do not fail the run, they mark it.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := e.now()
	runID := uuid.New().String()
	res := &Result{RunID: runID}

	abort := func(err error) (*Result, error) {
		res.ExitCode, res.ExitReason = e.exits.ExitCode()
		res.Duration = e.now().Sub(started)
		e.emit(ctx, &events.CompleteEvent{
			BaseEvent:  e.base(events.EventTypeComplete, runID),
			Success:    false,
			ExitCode:   int(res.ExitCode),
			ExitReason: res.ExitReason,
		})
		e.flushEvents()
		return res, err
	}

	pol, err := e.loadPolicy()
	if err != nil {
		e.exits.SetConfigError()
		e.fault(ctx, runID, "", "policy", err, true)
		return abort(err)
	}

	docs, err := input.Discover(e.config.ResultsRoot, e.config.Organization, e.config.Repository)
	if err != nil {
		e.exits.SetConfigError()
		e.fault(ctx, runID, "", "discover", err, true)
		return abort(err)
	}
	org, repo, err := runTarget(e.config.Organization, e.config.Repository, docs)
	if err != nil {
		e.exits.SetConfigError()
		e.fault(ctx, runID, "", "discover", err, true)
		return abort(err)
	}

	e.emit(ctx, &events.StartEvent{
		BaseEvent:    e.base(events.EventTypeStart, runID),
		Organization: org,
		Repository:   repo,
		Policy:       pol.Name,
		Documents:    len(docs),
		Config: events.RunConfig{
			ResultsRoot:  e.config.ResultsRoot,
			SnapshotRoot: e.config.SnapshotRoot,
			Workers:      e.config.Workers,
			DryRun:       e.config.DryRun,
		},
	})

	outcomes := e.normalizeAll(ctx, docs, started)
	if err := ctx.Err(); err != nil {
		e.exits.SetInterrupted()
		return abort(err)
	}

	var all []finding.Finding
	inputs := make([]report.ScannerStatus, 0, len(outcomes))
	for _, oc := range outcomes {
		inputs = append(inputs, report.ScannerStatus{
			Scanner:  oc.doc.Scanner,
			Kind:     oc.doc.Kind,
			Status:   oc.status,
			Detail:   oc.detail,
			Findings: len(oc.findings),
		})
		e.emit(ctx, &events.DocumentEvent{
			BaseEvent: e.base(events.EventTypeDocument, runID),
			Scanner:   oc.doc.Scanner,
			Kind:      oc.doc.Kind,
			Status:    oc.status,
			Findings:  len(oc.findings),
			Detail:    oc.detail,
		})
		if oc.status != report.InputOK {
			e.logger.Warn("scanner document degraded",
				slog.String("scanner", oc.doc.Scanner),
				slog.String("status", string(oc.status)),
				slog.String("detail", oc.detail))
			continue
		}
		all = append(all, oc.findings...)
	}

	groups := correlate.Partition(all, pol)

	store, prev := e.openHistory(ctx, runID, org, repo)

	current := make([]string, 0, len(all))
	for _, g := range groups {
		current = append(current, g.Fingerprints...)
	}
	delta := lifecycle.Diff(current, prev)

	classifier := classify.New(pol)
	entries := make([]report.Entry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, report.Entry{
			Group:     g,
			Verdict:   classifier.Classify(g),
			Lifecycle: delta.TagGroup(g.Fingerprints),
		})
	}

	rep := report.Build(report.Meta{
		RunID:        runID,
		Organization: org,
		Repository:   repo,
		Policy:       pol.Name,
		GeneratedAt:  e.now(),
	}, entries, delta.Resolved, inputs)
	res.Report = rep
	e.exits.Record(rep.Summary)

	// Group events follow the report's tier ordering, so streaming
	// consumers see reportable groups first.
	for _, en := range rep.Entries {
		e.emit(ctx, &events.GroupEvent{
			BaseEvent: e.base(events.EventTypeGroup, runID),
			Group:     en.Group,
			Verdict:   en.Verdict,
			Lifecycle: en.Lifecycle,
		})
	}

	// A cancelled run must leave prior history untouched.
	if err := ctx.Err(); err != nil {
		e.exits.SetInterrupted()
		return abort(err)
	}
	res.Snapshot = e.persist(ctx, runID, store, prev, rep.Entries, delta, started, org, repo)

	res.ExitCode, res.ExitReason = e.exits.ExitCode()
	completed := e.now()
	res.Duration = completed.Sub(started)

	summary := &events.SummaryEvent{
		BaseEvent: e.base(events.EventTypeSummary, runID),
		Version:   defaults.Version,
		Source: events.SummarySource{
			Organization: org,
			Repository:   repo,
			Policy:       pol.Name,
		},
		Summary: rep.Summary,
		Timing: events.SummaryTiming{
			StartedAt:   started,
			CompletedAt: completed,
			DurationSec: res.Duration.Seconds(),
		},
		ExitCode:   int(res.ExitCode),
		ExitReason: res.ExitReason,
	}
	e.emit(ctx, summary)
	e.emit(ctx, &events.CompleteEvent{
		BaseEvent:  e.base(events.EventTypeComplete, runID),
		Success:    res.ExitCode == exitcode.Success,
		ExitCode:   int(res.ExitCode),
		ExitReason: res.ExitReason,
		Summary:    summary,
	})
	e.flushEvents()
	return res, nil
}

func (e *Engine) loadPolicy() (*policy.Policy, error) {
	if e.config.PolicyPath != "" {
		return policy.Load(e.config.PolicyPath)
	}
	return policy.Default()
}

func (e *Engine) base(t events.EventType, runID string) events.BaseEvent {
	return events.BaseEvent{Type: t, Time: e.now(), Run: runID}
}

func (e *Engine) emit(ctx context.Context, ev events.Event) {
	if e.disp == nil {
		return
	}
	e.disp.Dispatch(ctx, ev)
}

// fault logs a pipeline stage failure and emits the matching error
// event. Fatal faults abort the run; the callers decide that.
func (e *Engine) fault(ctx context.Context, runID, scanner, stage string, err error, fatal bool) {
	attrs := []any{
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	}
	if scanner != "" {
		attrs = append(attrs, slog.String("scanner", scanner))
	}
	if fatal {
		e.logger.Error("triage stage failed", attrs...)
	} else {
		e.logger.Warn("triage stage degraded", attrs...)
	}
	e.emit(ctx, &events.ErrorEvent{
		BaseEvent: e.base(events.EventTypeError, runID),
		Scanner:   scanner,
		Stage:     stage,
		Message:   err.Error(),
		Fatal:     fatal,
	})
}

func (e *Engine) flushEvents() {
	if e.disp == nil {
		return
	}
	if err := e.disp.Flush(); err != nil {
		e.logger.Warn("event flush failed", slog.String("error", err.Error()))
	}
}
