package hooks

import (
	"context"
	"log/slog"

	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/report"
)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// LoggerHook writes every event to a structured logger. It is the
// cheapest way to land a run's event stream in an existing log
// pipeline alongside the rest of the process output.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook creates a hook that logs events through logger.
// A nil logger falls back to slog.Default().
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(logger)}
}

// OnEvent logs the event with type-specific attributes.
// Degraded documents and errors are raised to warning level,
// fatal errors to error level.
func (h *LoggerHook) OnEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.InfoContext(ctx, "triage run started",
			slog.String("run_id", e.RunID()),
			slog.String("organization", e.Organization),
			slog.String("repository", e.Repository),
			slog.String("policy", e.Policy),
			slog.Int("documents", e.Documents))

	case *events.DocumentEvent:
		level := slog.LevelInfo
		if e.Status != report.InputOK {
			level = slog.LevelWarn
		}
		h.logger.Log(ctx, level, "document processed",
			slog.String("run_id", e.RunID()),
			slog.String("scanner", e.Scanner),
			slog.String("kind", string(e.Kind)),
			slog.String("status", string(e.Status)),
			slog.Int("findings", e.Findings))

	case *events.GroupEvent:
		h.logger.InfoContext(ctx, "group triaged",
			slog.String("run_id", e.RunID()),
			slog.String("group_id", e.Group.ID),
			slog.String("tier", string(e.Verdict.Tier)),
			slog.String("reason", e.Verdict.Reason),
			slog.Float64("confidence", e.Verdict.Confidence),
			slog.String("severity", string(e.Group.Severity)),
			slog.String("lifecycle", string(e.Lifecycle)),
			slog.Int("findings", len(e.Group.Findings)))

	case *events.ErrorEvent:
		level := slog.LevelWarn
		if e.Fatal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "triage error",
			slog.String("run_id", e.RunID()),
			slog.String("stage", e.Stage),
			slog.String("scanner", e.Scanner),
			slog.String("message", e.Message),
			slog.Bool("fatal", e.Fatal))

	case *events.SummaryEvent:
		h.logger.InfoContext(ctx, "triage summary",
			slog.String("run_id", e.RunID()),
			slog.String("repository", e.Source.Repository),
			slog.Int("findings", e.Summary.Findings),
			slog.Int("groups", e.Summary.Groups),
			slog.Int("resolved", e.Summary.Resolved),
			slog.Int("degraded", e.Summary.Degraded),
			slog.Float64("duration_sec", e.Timing.DurationSec),
			slog.Int("exit_code", e.ExitCode))

	case *events.CompleteEvent:
		h.logger.InfoContext(ctx, "triage run complete",
			slog.String("run_id", e.RunID()),
			slog.Bool("success", e.Success),
			slog.Int("exit_code", e.ExitCode),
			slog.String("exit_reason", e.ExitReason))
	}

	return nil
}

// EventTypes returns nil so the hook receives every event.
func (h *LoggerHook) EventTypes() []events.EventType {
	return nil
}
