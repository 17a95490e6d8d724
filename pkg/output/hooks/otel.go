package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/report"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports triage telemetry to an OpenTelemetry collector.
// It creates one span per triage run and records events as span events
// with attributes. The hook supports traces and can be extended for metrics.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	// Active span tracking
	mu       sync.Mutex
	rootSpan trace.Span
	rootCtx  context.Context
	closed   bool

	// Run metadata for attributes
	runID      string
	repository string
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "scantriage").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout is the timeout for establishing connection (default: 10s).
	ConnectionTimeout time.Duration
}

// NewOTelHook creates a new OpenTelemetry hook that exports telemetry to the configured endpoint.
// The exporter connects immediately but handles connection failures gracefully without blocking runs.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	// Apply defaults
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = duration.OTelShutdown
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = duration.OTelConnect
	}

	// Build gRPC options
	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	// Build exporter options
	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}

	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	// Create exporter with context timeout for connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	// Create resource with service info (avoid merging with Default to prevent schema conflicts)
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "triage"),
	)

	// Create tracer provider with batch processor for efficiency
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set as global provider
	otel.SetTracerProvider(tracerProvider)

	hook := &OTelHook{
		opts:           opts,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer("scantriage/triage"),
	}

	return hook, nil
}

// OnEvent processes events and exports telemetry to the OpenTelemetry collector.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		return h.handleStart(ctx, e)
	case *events.DocumentEvent:
		return h.handleDocument(e)
	case *events.GroupEvent:
		return h.handleGroup(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	case *events.CompleteEvent:
		return h.handleComplete(e)
	default:
		return nil
	}
}

// handleStart creates the root span for the triage run.
func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) error {
	h.runID = start.RunID()
	h.repository = start.Repository

	// Create root span for the entire run
	spanCtx, span := h.tracer.Start(ctx, "scantriage.triage",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run_id", h.runID),
			attribute.String("organization", start.Organization),
			attribute.String("repository", start.Repository),
			attribute.String("policy", start.Policy),
			attribute.Int("documents", start.Documents),
			attribute.Int("workers", start.Config.Workers),
			attribute.Bool("dry_run", start.Config.DryRun),
		),
	)

	h.rootSpan = span
	h.rootCtx = spanCtx

	// Add span event for run start
	span.AddEvent("triage_started", trace.WithAttributes(
		attribute.String("repository", h.repository),
		attribute.Int("documents", start.Documents),
	))

	return nil
}

// handleDocument records document processing as span events.
func (h *OTelHook) handleDocument(doc *events.DocumentEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	eventName := "document_processed"
	if doc.Status != report.InputOK {
		eventName = "input_degraded"
	}

	h.rootSpan.AddEvent(eventName, trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.String("scanner", doc.Scanner),
		attribute.String("kind", string(doc.Kind)),
		attribute.String("status", string(doc.Status)),
		attribute.Int("findings", doc.Findings),
	))

	return nil
}

// handleGroup records triaged groups as span events with verdict attributes.
func (h *OTelHook) handleGroup(group *events.GroupEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	eventName := "group_triaged"
	if group.Lifecycle == finding.LifecycleRegressed {
		eventName = "regression_detected"
	}

	h.rootSpan.AddEvent(eventName, trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.String("group_id", group.Group.ID),
		attribute.String("tier", string(group.Verdict.Tier)),
		attribute.String("reason", group.Verdict.Reason),
		attribute.Float64("confidence", group.Verdict.Confidence),
		attribute.String("severity", string(group.Group.Severity)),
		attribute.String("lifecycle", string(group.Lifecycle)),
		attribute.Int("findings", len(group.Group.Findings)),
		attribute.StringSlice("scanners", group.Group.Scanners),
	))

	// Set span status to error if a resolved finding came back
	if group.Lifecycle == finding.LifecycleRegressed {
		h.rootSpan.SetStatus(codes.Error, "regression detected")
	}

	return nil
}

// handleError records pipeline errors as span events.
func (h *OTelHook) handleError(errEvent *events.ErrorEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("triage_error", trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.String("stage", errEvent.Stage),
		attribute.String("scanner", errEvent.Scanner),
		attribute.String("message", errEvent.Message),
		attribute.Bool("fatal", errEvent.Fatal),
	))

	if errEvent.Fatal {
		h.rootSpan.SetStatus(codes.Error, errEvent.Message)
	}

	return nil
}

// handleSummary adds summary attributes to the root span.
func (h *OTelHook) handleSummary(summary *events.SummaryEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	reportable := summary.Summary.ByTier[finding.TierReportable]

	// Add comprehensive summary attributes to root span
	h.rootSpan.SetAttributes(
		attribute.String("source.organization", summary.Source.Organization),
		attribute.String("source.repository", summary.Source.Repository),
		attribute.String("source.policy", summary.Source.Policy),
		attribute.Int("totals.findings", summary.Summary.Findings),
		attribute.Int("totals.groups", summary.Summary.Groups),
		attribute.Int("totals.reportable", reportable),
		attribute.Int("totals.investigate", summary.Summary.ByTier[finding.TierInvestigate]),
		attribute.Int("totals.false_positives", summary.Summary.ByTier[finding.TierFalsePositive]),
		attribute.Int("totals.resolved", summary.Summary.Resolved),
		attribute.Int("totals.degraded", summary.Summary.Degraded),
		attribute.Float64("timing.duration_sec", summary.Timing.DurationSec),
		attribute.Int("exit_code", summary.ExitCode),
		attribute.String("exit_reason", summary.ExitReason),
	)

	// Add summary event
	h.rootSpan.AddEvent("triage_summary", trace.WithAttributes(
		attribute.Int("findings", summary.Summary.Findings),
		attribute.Int("groups", summary.Summary.Groups),
		attribute.Int("reportable", reportable),
		attribute.Int("resolved", summary.Summary.Resolved),
		attribute.Float64("duration_sec", summary.Timing.DurationSec),
	))

	// Set final span status based on results
	if reportable > 0 {
		h.rootSpan.SetStatus(codes.Error, "Triage completed with reportable findings")
	} else {
		h.rootSpan.SetStatus(codes.Ok, "Triage completed successfully")
	}

	return nil
}

// handleComplete finalizes the run span and flushes telemetry.
func (h *OTelHook) handleComplete(complete *events.CompleteEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	// Add completion event
	h.rootSpan.AddEvent("triage_completed", trace.WithAttributes(
		attribute.Bool("success", complete.Success),
		attribute.Int("exit_code", complete.ExitCode),
		attribute.String("exit_reason", complete.ExitReason),
	))

	// Set final status based on success
	if complete.Success {
		if complete.Summary != nil && complete.Summary.Summary.ByTier[finding.TierReportable] > 0 {
			h.rootSpan.SetStatus(codes.Error, "Completed with reportable findings")
		} else {
			h.rootSpan.SetStatus(codes.Ok, "Completed successfully")
		}
	} else {
		h.rootSpan.SetStatus(codes.Error, complete.ExitReason)
	}

	// End the root span
	h.rootSpan.End()
	h.rootSpan = nil

	return nil
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeDocument,
		events.EventTypeGroup,
		events.EventTypeError,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}
}

// Close shuts down the tracer provider and flushes any pending telemetry.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	// End any active span
	if h.rootSpan != nil {
		h.rootSpan.End()
		h.rootSpan = nil
	}

	// Shutdown tracer provider with timeout
	if h.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
		defer cancel()

		if err := h.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("otel: shutdown tracer provider: %w", err)
		}
	}

	return nil
}

// Endpoint returns the OTLP endpoint being used.
// Useful for testing and logging.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}
