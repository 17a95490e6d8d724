package hooks

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes triage metrics for Prometheus scraping.
// It starts an HTTP server that serves metrics at the configured path.
// Metrics include counters for findings/groups/regressions/errors, gauges
// for actionable ratio and run duration, and a histogram for verdict
// confidence distribution.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	opts     PrometheusOptions

	// Counters
	findingsTotal    *prometheus.CounterVec
	groupsTotal      *prometheus.CounterVec
	regressionsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec

	// Gauges
	actionableRatio      *prometheus.GaugeVec
	runDurationSeconds   *prometheus.GaugeVec
	resolvedFingerprints *prometheus.GaugeVec
	degradedInputs       *prometheus.GaugeVec

	// Histograms
	groupConfidence *prometheus.HistogramVec

	// Internal tracking
	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Port for the metrics server (default: 9090).
	Port int

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration
}

// NewPrometheusHook creates a new Prometheus hook that exposes metrics at the configured endpoint.
// The metrics server starts immediately and runs until Close() is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	// Apply defaults
	if opts.Port == 0 {
		opts.Port = defaults.MetricsPort
	}
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = duration.FlushTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = duration.WebhookTimeout
	}

	// Create custom registry (don't pollute default)
	registry := prometheus.NewRegistry()

	hook := &PrometheusHook{
		registry: registry,
		opts:     opts,
	}

	// Initialize metrics
	if err := hook.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Start HTTP server
	if err := hook.startServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	return hook, nil
}

// initMetrics creates and registers all Prometheus metrics.
func (h *PrometheusHook) initMetrics() error {
	// Counters
	h.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scantriage_findings_total",
			Help: "Total number of normalized findings ingested",
		},
		[]string{"scanner", "kind"},
	)

	h.groupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scantriage_groups_total",
			Help: "Total number of correlated groups triaged",
		},
		[]string{"tier", "severity"},
	)

	h.regressionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scantriage_regressions_total",
			Help: "Total number of findings that reappeared after being resolved",
		},
		[]string{"severity"},
	)

	h.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scantriage_errors_total",
			Help: "Total number of errors during triage",
		},
		[]string{"stage"},
	)

	// Gauges
	h.actionableRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scantriage_actionable_ratio",
			Help: "Fraction of triaged groups with a reportable verdict (0..1)",
		},
		[]string{"repository"},
	)

	h.runDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scantriage_run_duration_seconds",
			Help: "Total triage run duration in seconds",
		},
		[]string{"repository"},
	)

	h.resolvedFingerprints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scantriage_resolved_fingerprints",
			Help: "Fingerprints live in the previous run and absent from this one",
		},
		[]string{"repository"},
	)

	h.degradedInputs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scantriage_degraded_inputs",
			Help: "Scanner documents that were missing or malformed this run",
		},
		[]string{"repository"},
	)

	// Histograms
	h.groupConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scantriage_group_confidence",
			Help:    "Verdict confidence distribution per tier",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"tier"},
	)

	// Register all metrics
	collectors := []prometheus.Collector{
		h.findingsTotal,
		h.groupsTotal,
		h.regressionsTotal,
		h.errorsTotal,
		h.actionableRatio,
		h.runDurationSeconds,
		h.resolvedFingerprints,
		h.degradedInputs,
		h.groupConfidence,
	}

	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// startServer starts the HTTP server for metrics.
func (h *PrometheusHook) startServer() error {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", h.opts.Port),
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("prometheus: metrics server error: %v", err)
		}
	}()

	return nil
}

// OnEvent processes events and updates Prometheus metrics.
func (h *PrometheusHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.DocumentEvent:
		return h.handleDocument(e)
	case *events.GroupEvent:
		return h.handleGroup(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	default:
		return nil
	}
}

// handleDocument counts normalized findings per scanner document.
func (h *PrometheusHook) handleDocument(doc *events.DocumentEvent) error {
	h.findingsTotal.WithLabelValues(doc.Scanner, string(doc.Kind)).Add(float64(doc.Findings))
	return nil
}

// handleGroup processes group events and updates metrics.
func (h *PrometheusHook) handleGroup(group *events.GroupEvent) error {
	tier := string(group.Verdict.Tier)
	severity := string(group.Group.Severity)

	h.groupsTotal.WithLabelValues(tier, severity).Inc()
	h.groupConfidence.WithLabelValues(tier).Observe(group.Verdict.Confidence)

	if group.Lifecycle == finding.LifecycleRegressed {
		h.regressionsTotal.WithLabelValues(severity).Inc()
	}

	return nil
}

// handleError counts errors by pipeline stage.
func (h *PrometheusHook) handleError(errEvent *events.ErrorEvent) error {
	h.errorsTotal.WithLabelValues(errEvent.Stage).Inc()
	return nil
}

// handleSummary processes summary events and updates final metrics.
func (h *PrometheusHook) handleSummary(summary *events.SummaryEvent) error {
	repo := repoLabel(summary.Source.Organization, summary.Source.Repository)

	var ratio float64
	if summary.Summary.Groups > 0 {
		ratio = float64(summary.Summary.ByTier[finding.TierReportable]) / float64(summary.Summary.Groups)
	}

	h.actionableRatio.WithLabelValues(repo).Set(ratio)
	h.runDurationSeconds.WithLabelValues(repo).Set(summary.Timing.DurationSec)
	h.resolvedFingerprints.WithLabelValues(repo).Set(float64(summary.Summary.Resolved))
	h.degradedInputs.WithLabelValues(repo).Set(float64(summary.Summary.Degraded))

	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeDocument,
		events.EventTypeGroup,
		events.EventTypeError,
		events.EventTypeSummary,
	}
}

// Close shuts down the metrics server and releases resources.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), duration.FlushTimeout)
		defer cancel()
		return h.server.Shutdown(ctx)
	}

	return nil
}

// MetricsAddr returns the address where metrics are served.
// Useful for testing and logging.
func (h *PrometheusHook) MetricsAddr() string {
	return fmt.Sprintf("http://localhost:%d%s", h.opts.Port, h.opts.Path)
}

// repoLabel builds the repository metric label from an org/repo pair.
// Returns "unknown" when the repository is empty.
func repoLabel(org, repo string) string {
	if repo == "" {
		return "unknown"
	}
	if org == "" {
		return repo
	}
	return org + "/" + repo
}
