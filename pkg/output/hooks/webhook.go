// Package hooks provides event hooks for real-time integrations.
// Hooks are called during a triage run to push events to external systems
// such as webhooks, Prometheus scrapers, and OpenTelemetry collectors.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/httpclient"
	"github.com/scantriage/scantriage/pkg/iohelper"
	"github.com/scantriage/scantriage/pkg/jsonutil"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*WebhookHook)(nil)

// WebhookHook sends events to an HTTP endpoint.
// It supports retries with exponential backoff, custom headers, outbound
// rate limiting, and filtering by tier or severity.
type WebhookHook struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	opts     WebhookOptions
}

// WebhookOptions configures the webhook hook behavior.
type WebhookOptions struct {
	// Headers to include in requests.
	Headers map[string]string

	// Timeout for HTTP requests (default: 10s).
	Timeout time.Duration

	// RetryCount for failed requests (default: 3).
	RetryCount int

	// OnlyReportable only sends group events with a reportable verdict.
	OnlyReportable bool

	// MinSeverity filters group events below this severity.
	// Groups with severity less severe than this will be skipped.
	MinSeverity finding.Severity

	// RatePerSecond caps outbound requests per second (default: 5).
	// A negative value disables rate limiting.
	RatePerSecond int

	// Logger receives delivery failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewWebhookHook creates a new webhook hook that sends events to the given endpoint.
// The hook is safe for concurrent use.
func NewWebhookHook(endpoint string, opts WebhookOptions) *WebhookHook {
	// Apply defaults
	if opts.Timeout == 0 {
		opts.Timeout = duration.WebhookTimeout
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = defaults.RetryMedium
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = defaults.WebhookRatePerSecond
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RatePerSecond)
	}

	return &WebhookHook{
		endpoint: endpoint,
		client:   httpclient.New(httpclient.Config{Timeout: opts.Timeout}),
		limiter:  limiter,
		logger:   orDefault(opts.Logger),
		opts:     opts,
	}
}

// OnEvent sends the event to the configured webhook endpoint.
// It returns nil on success or if the event should be skipped.
// Errors are logged but do not block the triage run.
func (h *WebhookHook) OnEvent(ctx context.Context, event events.Event) error {
	// Apply OnlyReportable filter
	if h.opts.OnlyReportable {
		g, ok := event.(*events.GroupEvent)
		if !ok || g.Verdict.Tier != finding.TierReportable {
			return nil
		}
	}

	// Apply MinSeverity filter
	if h.opts.MinSeverity != "" && !h.meetsMinSeverity(event) {
		return nil
	}

	// Serialize event to JSON
	body, err := jsonutil.Marshal(event)
	if err != nil {
		h.logger.Warn("webhook: failed to marshal event",
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
		return nil // Don't block the run on serialization errors
	}

	// Respect the outbound rate budget
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil // Run cancelled while waiting
		}
	}

	// Send with retries
	if err := h.sendWithRetry(ctx, event.EventType(), body); err != nil {
		h.logger.Warn("webhook: failed to send event after retries",
			slog.String("event_type", string(event.EventType())),
			slog.String("endpoint", h.endpoint),
			slog.String("error", err.Error()))
		return nil // Don't block the run on webhook failures
	}

	return nil
}

// EventTypes returns nil to receive all event types.
// Filtering is done in OnEvent based on options.
func (h *WebhookHook) EventTypes() []events.EventType {
	return nil
}

// meetsMinSeverity checks if the event meets the minimum severity threshold.
func (h *WebhookHook) meetsMinSeverity(event events.Event) bool {
	minScore := h.opts.MinSeverity.Score()
	if minScore == 0 {
		return true // Unknown threshold, allow through
	}

	g, ok := event.(*events.GroupEvent)
	if !ok {
		return true // Non-group events pass through
	}

	score := g.Group.Severity.Score()
	if score == 0 {
		return true // Unknown severity, allow through
	}

	return score >= minScore
}

// sendWithRetry sends the request with exponential backoff retries.
func (h *WebhookHook) sendWithRetry(ctx context.Context, eventType events.EventType, body []byte) error {
	var lastErr error

	for attempt := 0; attempt < h.opts.RetryCount; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * duration.RetryBackoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		// Set headers
		req.Header.Set("Content-Type", defaults.ContentTypeJSON)
		req.Header.Set("User-Agent", defaults.UserAgent("webhook"))
		req.Header.Set("X-ScanTriage-Event-Type", string(eventType))

		for key, value := range h.opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		status := resp.StatusCode

		// Success
		if status >= 200 && status < 300 {
			_ = iohelper.DrainAndClose(resp.Body)
			return nil
		}

		// Keep whatever detail the endpoint returned with the failure
		snippet, _ := iohelper.ReadBodySmall(resp.Body)
		_ = iohelper.DrainAndClose(resp.Body)

		// Retry on 5xx errors
		if status >= 500 {
			lastErr = statusError("server error", status, snippet)
			continue
		}

		// Don't retry on 4xx errors
		return statusError("client error", status, snippet)
	}

	return lastErr
}

func statusError(kind string, status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("%s: %d", kind, status)
	}
	return fmt.Errorf("%s: %d: %s", kind, status, detail)
}
