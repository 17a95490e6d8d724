package hooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/report"
)

// =============================================================================
// PrometheusHook Tests
// =============================================================================

func TestPrometheusHook_StartsServer(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19090, // Use non-standard port for testing
		Path: "/metrics",
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	// Verify server is running
	resp, err := http.Get(hook.MetricsAddr())
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestPrometheusHook_DefaultOptions(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19091, // Use non-standard port for testing
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	// Verify defaults were applied
	if hook.opts.Path != "/metrics" {
		t.Errorf("expected default path '/metrics', got %q", hook.opts.Path)
	}
	if hook.opts.ReadTimeout != 5*time.Second {
		t.Errorf("expected default read timeout 5s, got %v", hook.opts.ReadTimeout)
	}
	if hook.opts.WriteTimeout != 10*time.Second {
		t.Errorf("expected default write timeout 10s, got %v", hook.opts.WriteTimeout)
	}
}

func TestPrometheusHook_RecordsFindingsCounter(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19092,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	// Send document event
	event := newTestDocumentEvent("gitleaks", report.InputOK, 5)
	err = hook.OnEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	// Give server time to process
	time.Sleep(50 * time.Millisecond)

	// Fetch metrics
	body := fetchMetrics(t, hook.MetricsAddr())

	// Verify counter was incremented
	if !strings.Contains(body, "scantriage_findings_total") {
		t.Error("expected scantriage_findings_total metric")
	}
	if !strings.Contains(body, `scanner="gitleaks"`) {
		t.Error("expected scanner label on findings counter")
	}
}

func TestPrometheusHook_RecordsGroupsCounter(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19093,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestGroupEvent(finding.High, finding.TierReportable, finding.LifecycleNew)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if !strings.Contains(body, "scantriage_groups_total") {
		t.Error("expected scantriage_groups_total metric")
	}
	if !strings.Contains(body, `tier="reportable"`) {
		t.Error("expected tier label on groups counter")
	}
	if !strings.Contains(body, `severity="high"`) {
		t.Error("expected severity label on groups counter")
	}
}

func TestPrometheusHook_RecordsRegressionsCounter(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19094,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestGroupEvent(finding.Critical, finding.TierReportable, finding.LifecycleRegressed)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if !strings.Contains(body, "scantriage_regressions_total") {
		t.Error("expected scantriage_regressions_total metric")
	}
	if !strings.Contains(body, `severity="critical"`) {
		t.Error("expected severity label on regressions counter")
	}
}

func TestPrometheusHook_NewGroupDoesNotCountAsRegression(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19095,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestGroupEvent(finding.High, finding.TierReportable, finding.LifecycleNew)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if strings.Contains(body, "scantriage_regressions_total{") {
		t.Error("expected no regression series for new group")
	}
}

func TestPrometheusHook_RecordsErrorsCounter(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19096,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestErrorEvent("normalize", false)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if !strings.Contains(body, "scantriage_errors_total") {
		t.Error("expected scantriage_errors_total metric")
	}
	if !strings.Contains(body, `stage="normalize"`) {
		t.Error("expected stage label on errors counter")
	}
}

func TestPrometheusHook_RecordsConfidenceHistogram(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19097,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestGroupEvent(finding.High, finding.TierReportable, finding.LifecycleNew)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if !strings.Contains(body, "scantriage_group_confidence") {
		t.Error("expected scantriage_group_confidence metric")
	}
	if !strings.Contains(body, "scantriage_group_confidence_bucket") {
		t.Error("expected histogram buckets for confidence metric")
	}
}

func TestPrometheusHook_RecordsSummaryGauges(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19098,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	// 4 groups with 2 reportable gives a 0.5 actionable ratio
	event := newTestSummaryEvent(4, 2)
	if err := hook.OnEvent(context.Background(), event); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	if !strings.Contains(body, `scantriage_actionable_ratio{repository="acme/payments"} 0.5`) {
		t.Error("expected actionable ratio gauge with repository label")
	}
	if !strings.Contains(body, "scantriage_run_duration_seconds") {
		t.Error("expected scantriage_run_duration_seconds metric")
	}
	if !strings.Contains(body, "scantriage_resolved_fingerprints") {
		t.Error("expected scantriage_resolved_fingerprints metric")
	}
	if !strings.Contains(body, "scantriage_degraded_inputs") {
		t.Error("expected scantriage_degraded_inputs metric")
	}
}

func TestPrometheusHook_MultipleEvents(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19099,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	ctx := context.Background()

	// Simulate a small run
	for _, ev := range []events.Event{
		newTestDocumentEvent("gitleaks", report.InputOK, 5),
		newTestDocumentEvent("trufflehog", report.InputUnavailable, 0),
		newTestGroupEvent(finding.Critical, finding.TierReportable, finding.LifecycleNew),
		newTestGroupEvent(finding.Medium, finding.TierFalsePositive, finding.LifecyclePersistent),
		newTestErrorEvent("input", false),
		newTestSummaryEvent(2, 1),
	} {
		if err := hook.OnEvent(ctx, ev); err != nil {
			t.Fatalf("OnEvent failed: %v", err)
		}
	}

	time.Sleep(50 * time.Millisecond)
	body := fetchMetrics(t, hook.MetricsAddr())

	expectedMetrics := []string{
		"scantriage_findings_total",
		"scantriage_groups_total",
		"scantriage_errors_total",
		"scantriage_actionable_ratio",
		"scantriage_run_duration_seconds",
		"scantriage_group_confidence",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %s metric", metric)
		}
	}
}

func TestPrometheusHook_EventTypesReturnsExpectedTypes(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19101,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	eventTypes := hook.EventTypes()

	expectedTypes := map[events.EventType]bool{
		events.EventTypeDocument: false,
		events.EventTypeGroup:    false,
		events.EventTypeError:    false,
		events.EventTypeSummary:  false,
	}

	for _, et := range eventTypes {
		if _, ok := expectedTypes[et]; ok {
			expectedTypes[et] = true
		} else {
			t.Errorf("unexpected event type: %s", et)
		}
	}

	for et, found := range expectedTypes {
		if !found {
			t.Errorf("missing expected event type: %s", et)
		}
	}
}

func TestPrometheusHook_CloseShutdownsServer(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19102,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}

	// Verify server is running
	time.Sleep(100 * time.Millisecond)
	resp, err := http.Get(hook.MetricsAddr())
	if err != nil {
		t.Fatalf("server not running: %v", err)
	}
	resp.Body.Close()

	// Close the hook
	if err := hook.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Give server time to shutdown
	time.Sleep(100 * time.Millisecond)

	// Verify server is stopped (connection should fail)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	_, err = client.Get(hook.MetricsAddr())
	if err == nil {
		t.Error("expected connection error after Close, server still running")
	}
}

func TestPrometheusHook_CloseIdempotent(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19103,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}

	// Close multiple times should not panic or error
	if err := hook.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatalf("third Close failed: %v", err)
	}
}

func TestPrometheusHook_IgnoresEventsAfterClose(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19104,
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}

	hook.Close()

	// Sending events after close should not panic
	event := newTestGroupEvent(finding.High, finding.TierReportable, finding.LifecycleNew)
	err = hook.OnEvent(context.Background(), event)
	if err != nil {
		t.Errorf("OnEvent after Close returned error: %v", err)
	}
}

func TestPrometheusHook_CustomPath(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19105,
		Path: "/custom/metrics",
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	time.Sleep(100 * time.Millisecond)

	// Verify custom path works
	addr := fmt.Sprintf("http://localhost:%d/custom/metrics", 19105)
	resp, err := http.Get(addr)
	if err != nil {
		t.Fatalf("failed to fetch metrics at custom path: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestPrometheusHook_MetricsAddrReturnsCorrectURL(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19106,
		Path: "/test/metrics",
	})
	if err != nil {
		t.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	expected := "http://localhost:19106/test/metrics"
	if hook.MetricsAddr() != expected {
		t.Errorf("expected %q, got %q", expected, hook.MetricsAddr())
	}
}

// fetchMetrics retrieves the metrics page body from addr.
func fetchMetrics(t *testing.T, addr string) string {
	t.Helper()
	resp, err := http.Get(addr)
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(body)
}

// =============================================================================
// Benchmark Tests
// =============================================================================

func BenchmarkPrometheusHook_OnEvent(b *testing.B) {
	hook, err := NewPrometheusHook(PrometheusOptions{
		Port: 19200,
	})
	if err != nil {
		b.Fatalf("failed to create hook: %v", err)
	}
	defer hook.Close()

	event := newTestGroupEvent(finding.Medium, finding.TierInvestigate, finding.LifecyclePersistent)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hook.OnEvent(ctx, event)
	}
}

// =============================================================================
// repoLabel Tests
// =============================================================================

func TestRepoLabel(t *testing.T) {
	tests := []struct {
		name     string
		org      string
		repo     string
		expected string
	}{
		{"org and repo", "acme", "payments", "acme/payments"},
		{"repo only", "", "payments", "payments"},
		{"empty repo", "acme", "", "unknown"},
		{"both empty", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := repoLabel(tt.org, tt.repo)
			if result != tt.expected {
				t.Errorf("repoLabel(%q, %q) = %q, want %q", tt.org, tt.repo, result, tt.expected)
			}
		})
	}
}
