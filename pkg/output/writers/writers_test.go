package writers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/report"
)

// makeTestGroupEvent creates a test group event for testing.
func makeTestGroupEvent(ruleID string, severity finding.Severity, tier finding.Tier, lifecycle finding.Lifecycle) *events.GroupEvent {
	f := finding.Finding{
		Fingerprint:  "fp-" + ruleID,
		Kind:         finding.KindSecret,
		Organization: "acme",
		Repository:   "payments",
		Scanner:      "gitleaks",
		RuleID:       ruleID,
		FilePath:     "config/prod.env",
		StartLine:    12,
		RawSeverity:  strings.ToUpper(string(severity)),
		Evidence:     []string{"AKIA" + strings.Repeat("*", 16)},
		DetectedAt:   time.Now().UTC(),
	}
	return &events.GroupEvent{
		BaseEvent: events.BaseEvent{
			Type: events.EventTypeGroup,
			Time: time.Now(),
			Run:  "test-run-123",
		},
		Group: correlate.Group{
			ID:           f.Fingerprint,
			Findings:     []finding.Finding{f},
			Fingerprints: []string{f.Fingerprint},
			Kinds:        []finding.ScannerKind{finding.KindSecret},
			Scanners:     []string{"gitleaks"},
			Severity:     severity,
		},
		Verdict: finding.Verdict{
			Tier:       tier,
			Reason:     "verified-secret",
			Confidence: 0.9,
			Scope:      finding.ScopeProduction,
		},
		Lifecycle: lifecycle,
	}
}

// makeTestSummaryEvent creates a summary event with the given tier counts.
func makeTestSummaryEvent(groups, reportable, investigate, falsePositive int) *events.SummaryEvent {
	return &events.SummaryEvent{
		BaseEvent: events.BaseEvent{
			Type: events.EventTypeSummary,
			Time: time.Now(),
			Run:  "test-run-123",
		},
		Version: "1.3.0",
		Source: events.SummarySource{
			Organization: "acme",
			Repository:   "payments",
			Policy:       "default",
		},
		Summary: report.Summary{
			Findings: groups,
			Groups:   groups,
			ByTier: map[finding.Tier]int{
				finding.TierReportable:    reportable,
				finding.TierInvestigate:   investigate,
				finding.TierFalsePositive: falsePositive,
			},
			ByKind: map[finding.ScannerKind]int{
				finding.KindSecret: groups,
			},
			BySeverity: map[finding.Severity]int{
				finding.Critical: reportable,
				finding.Medium:   investigate + falsePositive,
			},
			ByLifecycle: map[finding.Lifecycle]int{
				finding.LifecycleNew:        reportable,
				finding.LifecyclePersistent: investigate + falsePositive,
			},
			Resolved: 1,
		},
		Timing: events.SummaryTiming{
			StartedAt:   time.Now().Add(-3 * time.Second),
			CompletedAt: time.Now(),
			DurationSec: 3.0,
		},
		ExitCode:   2,
		ExitReason: "reportable findings present",
	}
}

// TestJSONLWriter tests JSONL streaming output.
func TestJSONLWriter(t *testing.T) {
	t.Run("writes one JSON per line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{})

		testEvents := []*events.GroupEvent{
			makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew),
			makeTestGroupEvent("hardcoded-password", finding.Medium, finding.TierInvestigate, finding.LifecyclePersistent),
		}

		for _, e := range testEvents {
			if err := w.Write(e); err != nil {
				t.Fatalf("write failed: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(lines))
		}

		// Verify each line is valid JSON
		for i, line := range lines {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				t.Errorf("line %d is not valid JSON: %v", i+1, err)
			}
		}
	})

	t.Run("OnlyReportable filters correctly", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{OnlyReportable: true})

		reportable := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		investigate := makeTestGroupEvent("weak-hash", finding.Medium, finding.TierInvestigate, finding.LifecycleNew)

		if err := w.Write(reportable); err != nil {
			t.Fatalf("write reportable failed: %v", err)
		}
		if err := w.Write(investigate); err != nil {
			t.Fatalf("write investigate failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		output := strings.TrimSpace(buf.String())
		if output == "" {
			t.Error("expected at least one line of output")
			return
		}
		lines := strings.Split(output, "\n")
		if len(lines) != 1 {
			t.Errorf("expected 1 line (reportable only), got %d", len(lines))
		}
	})

	t.Run("OnlyReportable passes non-group events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{OnlyReportable: true})

		if err := w.Write(makeTestSummaryEvent(3, 1, 1, 1)); err != nil {
			t.Fatalf("write summary failed: %v", err)
		}
		w.Close()

		if strings.TrimSpace(buf.String()) == "" {
			t.Error("summary event should pass the reportable filter")
		}
	})

	t.Run("OmitFindings strips constituents", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{OmitFindings: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		if err := w.Write(e); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		w.Close()

		var result map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}

		group, ok := result["group"].(map[string]interface{})
		if !ok {
			t.Fatal("expected group object")
		}
		if findings, ok := group["findings"].([]interface{}); ok && len(findings) > 0 {
			t.Error("findings should be omitted")
		}
		// The identifying aggregates must survive
		if fps, ok := group["fingerprints"].([]interface{}); !ok || len(fps) != 1 {
			t.Error("fingerprints should be preserved")
		}
	})

	t.Run("OmitFindings does not mutate the event", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{OmitFindings: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		if len(e.Group.Findings) != 1 {
			t.Error("writer should not mutate the caller's event")
		}
	})

	t.Run("SupportsEvent returns true for all types", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		for _, et := range []events.EventType{
			events.EventTypeStart,
			events.EventTypeDocument,
			events.EventTypeGroup,
			events.EventTypeError,
			events.EventTypeSummary,
			events.EventTypeComplete,
		} {
			if !w.SupportsEvent(et) {
				t.Errorf("should support %s events", et)
			}
		}
	})

	t.Run("Flush is no-op", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		if err := w.Flush(); err != nil {
			t.Errorf("Flush should not fail: %v", err)
		}
	})
}

// TestJSONWriter tests JSON array output.
func TestJSONWriter(t *testing.T) {
	t.Run("writes JSON array on Close", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})

		e1 := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		e2 := makeTestGroupEvent("weak-hash", finding.Medium, finding.TierInvestigate, finding.LifecyclePersistent)

		if err := w.Write(e1); err != nil {
			t.Fatalf("write e1 failed: %v", err)
		}
		if err := w.Write(e2); err != nil {
			t.Fatalf("write e2 failed: %v", err)
		}

		// Before Close, buffer should be empty
		if buf.Len() > 0 {
			t.Error("expected no output before Close")
		}

		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		// After Close, should have JSON array
		var arr []map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("output is not valid JSON array: %v", err)
		}

		if len(arr) != 2 {
			t.Errorf("expected 2 elements, got %d", len(arr))
		}
	})

	t.Run("writes empty array when no events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})
		w.Close()

		var arr []interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("output is not valid JSON array: %v", err)
		}

		if len(arr) != 0 {
			t.Errorf("expected empty array, got %d elements", len(arr))
		}
	})

	t.Run("Pretty option adds indentation", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{Pretty: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		output := buf.String()
		if !strings.Contains(output, "\n  ") {
			t.Error("pretty output should contain indented lines")
		}
	})

	t.Run("SupportsEvent accepts every type", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		for _, et := range []events.EventType{
			events.EventTypeStart,
			events.EventTypeDocument,
			events.EventTypeGroup,
			events.EventTypeError,
			events.EventTypeSummary,
			events.EventTypeComplete,
		} {
			if !w.SupportsEvent(et) {
				t.Errorf("should support %s events", et)
			}
		}
	})

	t.Run("Flush is no-op", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		if err := w.Flush(); err != nil {
			t.Errorf("Flush should not fail: %v", err)
		}
	})
}

// TestCSVWriter tests CSV output.
func TestCSVWriter(t *testing.T) {
	t.Run("writes header and rows", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		if err := w.Write(e); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines (header + 1 row), got %d", len(lines))
		}

		// Verify header contains expected columns
		header := lines[0]
		if !strings.Contains(header, "group_id") {
			t.Error("header should contain 'group_id'")
		}
		if !strings.Contains(header, "tier") {
			t.Error("header should contain 'tier'")
		}
		if !strings.Contains(header, "severity") {
			t.Error("header should contain 'severity'")
		}
		if !strings.Contains(header, "lifecycle") {
			t.Error("header should contain 'lifecycle'")
		}
	})

	t.Run("no header when IncludeHeader is false", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Flush()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Errorf("expected 1 line (no header), got %d", len(lines))
		}
	})

	t.Run("row contains correct data", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Flush()

		row := buf.String()
		if !strings.Contains(row, "generic-api-key") {
			t.Error("row should contain rule ID")
		}
		if !strings.Contains(row, "reportable") {
			t.Error("row should contain tier")
		}
		if !strings.Contains(row, "critical") {
			t.Error("row should contain severity")
		}
		if !strings.Contains(row, "acme/payments") {
			t.Error("row should contain repository key")
		}
		if !strings.Contains(row, "config/prod.env:12") {
			t.Error("row should contain location")
		}
	})

	t.Run("custom delimiter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true, Delimiter: ';'})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Flush()

		output := buf.String()
		if !strings.Contains(output, ";") {
			t.Error("output should use semicolon delimiter")
		}
	})

	t.Run("sanitizes formula-leading fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false, SanitizeFormulas: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		e.Group.Findings[0].RuleID = "=HYPERLINK(evil)"
		w.Write(e)
		w.Flush()

		if !strings.Contains(buf.String(), "'=HYPERLINK(evil)") {
			t.Error("formula-leading field should be prefixed with a quote")
		}
	})

	t.Run("writes summary section on Close", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Write(makeTestSummaryEvent(1, 1, 0, 0))
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# SUMMARY") {
			t.Error("expected summary section")
		}
		if !strings.Contains(output, "Reportable,1") {
			t.Error("expected reportable count in summary")
		}
	})

	t.Run("skips non-group events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		errEvent := &events.ErrorEvent{
			BaseEvent: events.BaseEvent{
				Type: events.EventTypeError,
				Time: time.Now(),
				Run:  "test-run-123",
			},
			Stage:   "normalize",
			Message: "malformed document",
		}

		// This should be silently skipped
		if err := w.Write(errEvent); err != nil {
			t.Errorf("write should not fail for non-group events: %v", err)
		}
		w.Flush()

		if buf.Len() > 0 {
			t.Error("non-group events should be skipped")
		}
	})

	t.Run("SupportsEvent for groups and summary", func(t *testing.T) {
		w := NewCSVWriter(&bytes.Buffer{}, CSVOptions{})
		if !w.SupportsEvent(events.EventTypeGroup) {
			t.Error("should support group events")
		}
		if !w.SupportsEvent(events.EventTypeSummary) {
			t.Error("should support summary events")
		}
		if w.SupportsEvent(events.EventTypeDocument) {
			t.Error("should not support document events")
		}
		if w.SupportsEvent(events.EventTypeError) {
			t.Error("should not support error events")
		}
	})

	t.Run("Close flushes and returns no error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)

		if err := w.Close(); err != nil {
			t.Errorf("close should not fail: %v", err)
		}

		// Verify data was flushed
		if !strings.Contains(buf.String(), "generic-api-key") {
			t.Error("data should be flushed on Close")
		}
	})
}

// TestSARIFWriter tests SARIF 2.1.0 output.
func TestSARIFWriter(t *testing.T) {
	t.Run("produces valid SARIF structure", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{
			ToolName:    "scantriage",
			ToolVersion: "1.3.0",
		})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		if err := w.Write(e); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		var sarif sarifDocument
		if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
			t.Fatalf("invalid SARIF JSON: %v", err)
		}

		if sarif.Version != "2.1.0" {
			t.Errorf("expected version 2.1.0, got %s", sarif.Version)
		}

		if len(sarif.Runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(sarif.Runs))
		}

		if sarif.Runs[0].Tool.Driver.Name != "scantriage" {
			t.Errorf("expected tool name scantriage, got %s", sarif.Runs[0].Tool.Driver.Name)
		}

		if sarif.Runs[0].Tool.Driver.Version != "1.3.0" {
			t.Errorf("expected version 1.3.0, got %s", sarif.Runs[0].Tool.Driver.Version)
		}

		if len(sarif.Runs[0].Results) != 1 {
			t.Errorf("expected 1 result, got %d", len(sarif.Runs[0].Results))
		}

		if len(sarif.Runs[0].Tool.Driver.Rules) != 1 {
			t.Errorf("expected 1 rule, got %d", len(sarif.Runs[0].Tool.Driver.Rules))
		}
	})

	t.Run("default tool name is scantriage", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})
		w.Close()

		var sarif sarifDocument
		json.Unmarshal(buf.Bytes(), &sarif)

		if sarif.Runs[0].Tool.Driver.Name != "scantriage" {
			t.Errorf("expected default tool name scantriage, got %s", sarif.Runs[0].Tool.Driver.Name)
		}
	})

	t.Run("records location and region", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		var sarif sarifDocument
		if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
			t.Fatalf("invalid SARIF JSON: %v", err)
		}

		result := sarif.Runs[0].Results[0]
		if len(result.Locations) != 1 {
			t.Fatalf("expected 1 location, got %d", len(result.Locations))
		}
		loc := result.Locations[0].PhysicalLocation
		if loc.ArtifactLocation.URI != "config/prod.env" {
			t.Errorf("expected URI config/prod.env, got %s", loc.ArtifactLocation.URI)
		}
		if loc.Region == nil || loc.Region.StartLine != 12 {
			t.Error("expected region with start line 12")
		}
	})

	t.Run("carries correlation group fingerprint", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		var sarif sarifDocument
		json.Unmarshal(buf.Bytes(), &sarif)

		fp := sarif.Runs[0].Results[0].Fingerprints
		if fp["correlationGroup/v1"] != "fp-generic-api-key" {
			t.Errorf("expected group ID fingerprint, got %s", fp["correlationGroup/v1"])
		}
		if fp["matchBasedId/v1"] == "" {
			t.Error("expected matchBasedId fingerprint")
		}
	})

	t.Run("rule carries CWE and OWASP tags", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		e := makeTestGroupEvent("hardcoded-credentials", finding.High, finding.TierReportable, finding.LifecycleNew)
		e.Group.Findings[0].Metadata = map[string]string{"cwe": "CWE-798"}
		w.Write(e)
		w.Close()

		var sarif sarifDocument
		if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
			t.Fatalf("invalid SARIF JSON: %v", err)
		}

		rule := sarif.Runs[0].Tool.Driver.Rules[0]
		if rule.Properties["cwe"] != "CWE-798" {
			t.Errorf("expected cwe property CWE-798, got %v", rule.Properties["cwe"])
		}
		tags, _ := rule.Properties["tags"].([]any)
		var seen []string
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				seen = append(seen, s)
			}
		}
		for _, want := range []string{"external/cwe", "CWE-798", "A07:2021-Identification and Authentication Failures"} {
			found := false
			for _, s := range seen {
				if s == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected tag %q, got %v", want, seen)
			}
		}
		if !strings.Contains(rule.Help.Markdown, "cwe.mitre.org/data/definitions/798") {
			t.Error("expected CWE reference link in rule help")
		}
	})

	t.Run("rule without CWE omits external tags", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		var sarif sarifDocument
		json.Unmarshal(buf.Bytes(), &sarif)

		rule := sarif.Runs[0].Tool.Driver.Rules[0]
		if _, ok := rule.Properties["cwe"]; ok {
			t.Error("rule without CWE metadata should not carry a cwe property")
		}
		tags, _ := rule.Properties["tags"].([]any)
		for _, tag := range tags {
			if tag == "external/cwe" {
				t.Error("rule without CWE metadata should not carry external/cwe tag")
			}
		}
	})

	t.Run("false positives carry suppressions", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		fp := makeTestGroupEvent("test-fixture-key", finding.Low, finding.TierFalsePositive, finding.LifecyclePersistent)
		w.Write(fp)
		w.Close()

		var sarif sarifDocument
		if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
			t.Fatalf("invalid SARIF JSON: %v", err)
		}

		result := sarif.Runs[0].Results[0]
		if len(result.Suppressions) != 1 {
			t.Fatalf("expected 1 suppression, got %d", len(result.Suppressions))
		}
		if result.Suppressions[0].Kind != "external" {
			t.Errorf("expected suppression kind external, got %s", result.Suppressions[0].Kind)
		}
	})

	t.Run("reportable groups carry no suppressions", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		e := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)
		w.Write(e)
		w.Close()

		var sarif sarifDocument
		json.Unmarshal(buf.Bytes(), &sarif)

		if len(sarif.Runs[0].Results[0].Suppressions) != 0 {
			t.Error("reportable results should not be suppressed")
		}
	})

	t.Run("severity mapping", func(t *testing.T) {
		tests := []struct {
			severity finding.Severity
			expected string
		}{
			{finding.Critical, "error"},
			{finding.High, "error"},
			{finding.Medium, "warning"},
			{finding.Low, "note"},
			{finding.Info, "note"},
		}

		for _, tc := range tests {
			level := severityToLevel(tc.severity)
			if level != tc.expected {
				t.Errorf("severity %s: expected level %s, got %s", tc.severity, tc.expected, level)
			}
		}
	})

	t.Run("precision mapping", func(t *testing.T) {
		tests := []struct {
			confidence float64
			expected   string
		}{
			{0.95, "very-high"},
			{0.9, "very-high"},
			{0.75, "high"},
			{0.5, "medium"},
			{0.3, "low"},
		}

		for _, tc := range tests {
			precision := confidenceToPrecision(tc.confidence)
			if precision != tc.expected {
				t.Errorf("confidence %.2f: expected %s, got %s", tc.confidence, tc.expected, precision)
			}
		}
	})

	t.Run("empty run still emits results array", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})
		w.Close()

		if !strings.Contains(buf.String(), `"results": []`) {
			t.Error("results should encode as empty array, not null")
		}
	})

	t.Run("SupportsEvent for group only", func(t *testing.T) {
		w := NewSARIFWriter(&bytes.Buffer{}, SARIFOptions{})
		if !w.SupportsEvent(events.EventTypeGroup) {
			t.Error("should support group events")
		}
		if w.SupportsEvent(events.EventTypeDocument) {
			t.Error("should not support document events")
		}
		if w.SupportsEvent(events.EventTypeSummary) {
			t.Error("should not support summary events")
		}
	})

	t.Run("Flush is no-op", func(t *testing.T) {
		w := NewSARIFWriter(&bytes.Buffer{}, SARIFOptions{})
		if err := w.Flush(); err != nil {
			t.Errorf("Flush should not fail: %v", err)
		}
	})
}

// TestWritersImplementInterface verifies all writers implement dispatcher.Writer.
func TestWritersImplementInterface(t *testing.T) {
	// These are compile-time checks via the var _ dispatcher.Writer lines
	// in each file, but we can also verify behavior here.

	event := makeTestGroupEvent("generic-api-key", finding.Critical, finding.TierReportable, finding.LifecycleNew)

	t.Run("JSONLWriter has all interface methods", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})

	t.Run("JSONWriter has all interface methods", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})

	t.Run("CSVWriter has all interface methods", func(t *testing.T) {
		w := NewCSVWriter(&bytes.Buffer{}, CSVOptions{})
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})

	t.Run("SARIFWriter has all interface methods", func(t *testing.T) {
		w := NewSARIFWriter(&bytes.Buffer{}, SARIFOptions{})
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})

	t.Run("TableWriter has all interface methods", func(t *testing.T) {
		w := NewTableWriter(&bytes.Buffer{}, TableConfig{Width: 80})
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})

	t.Run("TemplateWriter has all interface methods", func(t *testing.T) {
		w, err := NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{BuiltIn: "text-summary"})
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}
		_ = w.Write(event)
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeGroup)
	})
}

// TestMultipleWrites verifies writers handle multiple events correctly.
func TestMultipleWrites(t *testing.T) {
	t.Run("JSONL handles many events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{})

		for i := 0; i < 100; i++ {
			e := makeTestGroupEvent("generic-api-key", finding.High, finding.TierReportable, finding.LifecycleNew)
			if err := w.Write(e); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}
		w.Close()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 100 {
			t.Errorf("expected 100 lines, got %d", len(lines))
		}
	})

	t.Run("JSON handles many events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})

		for i := 0; i < 100; i++ {
			e := makeTestGroupEvent("generic-api-key", finding.High, finding.TierReportable, finding.LifecycleNew)
			if err := w.Write(e); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}
		w.Close()

		var arr []interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(arr) != 100 {
			t.Errorf("expected 100 elements, got %d", len(arr))
		}
	})

	t.Run("SARIF deduplicates rules", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewSARIFWriter(buf, SARIFOptions{})

		// Write multiple groups with the same rule ID
		for i := 0; i < 5; i++ {
			e := makeTestGroupEvent("generic-api-key", finding.High, finding.TierReportable, finding.LifecycleNew)
			w.Write(e)
		}
		w.Close()

		var sarif sarifDocument
		json.Unmarshal(buf.Bytes(), &sarif)

		// Should have 5 results but only 1 rule (same rule ID)
		if len(sarif.Runs[0].Results) != 5 {
			t.Errorf("expected 5 results, got %d", len(sarif.Runs[0].Results))
		}
		if len(sarif.Runs[0].Tool.Driver.Rules) != 1 {
			t.Errorf("expected 1 rule (deduplicated), got %d", len(sarif.Runs[0].Tool.Driver.Rules))
		}
	})
}
