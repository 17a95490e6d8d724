// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/scantriage/scantriage/pkg/bufpool"
	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "csv", "markdown", "text-summary".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"csv": `GroupID,Tier,Severity,Lifecycle,Rule,Location,Findings
{{- range .Entries }}
{{ .Group.ID }},{{ .Verdict.Tier }},{{ .Group.Severity }},{{ .Lifecycle }},{{ .Primary.RuleID }},{{ escapeCSV .Location }},{{ len .Group.Findings }}
{{- end }}`,

	"markdown": `# Triage Report: {{ .Repository }}

Generated: {{ .Timestamp }}
Policy: {{ .Policy }}

| Groups | Reportable | Investigate | False Positives | Resolved |
|-------:|-----------:|------------:|----------------:|---------:|
| {{ .GroupCount }} | {{ .ReportableCount }} | {{ .InvestigateCount }} | {{ .FalsePositiveCount }} | {{ .ResolvedCount }} |
{{ if gt .ReportableCount 0 }}
## Reportable
{{ range .Reportable }}
### {{ severityIcon (toString .Group.Severity) }} {{ escapeMarkdown .Primary.RuleID }}

| Field | Value |
|-------|-------|
| Severity | {{ .Group.Severity }} |
| Lifecycle | {{ .Lifecycle }} |
| Confidence | {{ printf "%.2f" .Verdict.Confidence }} |
| Location | {{ escapeMarkdown .Location }} |
| Scanners | {{ join ", " .Group.Scanners }} |

{{ .Verdict.Reason }}
{{ end }}
{{- end }}
## All Groups

| Tier | Severity | Lifecycle | Rule | Location |
|------|----------|-----------|------|----------|
{{- range .Entries }}
| {{ tierIcon (toString .Verdict.Tier) }} {{ .Verdict.Tier }} | {{ .Group.Severity }} | {{ .Lifecycle }} | {{ escapeMarkdown .Primary.RuleID }} | {{ escapeMarkdown .Location }} |
{{- end }}`,

	"text-summary": `ScanTriage Run Summary
======================
Repository: {{ .Repository }}
Generated: {{ .Timestamp }}
Duration: {{ printf "%.2f" .Duration }}s

Results:
  Findings: {{ .FindingCount }}
  Groups: {{ .GroupCount }}
  Reportable: {{ .ReportableCount }}
  Investigate: {{ .InvestigateCount }}
  False positives: {{ .FalsePositiveCount }}
  Resolved: {{ .ResolvedCount }}
{{ if gt .ReportableCount 0 }}
Reportable by Severity:
{{- range $sev, $count := .SeverityCounts }}
  {{ severityIcon $sev }} {{ $sev | title }}: {{ $count }}
{{- end }}
{{ end }}`,
}

// TemplateWriter renders events using Go templates.
// It buffers all events in memory and renders the template on Close.
// The writer supports custom templates, inline templates, and built-in templates.
// Sprig functions and triage-specific functions are available in templates.
type TemplateWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  TemplateConfig
	tmpl    *template.Template
	groups  []*events.GroupEvent
	start   *events.StartEvent
	summary *events.SummaryEvent
	runID   string
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
// The writer buffers all events and writes the rendered template on Close.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{
		w:      w,
		config: config,
		groups: make([]*events.GroupEvent, 0),
	}

	// Parse template
	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	return tw, nil
}

// parseTemplate parses the template from config (path, string, or built-in).
func (tw *TemplateWriter) parseTemplate() error {
	var templateContent string

	// Determine template source
	switch {
	case tw.config.TemplatePath != "":
		content, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		templateContent = string(content)

	case tw.config.TemplateString != "":
		templateContent = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		content, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: csv, markdown, text-summary)", tw.config.BuiltIn)
		}
		templateContent = content

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	// Create function map with Sprig functions
	funcMap := sprig.TxtFuncMap()

	// Add triage-specific functions
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["escapeMarkdown"] = tmplEscapeMarkdown
	funcMap["severityIcon"] = tmplSeverityIcon
	funcMap["tierIcon"] = tmplTierIcon
	funcMap["json"] = tmplToJSON
	funcMap["prettyJSON"] = tmplPrettyJSON
	funcMap["cweLink"] = tmplCweLink

	// Parse template with all functions
	tmpl, err := template.New("scantriage").Funcs(funcMap).Parse(templateContent)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}

	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	// Capture run ID from first event
	if tw.runID == "" {
		tw.runID = event.RunID()
	}

	switch e := event.(type) {
	case *events.StartEvent:
		tw.start = e
	case *events.GroupEvent:
		tw.groups = append(tw.groups, e)
	case *events.SummaryEvent:
		tw.summary = e
	}
	return nil
}

// Flush is a no-op for template writer.
// All events are rendered as a single document on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template with all buffered events and writes to the output.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data := tw.buildTemplateData()

	buf := bufpool.Get()
	defer bufpool.Put(buf)
	if err := tw.tmpl.Execute(buf, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, group, and summary events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeGroup, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// tmplData holds all data available to templates.
type tmplData struct {
	// Basic info
	RunID        string
	Organization string
	Repository   string
	Policy       string
	Timestamp    string
	Duration     float64

	// Groups
	Entries    []*tmplEntry
	Reportable []*tmplEntry

	// Summary counts
	FindingCount       int
	GroupCount         int
	ReportableCount    int
	InvestigateCount   int
	FalsePositiveCount int
	ResolvedCount      int
	DegradedCount      int

	// Breakdown
	SeverityCounts  map[string]int
	KindCounts      map[string]int
	HighestSeverity string
}

// tmplEntry is a flattened view of GroupEvent for easier template access.
type tmplEntry struct {
	Group     correlate.Group
	Verdict   finding.Verdict
	Lifecycle finding.Lifecycle
	Primary   finding.Finding
	Location  string
}

// buildTemplateData constructs the data object for template rendering.
func (tw *TemplateWriter) buildTemplateData() *tmplData {
	data := &tmplData{
		RunID:          tw.runID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Entries:        make([]*tmplEntry, 0, len(tw.groups)),
		Reportable:     make([]*tmplEntry, 0),
		SeverityCounts: make(map[string]int),
		KindCounts:     make(map[string]int),
	}

	// Process groups
	var highest finding.Severity
	for _, g := range tw.groups {
		primary := g.Group.Primary()
		entry := &tmplEntry{
			Group:     g.Group,
			Verdict:   g.Verdict,
			Lifecycle: g.Lifecycle,
			Primary:   primary,
			Location:  primary.Location(),
		}
		data.Entries = append(data.Entries, entry)
		data.FindingCount += len(g.Group.Findings)

		// Count by tier
		switch g.Verdict.Tier {
		case finding.TierReportable:
			data.ReportableCount++
			data.Reportable = append(data.Reportable, entry)
			// Count by severity
			data.SeverityCounts[string(g.Group.Severity)]++
			// Track highest severity
			highest = finding.Max(highest, g.Group.Severity)
		case finding.TierInvestigate:
			data.InvestigateCount++
		case finding.TierFalsePositive:
			data.FalsePositiveCount++
		}

		// Count by scanner kind
		for _, k := range g.Group.Kinds {
			data.KindCounts[string(k)]++
		}
	}

	data.GroupCount = len(tw.groups)
	data.HighestSeverity = string(highest)

	// Extract identity from the start event if available
	if tw.start != nil {
		data.Organization = tw.start.Organization
		data.Repository = tw.start.Repository
		data.Policy = tw.start.Policy
	}

	// Extract summary data if available
	if tw.summary != nil {
		data.Duration = tw.summary.Timing.DurationSec
		data.ResolvedCount = tw.summary.Summary.Resolved
		data.DegradedCount = tw.summary.Summary.Degraded
		if data.Repository == "" {
			data.Repository = tw.summary.Source.Repository
		}
		if data.Organization == "" {
			data.Organization = tw.summary.Source.Organization
		}
		if data.Policy == "" {
			data.Policy = tw.summary.Source.Policy
		}
		if data.FindingCount == 0 {
			data.FindingCount = tw.summary.Summary.Findings
		}
	}

	return data
}

// Template helper functions

// tmplEscapeCSV escapes a string for CSV output.
// It wraps the value in quotes if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	needsQuote := strings.ContainsAny(s, ",\"\n\r")
	if needsQuote {
		escaped := strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
	return s
}

// tmplEscapeMarkdown escapes a string for use inside Markdown table cells.
// Pipes are escaped and newlines collapsed so the cell stays on one row.
func tmplEscapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// tmplSeverityIcon returns an emoji icon for a severity level.
func tmplSeverityIcon(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return "🔴"
	case "high":
		return "🟠"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	case "info":
		return "🔵"
	default:
		return "⚪"
	}
}

// tmplTierIcon returns an emoji icon for a verdict tier.
func tmplTierIcon(tier string) string {
	switch strings.ToLower(tier) {
	case "reportable":
		return "🚨"
	case "investigate":
		return "🔍"
	case "false_positive":
		return "🔕"
	default:
		return "⚪"
	}
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v interface{}) string {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplPrettyJSON converts a value to a formatted JSON string.
func tmplPrettyJSON(v interface{}) string {
	b, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplCweLink returns a link to the CWE page for a given ID.
func tmplCweLink(id int) string {
	return fmt.Sprintf("https://cwe.mitre.org/data/definitions/%d.html", id)
}
