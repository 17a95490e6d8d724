// Package writers provides output writers for various formats.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// Default timestamp format (RFC3339).
const defaultTimestampFormat = "2006-01-02T15:04:05Z07:00"

// CSVWriter writes events as CSV rows.
// Each row represents a correlated finding group, making it ideal for
// triage queues in tools like Excel, pandas, or database imports.
//
// Features:
//   - One row per group with verdict, lifecycle and origin columns
//   - Excel compatibility with UTF-8 BOM
//   - CSV injection prevention (formula sanitization)
//   - Summary row support
type CSVWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          CSVOptions
	headerWritten bool
	summary       *events.SummaryEvent // Store summary for Close()
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	// This ensures proper display of Unicode characters in Excel.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous characters.
	// Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TimestampFormat sets the timestamp format (default: RFC3339).
	TimestampFormat string

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

// csvColumns defines the CSV column headers.
// Order optimized for triage review workflow.
var csvColumns = []string{
	// Core identification
	"group_id",  // Group identifier (smallest constituent fingerprint)
	"timestamp", // ISO 8601 timestamp (RFC3339)

	// Verdict
	"tier",       // reportable/investigate/false_positive
	"confidence", // Classifier confidence in [0,1]
	"reason",     // Classification rule that fired
	"scope",      // production/test

	// Classification
	"severity",  // critical/high/medium/low/info
	"lifecycle", // new/persistent/regressed

	// Origin
	"rule_id",       // Primary scanner rule or template id
	"scanner_kinds", // Contributing scanner classes
	"scanners",      // Contributing tool names
	"findings",      // Constituent finding count

	// Location
	"repository", // org/repo the group belongs to
	"location",   // path:line or target URL

	// Signals
	"verified",            // Scanner verified a live credential
	"oob",                 // Out-of-band callback confirmed
	"correlation_reasons", // Why constituents merged

	// Evidence
	"evidence", // First evidence snippet of the primary finding
}

// sanitizeForCSV prevents CSV injection by prefixing dangerous characters.
// This is a SECURITY feature to prevent formula execution in spreadsheets.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that can trigger formula execution in spreadsheets
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s // Prefix with single quote
	}
	return s
}

// truncateField truncates a field to the specified length.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewCSVWriter creates a new CSV writer.
// If IncludeHeader is true, a header row is written immediately.
// If ExcelCompatible is true, a UTF-8 BOM is written for proper Excel display.
// The writer is safe for concurrent use.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	// Set defaults
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = defaultTimestampFormat
	}

	// Write UTF-8 BOM for Excel compatibility
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
	}

	// Write header by default
	if opts.IncludeHeader {
		_ = csvWriter.Write(csvColumns)
		csvWriter.Flush()
		cw.headerWritten = true
	}

	return cw
}

// Write writes a group event as a CSV row.
// Summary events are captured for output on Close().
// Other event types are silently skipped.
func (cw *CSVWriter) Write(event events.Event) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	switch e := event.(type) {
	case *events.GroupEvent:
		return cw.writeGroup(e)
	case *events.SummaryEvent:
		cw.summary = e
		return nil
	default:
		return nil // Skip other event types
	}
}

// writeGroup writes a single group event as a CSV row.
func (cw *CSVWriter) writeGroup(ge *events.GroupEvent) error {
	primary := ge.Group.Primary()

	// First evidence snippet, capped so spreadsheet cells stay usable
	evidence := ""
	if len(primary.Evidence) > 0 {
		evidence = primary.Evidence[0]
		if len([]rune(evidence)) > 500 {
			evidence = string([]rune(evidence)[:500]) + "..."
		}
	}

	kinds := make([]string, len(ge.Group.Kinds))
	for i, k := range ge.Group.Kinds {
		kinds[i] = string(k)
	}

	timestamp := ge.Timestamp().Format(cw.opts.TimestampFormat)
	confidence := strconv.FormatFloat(ge.Verdict.Confidence, 'f', 2, 64)

	// Build row with all columns (matches csvColumns order)
	row := []string{
		ge.Group.ID,                           // group_id
		timestamp,                             // timestamp
		string(ge.Verdict.Tier),               // tier
		confidence,                            // confidence
		ge.Verdict.Reason,                     // reason
		string(ge.Verdict.Scope),              // scope
		string(ge.Group.Severity),             // severity
		string(ge.Lifecycle),                  // lifecycle
		primary.RuleID,                        // rule_id
		strings.Join(kinds, ";"),              // scanner_kinds
		strings.Join(ge.Group.Scanners, ";"),  // scanners
		strconv.Itoa(len(ge.Group.Findings)),  // findings
		primary.RepoKey(),                     // repository
		primary.Location(),                    // location
		strconv.FormatBool(ge.Group.Verified), // verified
		strconv.FormatBool(ge.Group.OOB),      // oob
		strings.Join(ge.Group.Reasons, ";"),   // correlation_reasons
		evidence,                              // evidence
	}

	// Apply sanitization and truncation
	for i, field := range row {
		if cw.opts.SanitizeFormulas {
			field = sanitizeForCSV(field)
		}
		if cw.opts.TruncateAt > 0 {
			field = truncateField(field, cw.opts.TruncateAt)
		}
		row[i] = field
	}

	return cw.csvWriter.Write(row)
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer and writes summary if available.
// If the underlying writer implements io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Write summary if available
	if cw.summary != nil {
		cw.writeSummaryLocked()
	}

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}

	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeSummaryLocked writes a summary section at the end of the CSV.
// Must be called with mu held.
func (cw *CSVWriter) writeSummaryLocked() {
	if cw.summary == nil {
		return
	}
	s := cw.summary.Summary

	// Write blank row as separator
	_ = cw.csvWriter.Write([]string{})

	// Write summary rows
	_ = cw.csvWriter.Write([]string{"# SUMMARY"})
	_ = cw.csvWriter.Write([]string{"Findings", strconv.Itoa(s.Findings)})
	_ = cw.csvWriter.Write([]string{"Groups", strconv.Itoa(s.Groups)})
	_ = cw.csvWriter.Write([]string{"Reportable", strconv.Itoa(s.ByTier[finding.TierReportable])})
	_ = cw.csvWriter.Write([]string{"Investigate", strconv.Itoa(s.ByTier[finding.TierInvestigate])})
	_ = cw.csvWriter.Write([]string{"False Positives", strconv.Itoa(s.ByTier[finding.TierFalsePositive])})
	_ = cw.csvWriter.Write([]string{"Resolved", strconv.Itoa(s.Resolved)})
	_ = cw.csvWriter.Write([]string{"Degraded Inputs", strconv.Itoa(s.Degraded)})
}

// SupportsEvent returns true for group and summary events.
// CSV format supports tabular group data and summary statistics.
func (cw *CSVWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeGroup || eventType == events.EventTypeSummary
}
