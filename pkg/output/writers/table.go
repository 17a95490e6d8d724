// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scantriage/scantriage/pkg/bufpool"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
	"github.com/scantriage/scantriage/pkg/report"
	"golang.org/x/term"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TableWriter)(nil)

// ANSI color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// colorEnabled controls whether ANSI color codes are emitted.
var colorEnabled = true

// ansiSprint wraps text in an ANSI escape code, respecting colorEnabled.
func ansiSprint(code string, a ...interface{}) string {
	s := fmt.Sprint(a...)
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Color functions using ANSI escape codes for terminal colorization.
var (
	// Severity colors
	fmtCritical = func(a ...interface{}) string { return ansiSprint("\033[1;91m", a...) }
	fmtHigh     = func(a ...interface{}) string { return ansiSprint("\033[31m", a...) }
	fmtMedium   = func(a ...interface{}) string { return ansiSprint("\033[33m", a...) }
	fmtLow      = func(a ...interface{}) string { return ansiSprint("\033[34m", a...) }
	fmtInfo     = func(a ...interface{}) string { return ansiSprint("\033[36m", a...) }

	// Tier colors
	fmtReportable    = func(a ...interface{}) string { return ansiSprint("\033[1;91m", a...) }
	fmtInvestigate   = func(a ...interface{}) string { return ansiSprint("\033[33m", a...) }
	fmtFalsePositive = func(a ...interface{}) string { return ansiSprint("\033[2m", a...) }

	// Lifecycle colors
	fmtRegressed  = func(a ...interface{}) string { return ansiSprint("\033[1;91m", a...) }
	fmtNew        = func(a ...interface{}) string { return ansiSprint("\033[36m", a...) }
	fmtPersistent = func(a ...interface{}) string { return ansiSprint("\033[34m", a...) }
	fmtResolved   = func(a ...interface{}) string { return ansiSprint("\033[32m", a...) }

	// Formatting helpers
	fmtBold = func(a ...interface{}) string { return ansiSprint("\033[1m", a...) }
	fmtDim  = func(a ...interface{}) string { return ansiSprint("\033[2m", a...) }

	// Degraded input marker
	fmtDegraded = func(a ...interface{}) string { return ansiSprint("\033[35m", a...) }
)

// colorSeverity returns a colorized severity string.
func colorSeverity(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return fmtCritical(severity)
	case "high":
		return fmtHigh(severity)
	case "medium":
		return fmtMedium(severity)
	case "low":
		return fmtLow(severity)
	default:
		return fmtInfo(severity)
	}
}

// colorTier returns a colorized tier string.
func colorTier(tier string) string {
	switch strings.ToLower(tier) {
	case "reportable":
		return fmtReportable(tier)
	case "investigate":
		return fmtInvestigate(tier)
	case "false_positive":
		return fmtFalsePositive(tier)
	default:
		return tier
	}
}

// colorLifecycle returns a colorized lifecycle string.
func colorLifecycle(lifecycle string) string {
	switch strings.ToLower(lifecycle) {
	case "regressed":
		return fmtRegressed(lifecycle)
	case "new":
		return fmtNew(lifecycle)
	case "persistent":
		return fmtPersistent(lifecycle)
	case "resolved":
		return fmtResolved(lifecycle)
	default:
		return lifecycle
	}
}

// severityColors maps severity levels to ANSI color codes.
var severityColors = map[string]string{
	"critical": "\033[91m\033[1m", // bright red + bold
	"high":     "\033[38;5;208m",  // orange
	"medium":   "\033[93m",        // bright yellow
	"low":      "\033[92m",        // bright green
	"info":     "\033[94m",        // bright blue
}

// tierColors maps verdict tiers to ANSI color codes.
var tierColors = map[finding.Tier]string{
	finding.TierReportable:    colorRed,
	finding.TierInvestigate:   colorYellow,
	finding.TierFalsePositive: colorDim,
}

// lifecycleColors maps lifecycle states to ANSI color codes.
var lifecycleColors = map[finding.Lifecycle]string{
	finding.LifecycleRegressed:  colorRed,
	finding.LifecycleNew:        colorYellow,
	finding.LifecyclePersistent: colorBlue,
	finding.LifecycleResolved:   colorGreen,
}

// boxChars contains Unicode box-drawing characters.
var boxChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"┌", "┐", "└", "┘", "─", "│",
}

// asciiChars contains ASCII fallback characters for box drawing.
var asciiChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"+", "+", "+", "+", "-", "|",
}

// TableConfig configures the table writer behavior.
type TableConfig struct {
	// Mode controls the output detail level: "summary", "detailed", "minimal", "streaming"
	Mode string

	// ColorEnabled enables ANSI color output.
	// If not explicitly set, auto-detected based on terminal.
	ColorEnabled bool

	// UnicodeEnabled forces Unicode box-drawing characters on,
	// bypassing console detection.
	UnicodeEnabled bool

	// DisableUnicode explicitly disables Unicode when set to true.
	// This allows distinguishing between "not set" (detect) and
	// "explicitly disabled".
	DisableUnicode bool

	// ShowOnlyReportable filters output to reportable-tier groups.
	ShowOnlyReportable bool

	// MaxGroups limits the number of groups displayed (0 = unlimited).
	MaxGroups int

	// Width sets the table width (0 = auto-detect from terminal).
	Width int

	// MaxWidth sets the maximum table width (0 = no maximum, use terminal width).
	MaxWidth int

	// ShowTimestamps adds timestamps to each streamed row.
	ShowTimestamps bool

	// ShowLegend displays a color legend at the end of output.
	ShowLegend bool

	// TruncateAt sets the location/rule truncation length (0 = no truncation).
	TruncateAt int
}

// TableWriter writes events as formatted ASCII/Unicode tables to a terminal.
// It supports streaming mode for real-time output and batch mode for final
// reports. The writer is safe for concurrent use.
type TableWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    TableConfig
	groups    []*events.GroupEvent
	documents []*events.DocumentEvent
	summary   *events.SummaryEvent
	chars     *struct {
		TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
	}
	groupCount   int
	columnWidths columnWidths // cached responsive column widths
}

// columnWidths stores calculated column widths for responsive table layout.
type columnWidths struct {
	tier      int
	severity  int
	lifecycle int
	kind      int
	rule      int
	location  int
}

// NewTableWriter creates a new table writer with the specified configuration.
// If ColorEnabled is not explicitly set, it auto-detects terminal support.
// Unicode box drawing is used unless the console cannot render it or
// DisableUnicode is set.
func NewTableWriter(w io.Writer, config TableConfig) *TableWriter {
	// Auto-detect color support if not explicitly configured
	if !config.ColorEnabled {
		config.ColorEnabled = detectColorSupport(w)
	}

	// Configure color output based on our color detection
	colorEnabled = config.ColorEnabled

	// Default mode to summary
	if config.Mode == "" {
		config.Mode = "summary"
	}

	// Select box-drawing character set
	chars := &boxChars
	switch {
	case config.DisableUnicode:
		chars = &asciiChars
	case config.UnicodeEnabled:
		// Explicitly forced on
	default:
		if !unicodeSupported(w) {
			chars = &asciiChars
		}
	}

	tw := &TableWriter{
		w:      w,
		config: config,
		groups: make([]*events.GroupEvent, 0),
		chars:  chars,
	}

	// Calculate responsive column widths
	tw.calculateColumnWidths()

	return tw
}

// detectColorSupport checks if the writer supports ANSI colors.
func detectColorSupport(w io.Writer) bool {
	// Check for NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check for FORCE_COLOR environment variable
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Check if output is a terminal
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}

	return false
}

// Write processes an event and outputs it according to the configured mode.
func (tw *TableWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	switch e := event.(type) {
	case *events.GroupEvent:
		return tw.handleGroupEvent(e)
	case *events.DocumentEvent:
		return tw.handleDocumentEvent(e)
	case *events.SummaryEvent:
		tw.summary = e
		return nil
	}
	return nil
}

// handleGroupEvent processes a group event based on the mode.
func (tw *TableWriter) handleGroupEvent(e *events.GroupEvent) error {
	// Filter reportable only if configured
	if tw.config.ShowOnlyReportable && e.Verdict.Tier != finding.TierReportable {
		return nil
	}

	// Check max groups limit
	if tw.config.MaxGroups > 0 && tw.groupCount >= tw.config.MaxGroups {
		return nil
	}

	tw.groupCount++

	// In streaming mode, output immediately
	if tw.config.Mode == "streaming" {
		return tw.writeStreamingGroup(e)
	}

	// Otherwise buffer for later
	tw.groups = append(tw.groups, e)
	return nil
}

// handleDocumentEvent processes a scanner document status event.
func (tw *TableWriter) handleDocumentEvent(e *events.DocumentEvent) error {
	if tw.config.Mode == "streaming" {
		return tw.writeStreamingDocument(e)
	}
	tw.documents = append(tw.documents, e)
	return nil
}

// writeStreamingGroup outputs a single group in streaming mode.
func (tw *TableWriter) writeStreamingGroup(e *events.GroupEvent) error {
	line := tw.formatGroupLine(e)
	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// writeStreamingDocument outputs a scanner status line in streaming mode.
func (tw *TableWriter) writeStreamingDocument(e *events.DocumentEvent) error {
	line := tw.formatDocumentLine(e)
	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// formatGroupLine formats a single group for streaming output.
func (tw *TableWriter) formatGroupLine(e *events.GroupEvent) string {
	tier := strings.ToUpper(string(e.Verdict.Tier))
	severity := string(e.Group.Severity)
	lifecycle := string(e.Lifecycle)
	primary := e.Group.Primary()

	// Build optional prefix components
	var prefix string

	// Add timestamp if enabled
	if tw.config.ShowTimestamps {
		prefix = fmt.Sprintf("[%s] ", time.Now().Format("15:04:05"))
	}

	// Mark groups holding more than one constituent
	var countMarker string
	if n := len(e.Group.Findings); n > 1 {
		countMarker = fmt.Sprintf(" (x%d)", n)
	}

	location := primary.Location()
	if tw.config.TruncateAt > 0 {
		location = truncateWithMarker(location, tw.config.TruncateAt)
	}

	if tw.config.ColorEnabled {
		return fmt.Sprintf("%s[%s] %-8s %-10s %s %s%s",
			prefix,
			colorTier(tier),
			colorSeverity(severity),
			colorLifecycle(lifecycle),
			primary.RuleID,
			location,
			countMarker,
		)
	}

	return fmt.Sprintf("%s[%s] %-8s %-10s %s %s%s",
		prefix,
		tier,
		severity,
		lifecycle,
		primary.RuleID,
		location,
		countMarker,
	)
}

// formatDocumentLine formats a scanner document status for streaming output.
func (tw *TableWriter) formatDocumentLine(e *events.DocumentEvent) string {
	if e.Status == report.InputOK {
		line := fmt.Sprintf("[input] %s (%s): %d findings", e.Scanner, e.Kind, e.Findings)
		if tw.config.ColorEnabled {
			return fmtDim(line)
		}
		return line
	}

	line := fmt.Sprintf("[input] %s (%s): %s", e.Scanner, e.Kind, e.Status)
	if e.Detail != "" {
		line += ": " + e.Detail
	}
	if tw.config.ColorEnabled {
		return fmtDegraded(line)
	}
	return line
}

// Flush ensures all buffered events are written.
// For streaming mode, this is typically a no-op.
func (tw *TableWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	// In streaming mode, nothing to flush
	if tw.config.Mode == "streaming" {
		return nil
	}

	return nil
}

// Close renders and writes the complete table output.
func (tw *TableWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var err error

	switch tw.config.Mode {
	case "streaming":
		// Write final newline and summary
		fmt.Fprintln(tw.w)
		if tw.summary != nil {
			err = tw.writeSummaryTable()
		}
	case "minimal":
		err = tw.writeMinimalOutput()
	case "detailed":
		err = tw.writeDetailedTable()
	default: // "summary"
		err = tw.writeSummaryTable()
	}

	if err != nil {
		return fmt.Errorf("table: write: %w", err)
	}

	// Render legend if enabled
	if tw.config.ShowLegend && tw.config.ColorEnabled {
		tw.renderLegend()
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for group, document, and summary events.
func (tw *TableWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeGroup, events.EventTypeDocument, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// writeSummaryTable renders a summary-focused table.
func (tw *TableWriter) writeSummaryTable() error {
	sb := bufpool.GetString()
	defer bufpool.PutString(sb)

	// Header
	tw.writeTableHeader(sb, "Triage Summary")

	// Actionable share of groups
	if tw.summary != nil {
		tw.writeSignalBanner(sb)
		tw.writeTotalsTable(sb)
		tw.writeLifecycleBreakdown(sb)
		tw.writeSeverityBreakdown(sb)
		tw.writeKindBreakdown(sb)
	} else {
		// Generate stats from buffered groups
		tw.writeGroupStats(sb)
	}

	// Degraded inputs, if any scanner document failed
	tw.writeDegradedInputs(sb)

	// Top reportable groups (limited)
	tw.writeTopReportable(sb, 5)

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeDetailedTable renders a detailed table with all groups.
func (tw *TableWriter) writeDetailedTable() error {
	sb := bufpool.GetString()
	defer bufpool.PutString(sb)

	// Header
	tw.writeTableHeader(sb, "Triage Results - Detailed")

	// All groups table
	tw.writeGroupsTable(sb)

	// Summary if available
	if tw.summary != nil {
		sb.WriteString("\n")
		tw.writeSignalBanner(sb)
		tw.writeTotalsTable(sb)
	}

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeMinimalOutput renders a minimal single-line summary.
func (tw *TableWriter) writeMinimalOutput() error {
	var reportable, investigate, falsePositive, total int

	if tw.summary != nil {
		s := tw.summary.Summary
		reportable = s.ByTier[finding.TierReportable]
		investigate = s.ByTier[finding.TierInvestigate]
		falsePositive = s.ByTier[finding.TierFalsePositive]
		total = s.Groups
	} else {
		for _, g := range tw.groups {
			total++
			switch g.Verdict.Tier {
			case finding.TierReportable:
				reportable++
			case finding.TierInvestigate:
				investigate++
			case finding.TierFalsePositive:
				falsePositive++
			}
		}
	}

	line := fmt.Sprintf("Groups: %d | Reportable: %d | Investigate: %d | False positives: %d",
		total, reportable, investigate, falsePositive)

	if tw.config.ColorEnabled {
		color := colorGreen
		if investigate > 0 {
			color = colorYellow
		}
		if reportable > 0 {
			color = colorRed
		}
		line = fmt.Sprintf("%s%s%s", color, line, colorReset)
	}

	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// writeTableHeader writes the table header with title.
func (tw *TableWriter) writeTableHeader(sb *strings.Builder, title string) {
	width := tw.getWidth()
	chars := tw.chars

	// Top border
	sb.WriteString(chars.TopLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.TopRight)
	sb.WriteString("\n")

	// Title line
	titleLine := tw.centerText(title, width-4)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		sb.WriteString(colorBold)
	}
	sb.WriteString(titleLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTableFooter writes the table footer.
func (tw *TableWriter) writeTableFooter(sb *strings.Builder) {
	width := tw.getWidth()
	chars := tw.chars

	sb.WriteString(chars.BottomLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.BottomRight)
	sb.WriteString("\n")
}

// writeSignalBanner displays the actionable share of groups with a
// visual indicator. Actionable means reportable or investigate tier.
func (tw *TableWriter) writeSignalBanner(sb *strings.Builder) {
	if tw.summary == nil {
		return
	}

	s := tw.summary.Summary
	chars := tw.chars
	width := tw.getWidth()

	reportable := s.ByTier[finding.TierReportable]
	investigate := s.ByTier[finding.TierInvestigate]
	actionable := reportable + investigate

	var pct float64
	if s.Groups > 0 {
		pct = float64(actionable) / float64(s.Groups) * 100
	}

	// Score line
	scoreLine := fmt.Sprintf("Actionable: %d of %d groups (%.1f%%)",
		actionable, s.Groups, pct)

	if tw.config.ColorEnabled {
		color := colorGreen
		if investigate > 0 {
			color = colorYellow
		}
		if reportable > 0 {
			color = colorRed
		}
		scoreLine = fmt.Sprintf("%s%s%s", color, scoreLine, colorReset)
	}

	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(scoreLine)
	sb.WriteString(strings.Repeat(" ", width-4-len(stripANSI(scoreLine))))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Visual progress bar
	barWidth := width - 8
	filledWidth := int(pct / 100 * float64(barWidth))
	if filledWidth > barWidth {
		filledWidth = barWidth
	}
	if filledWidth < 0 {
		filledWidth = 0
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", barWidth-filledWidth)

	sb.WriteString(chars.Vertical)
	sb.WriteString("  [")
	if tw.config.ColorEnabled {
		if reportable > 0 {
			sb.WriteString(colorRed)
		} else {
			sb.WriteString(colorGreen)
		}
	}
	sb.WriteString(bar)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString("]  ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Recommendation
	var recLine string
	switch {
	case reportable > 0:
		recLine = fmt.Sprintf("Recommendation: review %d reportable group(s) first", reportable)
	case s.Degraded > 0:
		recLine = fmt.Sprintf("Recommendation: %d scanner input(s) degraded, rerun missing scanners", s.Degraded)
	}
	if recLine != "" {
		if len(recLine) > width-4 {
			recLine = recLine[:width-7] + "..."
		}
		sb.WriteString(chars.Vertical)
		sb.WriteString(" ")
		if tw.config.ColorEnabled {
			sb.WriteString(colorDim)
		}
		sb.WriteString(recLine)
		sb.WriteString(strings.Repeat(" ", width-4-len(recLine)))
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(" ")
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTotalsTable writes the group totals as a table row.
func (tw *TableWriter) writeTotalsTable(sb *strings.Builder) {
	if tw.summary == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	s := tw.summary.Summary

	// Header row
	header := "  Groups  | Reportable | Investigate | False Pos | Resolved"
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(strings.Repeat(" ", width-2-len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Values row
	valuesLine := fmt.Sprintf("  %-7d | %-10d | %-11d | %-9d | %-8d",
		s.Groups,
		s.ByTier[finding.TierReportable],
		s.ByTier[finding.TierInvestigate],
		s.ByTier[finding.TierFalsePositive],
		s.Resolved)

	sb.WriteString(chars.Vertical)
	if tw.config.ColorEnabled {
		// Color the reportable and resolved counts
		parts := strings.Split(valuesLine, "|")
		for i, part := range parts {
			if i == 1 && s.ByTier[finding.TierReportable] > 0 { // Reportable column
				sb.WriteString(colorRed)
				sb.WriteString(part)
				sb.WriteString(colorReset)
			} else if i == 4 && s.Resolved > 0 { // Resolved column
				sb.WriteString(colorGreen)
				sb.WriteString(part)
				sb.WriteString(colorReset)
			} else {
				sb.WriteString(part)
			}
			if i < len(parts)-1 {
				sb.WriteString("|")
			}
		}
	} else {
		sb.WriteString(valuesLine)
	}
	sb.WriteString(strings.Repeat(" ", width-2-len(valuesLine)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeLifecycleBreakdown writes lifecycle-based statistics.
func (tw *TableWriter) writeLifecycleBreakdown(sb *strings.Builder) {
	if tw.summary == nil || tw.summary.Summary.ByLifecycle == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	s := tw.summary.Summary

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Lifecycle:")
	sb.WriteString(strings.Repeat(" ", width-13))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Regressions first, they need the most attention
	lifecycles := []finding.Lifecycle{
		finding.LifecycleRegressed,
		finding.LifecycleNew,
		finding.LifecyclePersistent,
	}
	for _, lc := range lifecycles {
		count, ok := s.ByLifecycle[lc]
		if !ok || count == 0 {
			continue
		}

		line := fmt.Sprintf("  %-10s: %d group(s)", string(lc), count)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(lifecycleColors[lc])
			sb.WriteString(line)
			sb.WriteString(colorReset)
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Resolved fingerprints produce no group, report them from the count
	if s.Resolved > 0 {
		line := fmt.Sprintf("  %-10s: %d fingerprint(s)", "resolved", s.Resolved)
		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(lifecycleColors[finding.LifecycleResolved])
			sb.WriteString(line)
			sb.WriteString(colorReset)
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeSeverityBreakdown writes severity-based statistics.
func (tw *TableWriter) writeSeverityBreakdown(sb *strings.Builder) {
	if tw.summary == nil || tw.summary.Summary.BySeverity == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	s := tw.summary.Summary

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Severity Breakdown:")
	sb.WriteString(strings.Repeat(" ", width-22))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Sort severities by priority
	severities := []finding.Severity{finding.Critical, finding.High, finding.Medium, finding.Low, finding.Info}
	for _, sev := range severities {
		count, ok := s.BySeverity[sev]
		if !ok || count == 0 {
			continue
		}

		line := fmt.Sprintf("  %-8s: %d group(s)", string(sev), count)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sevColor := severityColors[string(sev)]
			sb.WriteString(sevColor)
			sb.WriteString(line)
			sb.WriteString(colorReset)
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeKindBreakdown writes finding counts per scanner kind.
func (tw *TableWriter) writeKindBreakdown(sb *strings.Builder) {
	if tw.summary == nil || len(tw.summary.Summary.ByKind) == 0 {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	s := tw.summary.Summary

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Findings by Scanner:")
	sb.WriteString(strings.Repeat(" ", width-23))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for _, kind := range finding.Kinds {
		count, ok := s.ByKind[kind]
		if !ok || count == 0 {
			continue
		}

		line := fmt.Sprintf("  %-11s: %d finding(s)", string(kind), count)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(colorDim)
			sb.WriteString(line)
			sb.WriteString(colorReset)
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeGroupStats writes stats calculated from buffered groups.
func (tw *TableWriter) writeGroupStats(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	var reportable, investigate, falsePositive int
	for _, g := range tw.groups {
		switch g.Verdict.Tier {
		case finding.TierReportable:
			reportable++
		case finding.TierInvestigate:
			investigate++
		case finding.TierFalsePositive:
			falsePositive++
		}
	}

	total := len(tw.groups)
	var pct float64
	if total > 0 {
		pct = float64(reportable+investigate) / float64(total) * 100
	}

	// Actionable line
	actLine := fmt.Sprintf("Actionable: %.1f%% (%d/%d groups)", pct, reportable+investigate, total)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		color := colorGreen
		if investigate > 0 {
			color = colorYellow
		}
		if reportable > 0 {
			color = colorRed
		}
		sb.WriteString(color)
	}
	sb.WriteString(actLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(strings.Repeat(" ", width-4-len(actLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Stats line
	statsLine := fmt.Sprintf("Reportable: %d | Investigate: %d | False positives: %d",
		reportable, investigate, falsePositive)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(statsLine)
	sb.WriteString(strings.Repeat(" ", width-4-len(statsLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeDegradedInputs lists scanner documents that did not fully parse.
func (tw *TableWriter) writeDegradedInputs(sb *strings.Builder) {
	var degraded []*events.DocumentEvent
	for _, d := range tw.documents {
		if d.Status != report.InputOK {
			degraded = append(degraded, d)
		}
	}
	if len(degraded) == 0 {
		return
	}

	chars := tw.chars
	width := tw.getWidth()

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Degraded Inputs:")
	sb.WriteString(strings.Repeat(" ", width-19))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for _, d := range degraded {
		line := fmt.Sprintf("  %s (%s): %s", d.Scanner, d.Kind, d.Status)
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(fmtDegraded(line))
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTopReportable writes the top N reportable groups.
func (tw *TableWriter) writeTopReportable(sb *strings.Builder, limit int) {
	chars := tw.chars
	width := tw.getWidth()

	// Collect reportable groups
	var reportable []*events.GroupEvent
	for _, g := range tw.groups {
		if g.Verdict.Tier == finding.TierReportable {
			reportable = append(reportable, g)
		}
	}

	if len(reportable) == 0 {
		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(colorGreen)
		}
		sb.WriteString(" No reportable findings!")
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(strings.Repeat(" ", width-26))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	// Sort by severity
	sort.SliceStable(reportable, func(i, j int) bool {
		return reportable[i].Group.Severity.Score() > reportable[j].Group.Severity.Score()
	})

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Top Reportable:")
	sb.WriteString(strings.Repeat(" ", width-18))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for i, g := range reportable {
		if i >= limit {
			break
		}

		primary := g.Group.Primary()
		line := fmt.Sprintf("  %d. [%s] %s - %s",
			i+1, g.Group.Severity, primary.RuleID, primary.Location())
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sevColor := severityColors[string(g.Group.Severity)]
			sb.WriteString(sevColor)
		}
		sb.WriteString(line)
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}
}

// writeGroupsTable writes all buffered groups as a table.
func (tw *TableWriter) writeGroupsTable(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	if len(tw.groups) == 0 {
		sb.WriteString(chars.Vertical)
		sb.WriteString(" No groups to display")
		sb.WriteString(strings.Repeat(" ", width-23))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	// Table header
	header := " Tier           | Severity | Lifecycle  | Kind        | Rule / Location"
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(strings.Repeat(" ", width-2-len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat("-", width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Groups
	for _, g := range tw.groups {
		primary := g.Group.Primary()

		tier := fmt.Sprintf("%-14s", g.Verdict.Tier)
		severity := fmt.Sprintf("%-8s", g.Group.Severity)
		lifecycle := fmt.Sprintf("%-10s", g.Lifecycle)
		kind := fmt.Sprintf("%-11s", primary.Kind)

		detail := primary.RuleID
		if loc := primary.Location(); loc != "" {
			detail += " " + loc
		}
		maxDetailLen := width - 58
		if len(detail) > maxDetailLen && maxDetailLen > 3 {
			detail = detail[:maxDetailLen-3] + "..."
		}

		line := fmt.Sprintf(" %s | %s | %s | %s | %s", tier, severity, lifecycle, kind, detail)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			// Apply colors
			tierColor := tierColors[g.Verdict.Tier]
			sevColor := severityColors[string(g.Group.Severity)]
			coloredLine := fmt.Sprintf(" %s%s%s | %s%s%s | %s | %s | %s",
				tierColor, tier, colorReset,
				sevColor, severity, colorReset,
				lifecycle, kind, detail)
			sb.WriteString(coloredLine)
			// Pad without colors
			sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		} else {
			sb.WriteString(line)
			sb.WriteString(strings.Repeat(" ", width-2-len(line)))
		}
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// getWidth returns the configured or auto-detected terminal width.
func (tw *TableWriter) getWidth() int {
	if tw.config.Width > 0 {
		return tw.config.Width
	}

	// Try to detect terminal width
	width := getTerminalWidth(tw.w)

	// Apply MaxWidth constraint if set
	if tw.config.MaxWidth > 0 && width > tw.config.MaxWidth {
		return tw.config.MaxWidth
	}

	return width
}

// getTerminalWidth detects the terminal width from the writer or returns default.
func getTerminalWidth(w io.Writer) int {
	// Try from provided writer
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}

	// Try stdout directly
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	// Default width for non-terminal or detection failure
	return 120
}

// calculateColumnWidths calculates responsive column widths based on terminal size.
// Priority order: rule, location (truncate location last).
func (tw *TableWriter) calculateColumnWidths() {
	termWidth := tw.getWidth()

	// Minimum widths for each column
	const (
		minTier      = 14
		minSeverity  = 8
		minLifecycle = 10
		minKind      = 11
		minRule      = 20
		minLocation  = 20
		separators   = 19 // space for separators and padding
	)

	// Start with minimum widths
	tw.columnWidths = columnWidths{
		tier:      minTier,
		severity:  minSeverity,
		lifecycle: minLifecycle,
		kind:      minKind,
		rule:      minRule,
		location:  minLocation,
	}

	// Calculate available extra space
	usedWidth := minTier + minSeverity + minLifecycle + minKind + minRule + minLocation + separators
	extraSpace := termWidth - usedWidth

	if extraSpace <= 0 {
		return // Use minimum widths
	}

	// Distribute extra space: prioritize rule, then location
	if extraSpace > 20 {
		tw.columnWidths.rule += 10
		extraSpace -= 10
	}
	if extraSpace > 0 {
		tw.columnWidths.location += extraSpace
	}
}

// renderLegend renders a color legend.
func (tw *TableWriter) renderLegend() {
	if !tw.config.ColorEnabled {
		return
	}

	fmt.Fprintf(tw.w, "\nSeverity:  %s %s %s %s %s\n",
		fmtCritical("●Critical"),
		fmtHigh("●High"),
		fmtMedium("●Medium"),
		fmtLow("●Low"),
		fmtInfo("●Info"))

	fmt.Fprintf(tw.w, "Tier:      %s %s %s\n",
		fmtReportable("●Reportable"),
		fmtInvestigate("●Investigate"),
		fmtFalsePositive("●FalsePositive"))

	fmt.Fprintf(tw.w, "Lifecycle: %s %s %s %s\n",
		fmtRegressed("●Regressed"),
		fmtNew("●New"),
		fmtPersistent("●Persistent"),
		fmtResolved("●Resolved"))
}

// truncateWithMarker truncates a string and adds a clear truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 5 {
		return s[:maxLen]
	}
	return s[:maxLen-5] + "[...]"
}

// centerText centers text within a given width.
func (tw *TableWriter) centerText(text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
}

// stripANSI removes ANSI escape codes from a string for length calculation.
func stripANSI(s string) string {
	// Simple ANSI stripper - handles common escape sequences
	result := s
	// Remove color codes like \033[...m
	for {
		start := strings.Index(result, "\033[")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "m")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+1:]
	}
	return result
}
