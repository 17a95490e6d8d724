// Package writers provides output writers for various formats.
package writers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*SARIFWriter)(nil)

// SARIFWriter writes events in SARIF 2.1.0 format.
// SARIF (Static Analysis Results Interchange Format) is the standard
// for GitHub Security tab, GitLab SAST, and Azure DevOps integration.
// Results are buffered and written as a complete SARIF document on Close.
//
// This implementation follows GitHub-certified patterns from Semgrep, Trivy,
// and Nuclei including:
//   - matchBasedId/v1 fingerprints for result deduplication
//   - security-severity scores for GitHub Advanced Security
//   - Suppressions for groups classified as false positives
//   - Rich markdown help for IDE integration
type SARIFWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    SARIFOptions
	results []sarifResult
	rules   map[string]sarifRule
}

// SARIFOptions configures the SARIF writer.
type SARIFOptions struct {
	// ToolName is the name of the tool (default: scantriage).
	ToolName string

	// ToolVersion is the version of the tool.
	ToolVersion string

	// ToolURI is the information URI for the tool.
	ToolURI string

	// ToolDownloadURI is the download URI for the tool.
	ToolDownloadURI string

	// Organization is the organization that produces the tool.
	Organization string
}

// SARIF 2.1.0 structures.

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool     `json:"tool"`
	Results    []sarifResult `json:"results"`
	ColumnKind string        `json:"columnKind,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
	InformationURI  string      `json:"informationUri,omitempty"`
	DownloadURI     string      `json:"downloadUri,omitempty"`
	Organization    string      `json:"organization,omitempty"`
	Rules           []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	ShortDescription *sarifMessage       `json:"shortDescription,omitempty"`
	FullDescription  *sarifMessage       `json:"fullDescription,omitempty"`
	DefaultConfig    *sarifConfiguration `json:"defaultConfiguration,omitempty"`
	Help             *sarifHelp          `json:"help,omitempty"`
	HelpURI          string              `json:"helpUri,omitempty"`
	Properties       map[string]any      `json:"properties,omitempty"`
}

type sarifConfiguration struct {
	Level string `json:"level"`
}

type sarifHelp struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

type sarifResult struct {
	RuleID       string             `json:"ruleId"`
	Level        string             `json:"level"`
	Message      sarifMessage       `json:"message"`
	Locations    []sarifLocation    `json:"locations,omitempty"`
	Fingerprints map[string]string  `json:"fingerprints,omitempty"`
	Suppressions []sarifSuppression `json:"suppressions,omitempty"`
	Properties   map[string]any     `json:"properties,omitempty"`
}

type sarifSuppression struct {
	Kind          string `json:"kind"`
	Justification string `json:"justification,omitempty"`
}

type sarifMessage struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// NewSARIFWriter creates a new SARIF 2.1.0 writer.
// The writer buffers all results and writes a complete SARIF document on Close.
// The writer is safe for concurrent use.
func NewSARIFWriter(w io.Writer, opts SARIFOptions) *SARIFWriter {
	if opts.ToolName == "" {
		opts.ToolName = defaults.ToolName
	}
	if opts.ToolURI == "" {
		opts.ToolURI = defaults.ToolURI
	}
	if opts.ToolDownloadURI == "" {
		opts.ToolDownloadURI = defaults.ToolURI + "/releases"
	}
	if opts.Organization == "" {
		opts.Organization = defaults.ToolNameDisplay
	}
	return &SARIFWriter{
		w:       w,
		opts:    opts,
		results: make([]sarifResult, 0),
		rules:   make(map[string]sarifRule),
	}
}

// severityToLevel maps canonical severity to SARIF level.
// Delegates to finding.Severity.ToSARIF for canonical mapping.
func severityToLevel(severity finding.Severity) string {
	return severity.ToSARIF()
}

// severityToScore maps canonical severity to GitHub security-severity score.
// Delegates to finding.Severity.ToSARIFScore for canonical mapping.
func severityToScore(severity finding.Severity) string {
	return severity.ToSARIFScore()
}

// generateFingerprint creates a matchBasedId/v1 fingerprint for result deduplication.
// The fingerprint is a SHA256 hash of the rule ID, file path, line number, and group ID.
func generateFingerprint(ruleID, filePath string, line int, groupID string) string {
	h := sha256.New()
	h.Write([]byte(fmt.Sprintf("%s:%s:%d:%s", ruleID, filePath, line, groupID)))
	return hex.EncodeToString(h.Sum(nil))
}

// kindReadableName converts a scanner kind to a human-readable name.
func kindReadableName(k finding.ScannerKind) string {
	switch k {
	case finding.KindSecret:
		return "Secret Detection"
	case finding.KindStatic:
		return "Static Analysis"
	case finding.KindIaC:
		return "Infrastructure as Code"
	case finding.KindArtifact:
		return "Artifact Inspection"
	case finding.KindDynamic:
		return "Dynamic Scanning"
	default:
		return string(k)
	}
}

// confidenceToPrecision maps classifier confidence to a SARIF rule
// precision value recognized by GitHub code scanning.
func confidenceToPrecision(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "very-high"
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// cweToOWASP maps a finding's CWE identifier to its OWASP Top 10 2021
// category tag. Uses centralized defaults.CWEToOWASP for consistency.
func cweToOWASP(cwe string) string {
	cat := defaults.GetOWASPCategoryForCWE(cwe)
	return strings.ReplaceAll(cat.FullName, " - ", "-")
}

// buildTags creates the tags array for a rule from its contributing
// scanner kinds plus CWE and OWASP tags when the scanner reported a CWE.
func buildTags(kinds []finding.ScannerKind, cwe string) []string {
	tags := []string{"security"}
	for _, k := range kinds {
		tags = append(tags, string(k))
	}
	if cwe != "" {
		tags = append(tags, "external/cwe", cwe)
		if owasp := cweToOWASP(cwe); owasp != "A00:2021-Unknown" {
			tags = append(tags, owasp)
		}
	}
	tags = append(tags, "triage")
	return tags
}

// buildHelp creates rich help content with markdown for IDE display.
func buildHelp(ruleID, name, cwe string) *sarifHelp {
	plainText := fmt.Sprintf(
		"%s finding reported for rule %s. Review the correlated evidence, "+
			"confirm the finding applies to production scope, and check the "+
			"lifecycle state before submitting.",
		name, ruleID)

	var refs strings.Builder
	if cwe != "" {
		num := strings.TrimPrefix(cwe, "CWE-")
		fmt.Fprintf(&refs, "- [%s](https://cwe.mitre.org/data/definitions/%s.html)\n", cwe, num)
		if code := defaults.GetOWASPForCWE(cwe); code != "A00:2021" {
			fmt.Fprintf(&refs, "- [%s](%s)\n", defaults.GetOWASPFullName(code), defaults.GetOWASPURL(code))
		}
	}
	fmt.Fprintf(&refs, "- [%s Documentation](%s/docs)\n", defaults.ToolNameDisplay, defaults.ToolURI)

	markdown := fmt.Sprintf(`## %s

A correlated finding was reported for rule **%s**.

### Description

One or more scanners reported this issue. Findings that share a fingerprint or satisfy a correlation rule are merged into a single group, so this result represents every sighting of the same underlying issue in the run.

### Triage

1. Review the constituent evidence and the classifier confidence
2. Confirm the finding applies to production scope, not test fixtures
3. Check the lifecycle state: regressed findings were already fixed once
4. Submit reportable findings with the correlated evidence attached

### References

%s`, name, ruleID, refs.String())

	return &sarifHelp{
		Text:     plainText,
		Markdown: markdown,
	}
}

// Write converts a group event to SARIF format.
// Every classified group becomes a result; groups judged false positive
// carry a suppression so downstream viewers hide them by default.
func (sw *SARIFWriter) Write(event events.Event) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	ge, ok := event.(*events.GroupEvent)
	if !ok {
		return nil // Skip non-group events
	}

	primary := ge.Group.Primary()
	ruleID := primary.RuleID
	name := kindReadableName(primary.Kind)
	cwe := primary.Metadata["cwe"]

	// Add rule if not exists
	if _, exists := sw.rules[ruleID]; !exists {
		tags := buildTags(ge.Group.Kinds, cwe)
		help := buildHelp(ruleID, name, cwe)
		helpURI := fmt.Sprintf("%s/docs/%s", defaults.ToolURI, primary.Kind)

		properties := map[string]any{
			"precision":         confidenceToPrecision(ge.Verdict.Confidence),
			"tags":              tags,
			"security-severity": severityToScore(ge.Group.Severity),
		}
		if cwe != "" {
			properties["cwe"] = cwe
		}

		sw.rules[ruleID] = sarifRule{
			ID:   ruleID,
			Name: name,
			ShortDescription: &sarifMessage{
				Text: fmt.Sprintf("%s finding for rule %s", name, ruleID),
			},
			FullDescription: &sarifMessage{
				Text: fmt.Sprintf(
					"Correlated %s finding for rule %s. Constituent findings "+
						"from multiple scanners are merged when they identify "+
						"the same underlying issue.",
					strings.ToLower(name), ruleID),
			},
			DefaultConfig: &sarifConfiguration{
				Level: severityToLevel(ge.Group.Severity),
			},
			Help:       help,
			HelpURI:    helpURI,
			Properties: properties,
		}
	}

	// Generate fingerprint for result deduplication
	fingerprintHash := generateFingerprint(ruleID, primary.FilePath, primary.StartLine, ge.Group.ID)

	// Build result message with markdown
	msgText := fmt.Sprintf("Correlated finding: %s", ruleID)
	msgMarkdown := fmt.Sprintf(
		"**Correlated Finding:** %s\n\n"+
			"| Property | Value |\n"+
			"|----------|-------|\n"+
			"| Tier | %s |\n"+
			"| Severity | %s |\n"+
			"| Lifecycle | %s |\n"+
			"| Confidence | %.2f |",
		ruleID, ge.Verdict.Tier, ge.Group.Severity, ge.Lifecycle, ge.Verdict.Confidence)

	if len(ge.Group.Scanners) > 0 {
		msgMarkdown += fmt.Sprintf("\n| Scanners | %s |", strings.Join(ge.Group.Scanners, ", "))
	}
	if loc := primary.Location(); loc != "" {
		msgMarkdown += fmt.Sprintf("\n| Location | `%s` |", loc)
	}

	// Build location from the primary constituent
	var locations []sarifLocation
	switch {
	case primary.FilePath != "":
		var region *sarifRegion
		if primary.StartLine > 0 {
			region = &sarifRegion{StartLine: primary.StartLine}
			if primary.EndLine > primary.StartLine {
				region.EndLine = primary.EndLine
			}
		}
		locations = append(locations, sarifLocation{
			PhysicalLocation: &sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: primary.FilePath},
				Region:           region,
			},
		})
	case primary.Target != "":
		locations = append(locations, sarifLocation{
			PhysicalLocation: &sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: primary.Target},
			},
		})
	}

	// Build result
	result := sarifResult{
		RuleID: ruleID,
		Level:  severityToLevel(ge.Group.Severity),
		Message: sarifMessage{
			Text:     msgText,
			Markdown: msgMarkdown,
		},
		Locations: locations,
		Fingerprints: map[string]string{
			"matchBasedId/v1":     fingerprintHash,
			"correlationGroup/v1": ge.Group.ID,
		},
		Properties: map[string]any{
			"tier":       string(ge.Verdict.Tier),
			"severity":   string(ge.Group.Severity),
			"lifecycle":  string(ge.Lifecycle),
			"confidence": ge.Verdict.Confidence,
			"scope":      string(ge.Verdict.Scope),
			"findings":   len(ge.Group.Findings),
		},
	}

	if len(ge.Group.Reasons) > 0 {
		result.Properties["correlation_reasons"] = ge.Group.Reasons
	}
	if ge.Group.Verified {
		result.Properties["verified"] = true
	}
	if ge.Group.OOB {
		result.Properties["oob"] = true
	}

	// False positives stay in the document but are suppressed, so a
	// reviewer can audit the classification without seeing them as
	// open alerts.
	if ge.Verdict.Tier == finding.TierFalsePositive {
		result.Suppressions = []sarifSuppression{
			{Kind: "external", Justification: ge.Verdict.Reason},
		}
	}

	sw.results = append(sw.results, result)

	return nil
}

// Flush is a no-op for SARIF writer.
// All results are written as a single document on Close.
func (sw *SARIFWriter) Flush() error { return nil }

// Close writes all buffered results as a complete SARIF 2.1.0 document.
// If the underlying writer implements io.Closer, it will be closed.
func (sw *SARIFWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	// Build rules array from map and sort by ID for deterministic output.
	rules := make([]sarifRule, 0, len(sw.rules))
	for _, rule := range sw.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})

	// Ensure results is never nil so JSON encodes as [] not null per SARIF spec.
	results := sw.results
	if results == nil {
		results = make([]sarifResult, 0)
	}

	doc := sarifDocument{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:            sw.opts.ToolName,
						Version:         sw.opts.ToolVersion,
						SemanticVersion: sw.opts.ToolVersion,
						InformationURI:  sw.opts.ToolURI,
						DownloadURI:     sw.opts.ToolDownloadURI,
						Organization:    sw.opts.Organization,
						Rules:           rules,
					},
				},
				Results:    results,
				ColumnKind: "utf16CodeUnits",
			},
		},
	}

	encoder := jsonutil.NewStreamEncoder(sw.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("sarif: encode: %w", err)
	}

	if closer, ok := sw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for group events.
// Groups are the event type relevant for SARIF security reporting.
func (sw *SARIFWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeGroup
}
