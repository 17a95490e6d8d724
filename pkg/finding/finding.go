package finding

import (
	"fmt"
	"time"
)

// Finding is one issue reported by one scanner run, normalized from
// the scanner's native output shape.
//
// Identity is the Fingerprint, computed once at ingestion from the
// kind, rule id, target and evidence signature; it is the join key
// between runs and must never be recomputed for an existing Finding.
//
// FilePath is empty for network findings; Target is empty for file
// findings. Artifact findings use FilePath in "archive!member" form
// so members with the same name in different archives stay distinct.
type Finding struct {
	// Fingerprint is the stable identity of the underlying issue.
	Fingerprint string `json:"fingerprint"`

	// Kind is the scanner class that produced the finding.
	Kind ScannerKind `json:"scanner_kind"`

	// Organization and Repository identify the scanned codebase.
	Organization string `json:"organization,omitempty"`
	Repository   string `json:"repository"`

	// Scanner is the concrete tool name (gitleaks, semgrep, nuclei).
	Scanner string `json:"scanner,omitempty"`

	// RuleID is the scanner-specific detection rule or template id.
	RuleID string `json:"rule_id"`

	// FilePath locates file-based findings. Empty for dynamic findings.
	FilePath  string `json:"file_path,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`

	// Target is the endpoint URL for dynamic findings.
	Target string `json:"target,omitempty"`

	// Parameter is the injected or matched parameter name, when the
	// scanner reports one.
	Parameter string `json:"parameter,omitempty"`

	// RawSeverity is the scanner-native severity label, verbatim.
	RawSeverity string `json:"raw_severity"`

	// Evidence is the ordered sequence of snippets supporting the
	// finding: matched content, request/response excerpts, callback
	// records.
	Evidence []string `json:"evidence,omitempty"`

	// Verified is the scanner's own verification result for secret
	// findings (live-credential check performed by the scanner, not
	// by this engine). Always false for other kinds.
	Verified bool `json:"verified,omitempty"`

	// OOB marks dynamic findings confirmed by an out-of-band
	// callback interaction.
	OOB bool `json:"oob,omitempty"`

	// DetectedAt is the scan timestamp.
	DetectedAt time.Time `json:"detected_at"`

	// Metadata carries scanner-specific extras that survive
	// normalization (entropy, resource name, interaction protocol).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Location renders the finding's position for display: "path:line",
// "path:start-end", a bare path, or the target URL.
func (f Finding) Location() string {
	if f.FilePath != "" {
		switch {
		case f.StartLine > 0 && f.EndLine > f.StartLine:
			return fmt.Sprintf("%s:%d-%d", f.FilePath, f.StartLine, f.EndLine)
		case f.StartLine > 0:
			return fmt.Sprintf("%s:%d", f.FilePath, f.StartLine)
		}
		return f.FilePath
	}
	return f.Target
}

// RepoKey renders the "org/repo" key used for snapshot addressing and
// report grouping. Findings without an organization render as the bare
// repository name.
func (f Finding) RepoKey() string {
	if f.Organization == "" {
		return f.Repository
	}
	return f.Organization + "/" + f.Repository
}
