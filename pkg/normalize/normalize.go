// Package normalize maps scanner-native output documents onto the
// canonical Finding model.
//
// One normalizer per scanner kind:
//
//	secret       gitleaks-style JSON array or trufflehog-style JSONL
//	static_code  semgrep-style results document
//	iac          checkov-style failed_checks or tfsec-style results
//	artifact     archive-inspector JSONL records
//	dynamic      nuclei-style JSONL with OOB interaction data
//
// Normalization is lossless for everything fingerprinting and
// correlation need, and performs no filtering or judgment: scope and
// verdicts belong to the classifier. Unknown fields are ignored.
// A missing required field fails the whole document with a
// *MalformedInputError so the run can isolate that scanner.
package normalize

import (
	"fmt"
	"time"

	"github.com/scantriage/scantriage/pkg/finding"
)

// Source identifies the origin of one scanner document.
type Source struct {
	Organization string
	Repository   string

	// Scanner is the concrete tool name, taken from the document file
	// name (gitleaks, semgrep, nuclei, ...).
	Scanner string

	// ScanTime stamps findings whose records carry no timestamp of
	// their own.
	ScanTime time.Time
}

// MalformedInputError reports an unreadable or invalid scanner
// document. The run isolates the offending scanner and continues;
// the report carries a degraded-coverage annotation instead.
type MalformedInputError struct {
	Scanner string
	Kind    finding.ScannerKind

	// Record is the 1-based record or line number, 0 for
	// document-level problems.
	Record int

	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("normalize: %s record %d: %s", e.Scanner, e.Record, e.Reason)
	}
	return fmt.Sprintf("normalize: %s: %s", e.Scanner, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Normalize parses one scanner document into findings. Fingerprints
// are not stamped here; that is the pipeline's next stage.
// Returns finding.ErrUnknownKind for an unrecognized kind and a
// *MalformedInputError when the document cannot be trusted.
func Normalize(kind finding.ScannerKind, src Source, data []byte) ([]finding.Finding, error) {
	switch kind {
	case finding.KindSecret:
		return normalizeSecret(src, data)
	case finding.KindStatic:
		return normalizeStatic(src, data)
	case finding.KindIaC:
		return normalizeIaC(src, data)
	case finding.KindArtifact:
		return normalizeArtifact(src, data)
	case finding.KindDynamic:
		return normalizeDynamic(src, data)
	}
	return nil, fmt.Errorf("%w: %q", finding.ErrUnknownKind, kind)
}

// base returns a Finding carrying the document-level fields.
func (s Source) base(kind finding.ScannerKind) finding.Finding {
	return finding.Finding{
		Kind:         kind,
		Organization: s.Organization,
		Repository:   s.Repository,
		Scanner:      s.Scanner,
		DetectedAt:   s.ScanTime,
	}
}

func malformed(src Source, kind finding.ScannerKind, record int, reason string, err error) error {
	return &MalformedInputError{Scanner: src.Scanner, Kind: kind, Record: record, Reason: reason, Err: err}
}

// metaSet stores a metadata value, allocating the map on first use.
// Empty values are dropped so findings without extras stay map-free.
func metaSet(f *finding.Finding, key, value string) {
	if value == "" {
		return
	}
	if f.Metadata == nil {
		f.Metadata = map[string]string{}
	}
	f.Metadata[key] = value
}
