package finding

// ScannerKind identifies the class of scanner that produced a finding.
// Wire values are stable and appear verbatim in scanner documents,
// snapshots and reports.
type ScannerKind string

const (
	// KindSecret is credential and secret detection (gitleaks, trufflehog).
	KindSecret ScannerKind = "secret"

	// KindStatic is static code analysis (semgrep-style rule engines).
	KindStatic ScannerKind = "static_code"

	// KindIaC is infrastructure-as-code analysis (checkov, tfsec).
	KindIaC ScannerKind = "iac"

	// KindArtifact is archive and binary artifact inspection.
	KindArtifact ScannerKind = "artifact"

	// KindDynamic is dynamic web scanning (nuclei-style templates,
	// including out-of-band callback confirmations).
	KindDynamic ScannerKind = "dynamic"
)

// Kinds lists all scanner kinds in canonical report order.
var Kinds = []ScannerKind{KindSecret, KindStatic, KindIaC, KindArtifact, KindDynamic}

// IsValid reports whether k is a recognized scanner kind.
func (k ScannerKind) IsValid() bool {
	switch k {
	case KindSecret, KindStatic, KindIaC, KindArtifact, KindDynamic:
		return true
	}
	return false
}

// String returns the wire value of the kind.
func (k ScannerKind) String() string {
	return string(k)
}
