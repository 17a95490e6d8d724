package finding

import "errors"

// Sentinel errors for pipeline-wide failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrScannerUnavailable indicates a scanner's input document is
	// missing or could not be read in time. The run degrades: that
	// scanner's findings are absent and the report is annotated.
	ErrScannerUnavailable = errors.New("finding: scanner input unavailable")

	// ErrUnknownKind indicates a scanner kind outside the recognized
	// set.
	ErrUnknownKind = errors.New("finding: unknown scanner kind")
)
