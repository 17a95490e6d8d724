// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all runtime configuration defaults.
//
// Usage:
//
//	config.Workers = defaults.WorkersMedium
//	config.MaxDocumentSize = defaults.BufferMax
//
// DO NOT use hardcoded values like `Workers: 10` anywhere.
// Instead, reference the appropriate constant from this package.
package defaults

import "fmt"

// Version is the current scantriage version
const Version = "1.3.0"

const (
	// ToolName is the canonical tool identifier
	ToolName = "scantriage"

	// ToolNameDisplay is the human-facing tool name
	ToolNameDisplay = "ScanTriage"

	// ToolURI is the project information URI
	ToolURI = "https://github.com/scantriage/scantriage"
)

// ============================================================================
// WORKER POOL SETTINGS
// ============================================================================
//
// Use these for worker pools and parallel pipeline stages.
// ============================================================================

const (
	// WorkersMinimal is for single-threaded operations (1)
	WorkersMinimal = 1

	// WorkersLow is for light parallelism (4)
	WorkersLow = 4

	// WorkersMedium is for standard pipeline stages (10)
	WorkersMedium = 10

	// WorkersHigh is for fingerprint/classify fan-out (20)
	WorkersHigh = 20

	// WorkersMax is the pool ceiling (50)
	WorkersMax = 50
)

// ============================================================================
// BUFFER SIZES
// ============================================================================
//
// Use these for byte buffers, slices, and I/O operations.
// ============================================================================

const (
	// BufferTiny is for small reads (1KB)
	BufferTiny = 1 * 1024

	// BufferSmall is for typical reads (4KB)
	BufferSmall = 4 * 1024

	// BufferMedium is for larger reads (32KB)
	BufferMedium = 32 * 1024

	// BufferLarge is for bulk reads (64KB)
	BufferLarge = 64 * 1024

	// BufferMax is the maximum scanner document size (64MB)
	BufferMax = 64 * 1024 * 1024
)

// ============================================================================
// CHANNEL SIZES
// ============================================================================
//
// Use these for buffered channels.
// ============================================================================

const (
	// ChannelTiny is for small buffers (10)
	ChannelTiny = 10

	// ChannelSmall is for typical buffers (100)
	ChannelSmall = 100

	// ChannelMedium is for event fan-out buffers (1000)
	ChannelMedium = 1000
)

// ============================================================================
// RETRY SETTINGS
// ============================================================================

const (
	// RetryNone disables retries (0)
	RetryNone = 0

	// RetryLow is for quick operations (2)
	RetryLow = 2

	// RetryMedium is the standard retry count (3)
	RetryMedium = 3
)

// ============================================================================
// SNAPSHOT STORE
// ============================================================================
//
// File layout and retention for per-repository snapshots.
// ============================================================================

const (
	// SnapshotLatestFile is the current snapshot file name
	SnapshotLatestFile = "latest.json"

	// SnapshotPreviousFile is the rotated prior snapshot file name
	SnapshotPreviousFile = "previous.json"

	// SnapshotDirPerm is the mode for snapshot directories
	SnapshotDirPerm = 0o755

	// SnapshotFilePerm is the mode for snapshot files
	SnapshotFilePerm = 0o644
)

// ============================================================================
// CLASSIFICATION
// ============================================================================

const (
	// ConfidenceFloor is the minimum verdict confidence (0.0)
	ConfidenceFloor = 0.0

	// ConfidenceFallback is the verdict confidence when no policy rule
	// matched (0.5)
	ConfidenceFallback = 0.5

	// ConfidenceCeiling is the maximum verdict confidence (1.0)
	ConfidenceCeiling = 1.0
)

// ============================================================================
// CORRELATION
// ============================================================================

const (
	// SimhashMaxDistance is the default Hamming distance bound for
	// near-duplicate evidence correlation
	SimhashMaxDistance = 3
)

// ============================================================================
// DELIVERY
// ============================================================================

const (
	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"

	// WebhookRatePerSecond is the default webhook delivery rate
	WebhookRatePerSecond = 5

	// MetricsPort is the default Prometheus metrics listen port
	MetricsPort = 9090

	// HTTPMaxIdleConns is the idle connection pool size for delivery
	// clients (20)
	HTTPMaxIdleConns = 20

	// HTTPMaxConnsPerHost caps connections per delivery endpoint (5)
	HTTPMaxConnsPerHost = 5
)

// UserAgent returns the scantriage user agent with context
func UserAgent(context string) string {
	if context == "" {
		return "scantriage/" + Version
	}
	return fmt.Sprintf("scantriage/%s (%s)", Version, context)
}
