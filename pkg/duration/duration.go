// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.NormalizeTimeout)
//	opts.Timeout = duration.WebhookTimeout
//
// DO NOT use hardcoded time.Duration values like `30 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// PIPELINE TIMEOUTS
// ============================================================================
//
// Use these for context.WithTimeout() calls bounding triage pipeline stages.
// ============================================================================

const (
	// NormalizeTimeout bounds parsing of a single scanner document (30s)
	NormalizeTimeout = 30 * time.Second

	// RunTimeout bounds an entire triage run (10min)
	RunTimeout = 10 * time.Minute

	// FlushTimeout bounds writer and hook flushing at shutdown (5s)
	FlushTimeout = 5 * time.Second
)

// ============================================================================
// HOOK/INTEGRATION TIMEOUTS
// ============================================================================
//
// Use these for outbound deliveries to external systems.
// ============================================================================

const (
	// WebhookTimeout bounds a single webhook delivery (10s)
	WebhookTimeout = 10 * time.Second

	// OTelConnect bounds the OTLP exporter connection setup (10s)
	OTelConnect = 10 * time.Second

	// OTelShutdown bounds trace provider shutdown and final export (5s)
	OTelShutdown = 5 * time.Second
)

// ============================================================================
// HTTP CLIENT TUNING
// ============================================================================
//
// Use these for transport-level settings on outbound HTTP clients.
// ============================================================================

const (
	// DialTimeout bounds TCP connection establishment (10s)
	DialTimeout = 10 * time.Second

	// TLSHandshakeTimeout bounds the TLS handshake (10s)
	TLSHandshakeTimeout = 10 * time.Second

	// KeepAlive is the TCP keep-alive probe interval (30s)
	KeepAlive = 30 * time.Second

	// IdleConnTimeout is how long idle connections stay pooled (90s)
	IdleConnTimeout = 90 * time.Second

	// ExpectContinueTimeout bounds the wait for a 100-continue response (1s)
	ExpectContinueTimeout = 1 * time.Second
)

// ============================================================================
// UI/STREAMING INTERVALS
// ============================================================================
//
// Use these for progress updates, streaming output, and UI refresh rates.
// ============================================================================

const (
	// StreamFast is for real-time updates (1s)
	StreamFast = 1 * time.Second

	// StreamStd is for normal progress reporting (3s)
	StreamStd = 3 * time.Second
)

// ============================================================================
// RETRY/BACKOFF
// ============================================================================
//
// Use these for retry delays and exponential backoff bases.
// ============================================================================

const (
	// RetryBackoffBase is the first exponential backoff step (1s).
	// Attempt n waits RetryBackoffBase * 2^(n-1).
	RetryBackoffBase = 1 * time.Second

	// RetryStd is for fixed-delay retries (5s)
	RetryStd = 5 * time.Second
)

// ============================================================================
// SNAPSHOT RETENTION
// ============================================================================
//
// Use these for snapshot store aging decisions.
// ============================================================================

const (
	// ResolvedRetention is how long resolved fingerprints stay in the
	// regression ledger before pruning (180 days)
	ResolvedRetention = 180 * 24 * time.Hour
)
