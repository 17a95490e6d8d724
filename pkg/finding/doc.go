// Package finding provides the canonical finding model shared across
// all scantriage pipeline stages.
//
// Every scanner output format is normalized into the one Finding type
// defined here, so the fingerprint engine, deduplicator, history
// tracker and classifier never see scanner-specific shapes. The
// package also defines the shared vocabulary the pipeline speaks:
// ScannerKind, Severity, Tier, Lifecycle and Scope.
//
// Findings are immutable by convention: once produced by a normalizer
// a Finding is never modified in place. Corrections produce a new
// Finding; derived judgments (tier, scope) live on Verdict.
package finding
