// Package fingerprint computes the stable identity of a finding.
//
// A fingerprint is a 128-bit murmur3 hash over the scanner kind, rule
// id, normalized target and evidence signature, rendered as 32 hex
// characters. Line numbers never enter the hash: a finding whose code
// merely shifted lines between scans keeps its fingerprint, while a
// changed rule id or changed evidence produces a new one. The
// fingerprint is computed once at ingestion and is the join key
// between the current run and persisted snapshots.
//
// The package also provides the evidence simhash used by correlation
// rules for near-duplicate evidence matching.
package fingerprint
