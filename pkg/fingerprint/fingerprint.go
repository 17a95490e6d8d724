package fingerprint

import (
	"github.com/spaolacci/murmur3"

	"github.com/scantriage/scantriage/internal/hexutil"
	"github.com/scantriage/scantriage/pkg/bufpool"
	"github.com/scantriage/scantriage/pkg/finding"
)

// Compute derives the identity fingerprint for f. Pure and
// deterministic: the same kind, rule id, target and normalized
// evidence always hash to the same 32-character lowercase hex string,
// across runs and across processes.
func Compute(f finding.Finding) string {
	sb := bufpool.GetStringSized(len(f.Kind) + len(f.RuleID) + len(f.FilePath) + len(f.Target) + 24)
	defer bufpool.PutString(sb)
	sb.WriteString(string(f.Kind))
	sb.WriteByte('|')
	sb.WriteString(f.RuleID)
	sb.WriteByte('|')
	sb.WriteString(Target(f))
	sb.WriteByte('|')
	sb.WriteString(EvidenceSignature(f.Evidence))

	hi, lo := murmur3.Sum128([]byte(sb.String()))
	return hexutil.EncodeUint64Pair(hi, lo)
}

// Target returns the normalized target component of f's fingerprint:
// the canonical endpoint URL for dynamic findings, the cleaned file
// path otherwise. Line numbers are excluded on purpose.
func Target(f finding.Finding) string {
	if f.Target != "" {
		return NormalizeEndpoint(f.Target)
	}
	return NormalizePath(f.FilePath)
}

// EvidenceSignature hashes the normalized evidence to a 16-character
// hex token. Findings with empty evidence share the empty signature
// and are then distinguished only by rule and target.
func EvidenceSignature(evidence []string) string {
	return hexutil.EncodeUint64(murmur3.Sum64([]byte(NormalizeEvidence(evidence))))
}

// EvidenceSimhash computes the locality-sensitive hash of f's
// normalized evidence, used by near-duplicate correlation rules.
func EvidenceSimhash(f finding.Finding) uint64 {
	return Simhash(NormalizeEvidence(f.Evidence))
}
