// Package correlate collapses one run's findings into correlated
// groups. Exact fingerprint duplicates always merge; declarative
// cross-scanner rules merge findings that share the rule's matching
// key. Merging is symmetric and transitive within a run, implemented
// as a union-find over arena indices, and the resulting partition
// never depends on input order.
package correlate

import (
	"sort"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/fingerprint"
	"github.com/scantriage/scantriage/pkg/policy"
)

// ReasonExactFingerprint marks constituents merged because they carry
// the same fingerprint; rule-driven merges carry the rule name instead.
const ReasonExactFingerprint = "exact_fingerprint"

// Group is one correlated finding: every constituent judged to be the
// same underlying issue, with aggregates the classifier and report
// read. Groups live for one run only; snapshots persist their
// fingerprint sets, never the groups themselves.
type Group struct {
	// ID is the smallest constituent fingerprint, stable across runs
	// and input orderings.
	ID string `json:"id"`

	// Findings holds the constituents in fingerprint-sorted order.
	Findings []finding.Finding `json:"findings"`

	// Fingerprints is the sorted set of distinct constituent
	// fingerprints.
	Fingerprints []string `json:"fingerprints"`

	Kinds    []finding.ScannerKind `json:"scanner_kinds"`
	Scanners []string              `json:"scanners,omitempty"`

	// Severity is the maximum constituent severity on the canonical
	// scale.
	Severity finding.Severity `json:"severity"`

	// Reasons names why constituents merged: exact_fingerprint first,
	// then correlation rule names in policy order. Empty for a group
	// of one.
	Reasons []string `json:"correlation_reasons,omitempty"`

	// OOB and Verified lift the strongest constituent flags.
	OOB      bool `json:"oob,omitempty"`
	Verified bool `json:"verified,omitempty"`
}

// Primary returns the group's representative finding, the first
// constituent in deterministic order.
func (g Group) Primary() finding.Finding {
	if len(g.Findings) == 0 {
		return finding.Finding{}
	}
	return g.Findings[0]
}

// PrimaryPath returns the first constituent file path, "" for purely
// network groups.
func (g Group) PrimaryPath() string {
	for _, f := range g.Findings {
		if f.FilePath != "" {
			return f.FilePath
		}
	}
	return ""
}

// HasKind reports whether any constituent came from the given scanner
// kind.
func (g Group) HasKind(k finding.ScannerKind) bool {
	for _, kk := range g.Kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// Partition groups the run's findings. Findings must carry
// fingerprints. The partition is pure: same findings and policy give
// the same groups, in ascending ID order, whatever the input order.
func Partition(findings []finding.Finding, pol *policy.Policy) []Group {
	if len(findings) == 0 {
		return nil
	}

	sorted := make([]finding.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	a := newArena(len(sorted))
	var events []unionEvent

	// Exact fingerprint duplicates always merge. The slice is
	// fingerprint-sorted, so duplicates are adjacent.
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Fingerprint == sorted[i-1].Fingerprint {
			if a.union(i-1, i) {
				events = append(events, unionEvent{i, ReasonExactFingerprint})
			}
		}
	}

	for _, rule := range pol.CorrelationRules {
		applyRule(a, sorted, rule, &events)
	}

	// Attach each merge reason to its final root. Roots move while
	// unions run, so this resolves only after all of them.
	reasonsByRoot := map[int]map[string]bool{}
	for _, ev := range events {
		root := a.find(ev.idx)
		set := reasonsByRoot[root]
		if set == nil {
			set = map[string]bool{}
			reasonsByRoot[root] = set
		}
		set[ev.reason] = true
	}

	members := map[int][]int{}
	var roots []int
	for i := range sorted {
		r := a.find(i)
		if _, ok := members[r]; !ok {
			roots = append(roots, r)
		}
		members[r] = append(members[r], i)
	}

	groups := make([]Group, 0, len(roots))
	for _, r := range roots {
		groups = append(groups, buildGroup(sorted, members[r], reasonsByRoot[r], pol))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

type unionEvent struct {
	idx    int
	reason string
}

func applyRule(a *arena, findings []finding.Finding, rule policy.CorrelationRule, events *[]unionEvent) {
	var aIdx, bIdx []int
	for i, f := range findings {
		if rule.A.Matches(f) {
			aIdx = append(aIdx, i)
		}
		if rule.B.Matches(f) {
			bIdx = append(bIdx, i)
		}
	}
	if len(aIdx) == 0 || len(bIdx) == 0 {
		return
	}

	if rule.Key == policy.KeySimhash {
		unionBySimhash(a, findings, rule, aIdx, bIdx, events)
		return
	}

	keysOf := keyFunc(rule.Key)
	carriers := map[string][]int{}
	aHas := map[string]bool{}
	bHas := map[string]bool{}
	for _, i := range aIdx {
		for _, k := range keysOf(findings[i]) {
			carriers[k] = append(carriers[k], i)
			aHas[k] = true
		}
	}
	for _, i := range bIdx {
		for _, k := range keysOf(findings[i]) {
			carriers[k] = append(carriers[k], i)
			bHas[k] = true
		}
	}

	// A key value merges its carriers only when both sides of the
	// rule contributed at least one.
	for k, idxs := range carriers {
		if !aHas[k] || !bHas[k] {
			continue
		}
		for _, i := range idxs[1:] {
			if a.union(idxs[0], i) {
				*events = append(*events, unionEvent{i, rule.Name})
			}
		}
	}
}

// unionBySimhash merges near-duplicate evidence across the rule's two
// sides, bounded by the rule's Hamming distance. Findings whose
// normalized evidence is empty hash to zero and are excluded, so two
// unrelated evidence-free findings never collide.
func unionBySimhash(a *arena, findings []finding.Finding, rule policy.CorrelationRule, aIdx, bIdx []int, events *[]unionEvent) {
	hashes := make(map[int]uint64, len(aIdx)+len(bIdx))
	hashAt := func(i int) uint64 {
		h, ok := hashes[i]
		if !ok {
			h = fingerprint.EvidenceSimhash(findings[i])
			hashes[i] = h
		}
		return h
	}

	for _, i := range aIdx {
		hi := hashAt(i)
		if hi == 0 {
			continue
		}
		for _, j := range bIdx {
			if i == j {
				continue
			}
			hj := hashAt(j)
			if hj == 0 {
				continue
			}
			if fingerprint.HammingDistance(hi, hj) <= rule.MaxDistance {
				if a.union(i, j) {
					*events = append(*events, unionEvent{i, rule.Name})
				}
			}
		}
	}
}

func buildGroup(findings []finding.Finding, idxs []int, reasons map[string]bool, pol *policy.Policy) Group {
	g := Group{Findings: make([]finding.Finding, 0, len(idxs))}
	kinds := map[finding.ScannerKind]bool{}
	scanners := map[string]bool{}
	fps := map[string]bool{}
	var severity finding.Severity

	for _, i := range idxs {
		f := findings[i]
		g.Findings = append(g.Findings, f)
		kinds[f.Kind] = true
		if f.Scanner != "" {
			scanners[f.Scanner] = true
		}
		fps[f.Fingerprint] = true
		severity = finding.Max(severity, pol.MapSeverity(f.RawSeverity))
		g.OOB = g.OOB || f.OOB
		g.Verified = g.Verified || f.Verified
	}

	g.Fingerprints = sortedKeys(fps)
	g.ID = g.Fingerprints[0]
	g.Severity = severity
	g.Scanners = sortedKeys(scanners)
	g.Kinds = make([]finding.ScannerKind, 0, len(kinds))
	for k := range kinds {
		g.Kinds = append(g.Kinds, k)
	}
	sort.Slice(g.Kinds, func(i, j int) bool { return g.Kinds[i] < g.Kinds[j] })
	g.Reasons = orderReasons(reasons, pol)
	return g
}

// orderReasons renders a reason set in stable order: the exact match
// first, then rule names as the policy declares them.
func orderReasons(set map[string]bool, pol *policy.Policy) []string {
	if len(set) == 0 {
		return nil
	}
	var reasons []string
	if set[ReasonExactFingerprint] {
		reasons = append(reasons, ReasonExactFingerprint)
	}
	for _, rule := range pol.CorrelationRules {
		if set[rule.Name] {
			reasons = append(reasons, rule.Name)
		}
	}
	return reasons
}

// less orders findings for deterministic processing: fingerprint
// first, then enough fields to pin fully identical records.
func less(a, b finding.Finding) bool {
	if a.Fingerprint != b.Fingerprint {
		return a.Fingerprint < b.Fingerprint
	}
	if a.Scanner != b.Scanner {
		return a.Scanner < b.Scanner
	}
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.StartLine < b.StartLine
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
