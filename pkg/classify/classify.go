// Package classify turns correlated groups into verdicts by applying
// scope policy. Classification is pure: the same group, policy and
// verification flags always produce the same verdict, so a re-review
// months later reproduces the original triage decision exactly.
package classify

import (
	"fmt"

	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/policy"
)

// Classifier evaluates groups against one policy. It holds no state
// beyond the policy and is safe for concurrent use.
type Classifier struct {
	pol *policy.Policy
}

// New returns a classifier for the given policy.
func New(pol *policy.Policy) *Classifier {
	return &Classifier{pol: pol}
}

// Classify computes the verdict for one group.
//
// The scope rule matching the group's file path decides the baseline
// tier, confidence and scope; with no match the group lands at
// investigate with fallback confidence. Two caps then apply: groups
// below the policy's reportable severity floor and secret findings
// without live verification both stop at investigate. An out-of-band
// interaction overrides everything and forces reportable, because a
// callback the scanner observed is ground truth, not heuristic.
func (c *Classifier) Classify(g correlate.Group) finding.Verdict {
	v := finding.Verdict{
		Tier:       finding.TierInvestigate,
		Reason:     "no scope rule matched",
		Confidence: defaults.ConfidenceFallback,
		Scope:      finding.ScopeProduction,
	}
	if path, kind, ok := primaryLocation(g); ok {
		if rule, ok := c.pol.MatchScope(path, kind); ok {
			v = finding.Verdict{
				Tier:       rule.Tier,
				Reason:     rule.Reason,
				Confidence: rule.Confidence,
				Scope:      rule.Scope,
			}
		}
	}

	if v.Tier == finding.TierReportable && g.Severity.Score() < c.pol.MinReportableSeverity.Score() {
		v.Tier = finding.TierInvestigate
		v.Reason = fmt.Sprintf("severity %s below reportable floor %s", g.Severity, c.pol.MinReportableSeverity)
	}

	if v.Tier == finding.TierReportable && g.HasKind(finding.KindSecret) && !g.Verified {
		v.Tier = finding.TierInvestigate
		v.Reason = "secret not verified against a live service"
	}

	if g.OOB {
		if v.Tier != finding.TierReportable {
			v.Tier = finding.TierReportable
			v.Reason = "out-of-band interaction confirms reachability"
		}
		v.Confidence = defaults.ConfidenceCeiling
	}
	return v
}

// primaryLocation picks the path the scope rules are evaluated
// against: the first constituent with a file path, together with its
// scanner kind so kind-restricted rules see the right pairing.
func primaryLocation(g correlate.Group) (string, finding.ScannerKind, bool) {
	for _, f := range g.Findings {
		if f.FilePath != "" {
			return f.FilePath, f.Kind, true
		}
	}
	return "", "", false
}
