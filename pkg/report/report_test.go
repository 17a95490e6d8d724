package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scantriage/scantriage/pkg/correlate"
	"github.com/scantriage/scantriage/pkg/finding"
)

func entry(id string, tier finding.Tier, sev finding.Severity, lc finding.Lifecycle, kinds ...finding.ScannerKind) Entry {
	g := correlate.Group{ID: id, Severity: sev, Kinds: kinds}
	for _, k := range kinds {
		g.Findings = append(g.Findings, finding.Finding{Fingerprint: id, Kind: k})
	}
	return Entry{
		Group:     g,
		Verdict:   finding.Verdict{Tier: tier, Confidence: 0.8},
		Lifecycle: lc,
	}
}

func testMeta() Meta {
	return Meta{
		RunID:        "run-1",
		Organization: "acme",
		Repository:   "billing-api",
		Policy:       "default-triage",
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildOrder(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		entry("cc", finding.TierFalsePositive, finding.High, finding.LifecycleNew, finding.KindSecret),
		entry("bb", finding.TierReportable, finding.Medium, finding.LifecycleNew, finding.KindStatic),
		entry("aa", finding.TierInvestigate, finding.Critical, finding.LifecyclePersistent, finding.KindIaC),
		entry("dd", finding.TierReportable, finding.Critical, finding.LifecycleRegressed, finding.KindDynamic),
		entry("ee", finding.TierReportable, finding.Critical, finding.LifecycleNew, finding.KindDynamic),
	}

	r := Build(testMeta(), entries, nil, nil)

	var got []string
	for _, e := range r.Entries {
		got = append(got, e.Group.ID)
	}
	// Reportable tier first; critical before medium; id breaks the tie.
	assert.Equal(t, []string{"dd", "ee", "bb", "aa", "cc"}, got)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		entry("bb", finding.TierFalsePositive, finding.Low, finding.LifecycleNew, finding.KindSecret),
		entry("aa", finding.TierReportable, finding.High, finding.LifecycleNew, finding.KindDynamic),
	}
	resolved := []string{"zz", "yy"}

	Build(testMeta(), entries, resolved, nil)

	assert.Equal(t, "bb", entries[0].Group.ID, "caller's entry order must survive")
	assert.Equal(t, []string{"zz", "yy"}, resolved)
}

func TestBuildSummary(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		entry("aa", finding.TierReportable, finding.High, finding.LifecycleNew, finding.KindDynamic, finding.KindStatic),
		entry("bb", finding.TierInvestigate, finding.Medium, finding.LifecyclePersistent, finding.KindSecret),
		entry("cc", finding.TierFalsePositive, finding.Medium, finding.LifecycleNew, finding.KindSecret),
	}
	inputs := []ScannerStatus{
		{Scanner: "nuclei", Kind: finding.KindDynamic, Status: InputOK, Findings: 1},
		{Scanner: "semgrep", Kind: finding.KindStatic, Status: InputOK, Findings: 1},
		{Scanner: "gitleaks", Kind: finding.KindSecret, Status: InputOK, Findings: 2},
		{Scanner: "checkov", Kind: finding.KindIaC, Status: InputMalformed, Detail: "unexpected EOF"},
	}

	r := Build(testMeta(), entries, []string{"dd"}, inputs)

	s := r.Summary
	assert.Equal(t, 3, s.Groups)
	assert.Equal(t, 4, s.Findings)
	assert.Equal(t, 1, s.Resolved)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, map[finding.Tier]int{
		finding.TierReportable:    1,
		finding.TierInvestigate:   1,
		finding.TierFalsePositive: 1,
	}, s.ByTier)
	assert.Equal(t, map[finding.ScannerKind]int{
		finding.KindDynamic:    1,
		finding.KindStatic: 1,
		finding.KindSecret:     2,
	}, s.ByKind)
	assert.Equal(t, map[finding.Lifecycle]int{
		finding.LifecycleNew:        2,
		finding.LifecyclePersistent: 1,
	}, s.ByLifecycle)

	assert.True(t, r.Reportable())
	if assert.Len(t, r.Degraded(), 1) {
		assert.Equal(t, "checkov", r.Degraded()[0].Scanner)
		assert.Equal(t, InputMalformed, r.Degraded()[0].Status)
	}
}

func TestBuildSortsInputsAndResolved(t *testing.T) {
	t.Parallel()

	r := Build(testMeta(), nil,
		[]string{"cc", "aa", "bb"},
		[]ScannerStatus{
			{Scanner: "tfsec", Kind: finding.KindIaC, Status: InputOK},
			{Scanner: "gitleaks", Kind: finding.KindSecret, Status: InputOK},
		})

	assert.Equal(t, []string{"aa", "bb", "cc"}, r.Resolved)
	assert.Equal(t, "gitleaks", r.Inputs[0].Scanner)
	assert.Equal(t, "tfsec", r.Inputs[1].Scanner)
	assert.False(t, r.Reportable())
}

func TestTierFilter(t *testing.T) {
	t.Parallel()

	r := Build(testMeta(), []Entry{
		entry("aa", finding.TierReportable, finding.High, finding.LifecycleNew, finding.KindDynamic),
		entry("bb", finding.TierInvestigate, finding.Medium, finding.LifecycleNew, finding.KindSecret),
		entry("cc", finding.TierReportable, finding.Low, finding.LifecycleNew, finding.KindStatic),
	}, nil, nil)

	reportable := r.Tier(finding.TierReportable)
	if assert.Len(t, reportable, 2) {
		assert.Equal(t, "aa", reportable[0].Group.ID)
		assert.Equal(t, "cc", reportable[1].Group.ID)
	}
	assert.Empty(t, r.Tier(finding.TierFalsePositive))
}
