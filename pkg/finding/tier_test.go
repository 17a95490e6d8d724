package finding

import (
	"sort"
	"testing"
)

func TestTierIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier Tier
		want bool
	}{
		{TierReportable, true},
		{TierInvestigate, true},
		{TierFalsePositive, true},
		{"falsepositive", false}, // wire value uses underscore
		{"Reportable", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			t.Parallel()
			if got := tt.tier.IsValid(); got != tt.want {
				t.Errorf("Tier(%q).IsValid() = %v, want %v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestTierRankOrder(t *testing.T) {
	t.Parallel()

	input := []Tier{TierFalsePositive, TierReportable, TierInvestigate}
	sort.Slice(input, func(i, j int) bool {
		return input[i].Rank() > input[j].Rank()
	})
	for i, tier := range Tiers {
		if input[i] != tier {
			t.Errorf("pos %d: got %s, want %s", i, input[i], tier)
		}
	}
}

func TestLifecycleIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		l    Lifecycle
		want bool
	}{
		{LifecycleNew, true},
		{LifecyclePersistent, true},
		{LifecycleResolved, true},
		{LifecycleRegressed, true},
		{"fixed", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.l), func(t *testing.T) {
			t.Parallel()
			if got := tt.l.IsValid(); got != tt.want {
				t.Errorf("Lifecycle(%q).IsValid() = %v, want %v", tt.l, got, tt.want)
			}
		})
	}
}

func TestScopeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    Scope
		want bool
	}{
		{ScopeProduction, true},
		{ScopeTest, true},
		{ScopeVendored, true},
		{ScopeCI, true},
		{ScopeDev, true},
		{"dev", false}, // wire value is dev-environment
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			t.Parallel()
			if got := tt.s.IsValid(); got != tt.want {
				t.Errorf("Scope(%q).IsValid() = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}
