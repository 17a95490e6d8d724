package finding

// Tier is the classifier's reportability verdict for a correlated
// finding. Reports group entries by tier, reportable first.
type Tier string

const (
	// TierReportable means the finding is worth submitting to a program.
	TierReportable Tier = "reportable"

	// TierInvestigate means a human needs to look before deciding.
	TierInvestigate Tier = "investigate"

	// TierFalsePositive means policy judged the finding noise.
	TierFalsePositive Tier = "false_positive"
)

// Tiers lists all tiers in report presentation order.
var Tiers = []Tier{TierReportable, TierInvestigate, TierFalsePositive}

// IsValid reports whether t is a recognized tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierReportable, TierInvestigate, TierFalsePositive:
		return true
	}
	return false
}

// Rank returns a numeric rank for sorting. Reportable=3,
// Investigate=2, FalsePositive=1, Unknown=0.
func (t Tier) Rank() int {
	switch t {
	case TierReportable:
		return 3
	case TierInvestigate:
		return 2
	case TierFalsePositive:
		return 1
	default:
		return 0
	}
}

// String returns the tier as a string.
func (t Tier) String() string {
	return string(t)
}
