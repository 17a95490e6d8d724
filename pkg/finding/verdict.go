package finding

// Verdict is the classifier's decision for one correlated finding:
// a reportability tier, a human-readable reason naming the rule that
// fired, a confidence in [0,1] and the derived scope tag.
//
// Verdicts are produced once per run from pure inputs and are not
// persisted independently of the report.
type Verdict struct {
	Tier       Tier    `json:"tier"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Scope      Scope   `json:"scope_context"`
}
