package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/regexcache"
)

// ErrPolicyNotFound is returned when a policy file does not exist.
var ErrPolicyNotFound = errors.New("policy: file not found")

// ConfigError reports an invalid policy document. It is the one fatal
// error of the pipeline: a run must not start, and no snapshot may be
// written, while the rule set itself cannot be trusted.
type ConfigError struct {
	Source   string
	Problems []string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("policy: invalid configuration: %s", strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("policy: invalid configuration in %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// MatchKey names the field two findings must share for a correlation
// rule to merge them.
type MatchKey string

const (
	// KeyEndpoint matches on the normalized endpoint URL: the dynamic
	// finding's target, or URLs appearing in evidence or metadata.
	KeyEndpoint MatchKey = "endpoint"

	// KeyParameter matches on the vulnerable parameter name.
	KeyParameter MatchKey = "parameter"

	// KeyPath matches on the normalized file path.
	KeyPath MatchKey = "path"

	// KeyRule matches on the exact rule id.
	KeyRule MatchKey = "rule"

	// KeySimhash matches near-duplicate evidence by simhash distance.
	KeySimhash MatchKey = "evidence-simhash"
)

// IsValid reports whether k is a recognized matching key.
func (k MatchKey) IsValid() bool {
	switch k {
	case KeyEndpoint, KeyParameter, KeyPath, KeyRule, KeySimhash:
		return true
	}
	return false
}

// Policy is a parsed, validated rule set. Scope rules are held in
// evaluation order: most specific first, file order within ties.
type Policy struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`

	// SeverityMap translates scanner-native labels (matched
	// case-insensitively) onto the canonical scale.
	SeverityMap map[string]finding.Severity `yaml:"severity_map"`

	// SeverityDefault applies when a label has no mapping.
	SeverityDefault finding.Severity `yaml:"severity_default"`

	// MinReportableSeverity caps groups below this severity at the
	// investigate tier. An out-of-band callback overrides the cap.
	MinReportableSeverity finding.Severity `yaml:"min_reportable_severity"`

	ScopeRules       []ScopeRule       `yaml:"scope_rules"`
	CorrelationRules []CorrelationRule `yaml:"correlation_rules"`
}

// ScopeRule maps a path glob to a scope tag and a verdict outcome.
type ScopeRule struct {
	// Path is a gitignore-style glob matched against clean,
	// slash-separated repository-relative paths.
	Path string `yaml:"path"`

	Scope      finding.Scope `yaml:"scope"`
	Tier       finding.Tier  `yaml:"tier"`
	Confidence float64       `yaml:"confidence"`
	Reason     string        `yaml:"reason"`

	// Kinds restricts the rule to specific scanner kinds. Empty means
	// the rule applies to every kind.
	Kinds []finding.ScannerKind `yaml:"kinds,omitempty"`

	Disabled bool `yaml:"disabled,omitempty"`

	// order is the position in the source file, the tie-break within
	// equal specificity.
	order int
}

// Specificity scores how precisely the rule's glob pins down a path:
// the number of non-wildcard segments, then the literal length. Used
// to sort rules most-specific-first so "vendor/creds/**" beats
// "vendor/**" no matter where each appears in the file.
func (r ScopeRule) Specificity() (segments, literal int) {
	for _, seg := range strings.Split(r.Path, "/") {
		if seg == "" {
			continue
		}
		if !strings.ContainsAny(seg, "*?") {
			segments++
		}
	}
	for _, c := range r.Path {
		if c != '*' && c != '?' {
			literal++
		}
	}
	return segments, literal
}

// RuleSide is one half of a correlation rule: a scanner kind plus an
// optional rule-id regexp.
type RuleSide struct {
	Kind finding.ScannerKind `yaml:"kind"`

	// Rules is a regexp matched against the finding's rule id. Empty
	// matches every rule of the kind.
	Rules string `yaml:"rules,omitempty"`
}

// Matches reports whether f belongs to this side of the rule.
func (s RuleSide) Matches(f finding.Finding) bool {
	if f.Kind != s.Kind {
		return false
	}
	if s.Rules == "" {
		return true
	}
	re, err := regexcache.Get(s.Rules)
	if err != nil {
		return false
	}
	return re.MatchString(f.RuleID)
}

// CorrelationRule declares that findings matching side A merge with
// findings matching side B when they share the rule's matching key.
// Correlation is symmetric and, within one run, transitive.
type CorrelationRule struct {
	Name string   `yaml:"name"`
	Key  MatchKey `yaml:"key"`
	A    RuleSide `yaml:"a"`
	B    RuleSide `yaml:"b"`

	// MaxDistance bounds the Hamming distance for evidence-simhash
	// rules. Ignored for the other keys.
	MaxDistance int `yaml:"max_distance,omitempty"`
}

// Load reads and validates a policy file.
// Returns ErrPolicyNotFound if the file does not exist and a
// *ConfigError if the document is invalid.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, fmt.Errorf("policy: reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses and validates policy YAML. The source name appears in
// error messages only.
func Parse(data []byte, source string) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &ConfigError{Source: source, Problems: []string{err.Error()}}
	}

	if p.Version == "" {
		p.Version = "1"
	}
	if p.SeverityDefault == "" {
		p.SeverityDefault = finding.Medium
	}
	if p.MinReportableSeverity == "" {
		p.MinReportableSeverity = finding.Info
	}
	for i := range p.CorrelationRules {
		if p.CorrelationRules[i].Key == KeySimhash && p.CorrelationRules[i].MaxDistance == 0 {
			p.CorrelationRules[i].MaxDistance = defaults.SimhashMaxDistance
		}
	}
	for i := range p.ScopeRules {
		p.ScopeRules[i].order = i
	}

	if problems := p.validate(); len(problems) > 0 {
		return nil, &ConfigError{Source: source, Problems: problems}
	}

	p.sortScopeRules()
	return &p, nil
}

// validate collects every problem instead of stopping at the first,
// so one load surfaces the whole damage.
func (p *Policy) validate() []string {
	var problems []string

	if !p.SeverityDefault.IsValid() {
		problems = append(problems, fmt.Sprintf("severity_default: unknown severity %q", p.SeverityDefault))
	}
	if !p.MinReportableSeverity.IsValid() {
		problems = append(problems, fmt.Sprintf("min_reportable_severity: unknown severity %q", p.MinReportableSeverity))
	}
	for label, sev := range p.SeverityMap {
		if !sev.IsValid() {
			problems = append(problems, fmt.Sprintf("severity_map[%s]: unknown severity %q", label, sev))
		}
	}

	seen := map[string]*ScopeRule{}
	for i := range p.ScopeRules {
		r := &p.ScopeRules[i]
		prefix := fmt.Sprintf("scope_rules[%d] (%s)", i, r.Path)
		if r.Path == "" {
			problems = append(problems, prefix+": empty path glob")
			continue
		}
		if _, err := regexcache.GetGlob(r.Path); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid glob: %v", prefix, err))
		}
		if !r.Scope.IsValid() {
			problems = append(problems, fmt.Sprintf("%s: unknown scope %q", prefix, r.Scope))
		}
		if !r.Tier.IsValid() {
			problems = append(problems, fmt.Sprintf("%s: unknown tier %q", prefix, r.Tier))
		}
		if r.Confidence < defaults.ConfidenceFloor || r.Confidence > defaults.ConfidenceCeiling {
			problems = append(problems, fmt.Sprintf("%s: confidence %.2f outside [0,1]", prefix, r.Confidence))
		}
		for _, k := range r.Kinds {
			if !k.IsValid() {
				problems = append(problems, fmt.Sprintf("%s: unknown scanner kind %q", prefix, k))
			}
		}
		if r.Disabled {
			continue
		}
		// Two enabled rules with the same normalized glob but a
		// different outcome cannot be ordered by specificity; that
		// ambiguity is fatal rather than silently first-wins.
		key := normalizeGlob(r.Path)
		if prev, ok := seen[key]; ok {
			if prev.Scope != r.Scope || prev.Tier != r.Tier {
				problems = append(problems, fmt.Sprintf(
					"%s: conflicts with rule for %q: same pattern, different outcome", prefix, prev.Path))
			}
		} else {
			seen[key] = r
		}
	}

	names := map[string]bool{}
	for i, r := range p.CorrelationRules {
		prefix := fmt.Sprintf("correlation_rules[%d]", i)
		if r.Name == "" {
			problems = append(problems, prefix+": missing name")
		} else if names[r.Name] {
			problems = append(problems, fmt.Sprintf("%s: duplicate name %q", prefix, r.Name))
		}
		names[r.Name] = true
		if !r.Key.IsValid() {
			problems = append(problems, fmt.Sprintf("%s: unknown matching key %q", prefix, r.Key))
		}
		for side, s := range map[string]RuleSide{"a": r.A, "b": r.B} {
			if !s.Kind.IsValid() {
				problems = append(problems, fmt.Sprintf("%s.%s: unknown scanner kind %q", prefix, side, s.Kind))
			}
			if s.Rules != "" {
				if _, err := regexcache.Get(s.Rules); err != nil {
					problems = append(problems, fmt.Sprintf("%s.%s: invalid rules regexp: %v", prefix, side, err))
				}
			}
		}
		if r.MaxDistance < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative max_distance", prefix))
		}
	}

	return problems
}

// sortScopeRules orders rules most-specific-first. The sort is stable
// on file order so equal-specificity rules keep their authored order.
func (p *Policy) sortScopeRules() {
	sort.SliceStable(p.ScopeRules, func(i, j int) bool {
		si, li := p.ScopeRules[i].Specificity()
		sj, lj := p.ScopeRules[j].Specificity()
		if si != sj {
			return si > sj
		}
		if li != lj {
			return li > lj
		}
		return p.ScopeRules[i].order < p.ScopeRules[j].order
	})
}

// MatchScope returns the first scope rule (in specificity order)
// matching the given path and scanner kind.
func (p *Policy) MatchScope(path string, kind finding.ScannerKind) (ScopeRule, bool) {
	if path == "" {
		return ScopeRule{}, false
	}
	for _, r := range p.ScopeRules {
		if r.Disabled {
			continue
		}
		if len(r.Kinds) > 0 && !containsKind(r.Kinds, kind) {
			continue
		}
		re, err := regexcache.GetGlob(r.Path)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return r, true
		}
	}
	return ScopeRule{}, false
}

// MapSeverity translates a scanner-native severity label onto the
// canonical scale. Lookup is case-insensitive; canonical values map to
// themselves even without an entry; anything else gets the default.
func (p *Policy) MapSeverity(raw string) finding.Severity {
	label := strings.ToLower(strings.TrimSpace(raw))
	if sev, ok := p.SeverityMap[label]; ok {
		return sev
	}
	if sev := finding.Severity(label); sev.IsValid() {
		return sev
	}
	return p.SeverityDefault
}

// normalizeGlob canonicalizes a glob for the ambiguity check, so
// "./vendor/**" and "vendor/**" count as the same pattern.
func normalizeGlob(g string) string {
	g = strings.TrimPrefix(g, "./")
	return strings.TrimSuffix(g, "/")
}

func containsKind(kinds []finding.ScannerKind, k finding.ScannerKind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}
