package correlate

import (
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/fingerprint"
	"github.com/scantriage/scantriage/pkg/policy"
	"github.com/scantriage/scantriage/pkg/regexcache"
)

var urlPattern = regexcache.MustGet(`https?://[^\s"'<>)\]}]+`)

// keyFunc returns the extractor for a rule's matching key. The
// simhash key has no extractor; it compares hashes pairwise instead.
func keyFunc(key policy.MatchKey) func(finding.Finding) []string {
	switch key {
	case policy.KeyEndpoint:
		return endpointKeys
	case policy.KeyParameter:
		return parameterKeys
	case policy.KeyPath:
		return pathKeys
	case policy.KeyRule:
		return ruleKeys
	}
	return func(finding.Finding) []string { return nil }
}

// endpointKeys returns every normalized endpoint a finding is tied
// to: the dynamic target, an endpoint recorded by rule metadata, and
// URLs quoted in evidence. File-based findings gain endpoint keys
// this way, which is how a static injection sink meets the dynamic
// probe that confirmed it.
func endpointKeys(f finding.Finding) []string {
	var keys []string
	if f.Target != "" {
		keys = append(keys, fingerprint.NormalizeEndpoint(f.Target))
	}
	if v := f.Metadata["endpoint"]; v != "" {
		keys = append(keys, fingerprint.NormalizeEndpoint(v))
	}
	for _, ev := range f.Evidence {
		for _, u := range urlPattern.FindAllString(ev, -1) {
			keys = append(keys, fingerprint.NormalizeEndpoint(u))
		}
	}
	return dedup(keys)
}

func parameterKeys(f finding.Finding) []string {
	if f.Parameter != "" {
		return []string{f.Parameter}
	}
	if v := f.Metadata["parameter"]; v != "" {
		return []string{v}
	}
	return nil
}

func pathKeys(f finding.Finding) []string {
	if p := fingerprint.NormalizePath(f.FilePath); p != "" {
		return []string{p}
	}
	return nil
}

func ruleKeys(f finding.Finding) []string {
	if f.RuleID == "" {
		return nil
	}
	return []string{f.RuleID}
}

func dedup(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
