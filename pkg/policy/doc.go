// Package policy provides the declarative rule engine that drives
// classification and cross-scanner correlation.
//
// All triage judgment lives in versioned YAML policy files rather than
// in code, so a policy change never requires redeploying the engine
// and every rule can be audited and tested on its own:
//   - Scope rules map path globs to a scope tag, a verdict tier and a
//     confidence. More specific globs win over general ones; the first
//     matching rule (in specificity order) decides.
//   - The severity map translates scanner-native labels onto the
//     canonical ordinal scale.
//   - Correlation rules declare which scanner-kind pairs merge and on
//     which matching key (endpoint, parameter, path, rule or
//     evidence-simhash).
//
// # Policy File Format
//
// Policy files are YAML documents with the following structure:
//
//	version: "1"
//	name: "production-triage"
//
//	severity_default: medium
//	min_reportable_severity: medium
//
//	severity_map:
//	  error: high        # semgrep ERROR
//	  warning: medium
//	  moderate: medium
//
//	scope_rules:
//	  - path: "**/tests/**"
//	    scope: test
//	    tier: false_positive
//	    confidence: 0.8
//	    reason: finding in test code
//
//	correlation_rules:
//	  - name: oob-confirms-injection-sink
//	    key: endpoint
//	    a: { kind: dynamic, rules: "(?i)oob|oast|interactsh" }
//	    b: { kind: static_code, rules: "(?i)command-injection|ssrf" }
//
// Two built-in guards are fixed in the classifier and intentionally
// not expressible here: unverified secret findings never exceed the
// investigate tier, and dynamic findings confirmed by an out-of-band
// callback are always at least reportable.
//
// # Validation
//
// A policy that fails validation is a fatal ConfigError: the run
// aborts before any snapshot is touched. Ambiguity counts as invalid;
// two enabled rules with the same normalized glob but different
// outcomes cannot be ordered meaningfully and are rejected at load.
//
// # Thread Safety
//
// A loaded Policy is immutable and safe for concurrent use.
package policy
