// Package policies embeds the bundled triage policy files for
// distribution.
//
// This ensures a usable default policy is available regardless of
// installation method (Homebrew, Docker, or manual download). The
// policy loader falls back to the embedded default when no policy file
// is given on the command line.
//
// Usage:
//
//	data, _ := policies.FS.ReadFile("default.yaml")
package policies

import "embed"

// FS contains the bundled policy YAML files. Each file is a complete,
// versioned rule set: scope rules, severity mapping and correlation
// rules.
//
//go:embed *.yaml
var FS embed.FS
