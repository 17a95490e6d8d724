package policy

import (
	"fmt"

	"github.com/scantriage/scantriage/policies"
)

// DefaultName is the embedded policy file used when no policy path is
// configured.
const DefaultName = "default.yaml"

// Default returns the embedded default policy. The embedded document
// is validated at load like any other; a broken bundle surfaces as a
// ConfigError instead of a silent fallback.
func Default() (*Policy, error) {
	data, err := policies.FS.ReadFile(DefaultName)
	if err != nil {
		return nil, fmt.Errorf("policy: reading embedded default: %w", err)
	}
	return Parse(data, "embedded:"+DefaultName)
}
