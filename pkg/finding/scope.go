package finding

// Scope classifies where in a repository a finding's target lives.
// It is derived by the classifier from path policy, never by the
// scanner itself.
type Scope string

const (
	// ScopeProduction is shipped source, the default when no path
	// rule matches.
	ScopeProduction Scope = "production"

	// ScopeTest covers test code and fixtures.
	ScopeTest Scope = "test"

	// ScopeVendored covers vendored or third-party dependencies.
	ScopeVendored Scope = "vendored"

	// ScopeCI covers CI and build pipeline configuration.
	ScopeCI Scope = "ci"

	// ScopeDev covers development-environment files (devcontainers,
	// local compose files, example configs).
	ScopeDev Scope = "dev-environment"
)

// IsValid reports whether s is a recognized scope tag.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeProduction, ScopeTest, ScopeVendored, ScopeCI, ScopeDev:
		return true
	}
	return false
}

// String returns the scope tag as a string.
func (s Scope) String() string {
	return string(s)
}
