// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate run outcomes to automation pipelines.
//
// Exit codes:
//   - 0: Success (no reportable findings)
//   - 1: Reportable findings present (configurable)
//   - 2: Degraded inputs (scanner documents missing or malformed)
//   - 3: Invalid configuration
//   - 4: Snapshot error
//   - 5: Run interrupted
package exitcode

import (
	"fmt"
	"sync"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/report"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the run completed with no reportable findings.
	Success Code = 0
	// Reportable indicates one or more groups classified as reportable.
	Reportable Code = 1
	// Degraded indicates scanner documents were missing or malformed.
	Degraded Code = 2
	// Configuration indicates invalid configuration was provided.
	Configuration Code = 3
	// Snapshot indicates the run snapshot could not be read or written.
	Snapshot Code = 4
	// Interrupted indicates the run was interrupted (e.g., SIGINT).
	Interrupted Code = 5
)

// codeStrings maps exit codes to short machine-readable names.
var codeStrings = map[Code]string{
	Success:       "success",
	Reportable:    "reportable_findings",
	Degraded:      "degraded_inputs",
	Configuration: "invalid_configuration",
	Snapshot:      "snapshot_error",
	Interrupted:   "interrupted",
}

// codeDescriptions provides detailed descriptions for exit codes.
var codeDescriptions = map[Code]string{
	Success:       "Run completed with no reportable findings",
	Reportable:    "One or more finding groups are reportable",
	Degraded:      "One or more scanner documents were missing or malformed",
	Configuration: "Invalid configuration provided",
	Snapshot:      "Run snapshot could not be read or written",
	Interrupted:   "Run was interrupted by user or signal",
}

// Config holds configuration for the exit code manager.
type Config struct {
	// ReportableCode is the exit code to return when reportable
	// groups are present. Default: 1
	ReportableCode int

	// FailOnDegraded determines whether degraded inputs produce a
	// failing exit code when nothing is reportable.
	FailOnDegraded bool
}

// DefaultConfig returns the default exit code configuration.
func DefaultConfig() Config {
	return Config{
		ReportableCode: 1,
		FailOnDegraded: true,
	}
}

// Manager tracks run outcomes and determines the appropriate exit code.
type Manager struct {
	cfg        Config
	reportable int
	degraded   int
	mu         sync.Mutex

	// Special state flags
	configError   bool
	snapshotError bool
	interrupted   bool
}

// New creates a new exit code manager with the given configuration.
func New(cfg Config) *Manager {
	// Apply defaults for zero values
	if cfg.ReportableCode == 0 {
		cfg.ReportableCode = 1
	}

	return &Manager{
		cfg: cfg,
	}
}

// Record folds a report summary into the manager: the count of
// reportable groups and the count of degraded scanner documents.
func (m *Manager) Record(s report.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportable += s.ByTier[finding.TierReportable]
	m.degraded += s.Degraded
}

// RecordReportable increments the reportable group counter.
func (m *Manager) RecordReportable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportable++
}

// RecordDegraded increments the degraded input counter.
func (m *Manager) RecordDegraded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded++
}

// SetConfigError marks that a configuration error occurred.
func (m *Manager) SetConfigError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configError = true
}

// SetSnapshotError marks that the snapshot could not be read or written.
func (m *Manager) SetSnapshotError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotError = true
}

// SetInterrupted marks that the run was interrupted.
func (m *Manager) SetInterrupted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupted = true
}

// ExitCode returns the appropriate exit code based on recorded outcomes.
// The returned string provides a human-readable reason for the code.
//
// Priority order (highest to lowest):
//  1. Interrupted
//  2. Configuration error
//  3. Snapshot error
//  4. Reportable findings
//  5. Degraded inputs (if FailOnDegraded enabled)
//  6. Success
//
// Reportable findings outrank degraded inputs: a report with confirmed
// findings is actionable even when some scanners did not contribute.
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interrupted {
		return Interrupted, codeDescriptions[Interrupted]
	}

	if m.configError {
		return Configuration, codeDescriptions[Configuration]
	}

	if m.snapshotError {
		return Snapshot, codeDescriptions[Snapshot]
	}

	if m.reportable > 0 {
		return Code(m.cfg.ReportableCode), fmt.Sprintf("%s (count: %d)",
			codeDescriptions[Reportable], m.reportable)
	}

	if m.cfg.FailOnDegraded && m.degraded > 0 {
		return Degraded, fmt.Sprintf("%s (count: %d)",
			codeDescriptions[Degraded], m.degraded)
	}

	return Success, codeDescriptions[Success]
}

// Stats returns the current reportable and degraded counts.
func (m *Manager) Stats() (reportable, degraded int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportable, m.degraded
}

// Reset clears all recorded outcomes and state flags.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportable = 0
	m.degraded = 0
	m.configError = false
	m.snapshotError = false
	m.interrupted = false
}

// CodeString returns the short machine-readable name of an exit code.
func CodeString(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", code)
}

// CodeDescription returns a detailed description of an exit code.
func CodeDescription(code Code) string {
	if s, ok := codeDescriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown exit code: %d", code)
}
