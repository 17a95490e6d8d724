package events

// StartEvent is emitted when a triage run begins.
// It contains the repository identity and run configuration
// that will be used throughout the run.
type StartEvent struct {
	BaseEvent
	Organization string    `json:"organization,omitempty"`
	Repository   string    `json:"repository"`
	Policy       string    `json:"policy"`
	Documents    int       `json:"documents"`
	Config       RunConfig `json:"config"`
}

// RunConfig contains the triage run configuration settings.
type RunConfig struct {
	ResultsRoot  string `json:"results_root"`
	SnapshotRoot string `json:"snapshot_root,omitempty"`
	Workers      int    `json:"workers"`
	DryRun       bool   `json:"dry_run"`
}
