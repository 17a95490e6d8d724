package events

// ErrorEvent is emitted when an error occurs during a triage run.
// It can represent both recoverable and fatal errors.
type ErrorEvent struct {
	BaseEvent
	Scanner string `json:"scanner,omitempty"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
