// Package events defines the event types for scantriage output.
// All events are designed for JSON serialization and CI/CD integration.
//
// This package provides the foundational types that all other event types
// will embed. The BaseEvent struct is designed to be embedded in specific
// event types (DocumentEvent, GroupEvent, etc.).
package events

import (
	"time"
)

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a triage run has started.
	EventTypeStart EventType = "start"
	// EventTypeDocument indicates a scanner document was processed.
	EventTypeDocument EventType = "document"
	// EventTypeGroup indicates a correlated finding group was triaged.
	EventTypeGroup EventType = "group"
	// EventTypeError indicates an error occurred.
	EventTypeError EventType = "error"
	// EventTypeSummary indicates a summary of the run.
	EventTypeSummary EventType = "summary"
	// EventTypeComplete indicates a triage run has completed.
	EventTypeComplete EventType = "complete"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
// It is designed to be embedded in specific event types.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the unique identifier for the run that produced this event.
func (e BaseEvent) RunID() string { return e.Run }
