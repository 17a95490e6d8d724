// Package dispatcher provides the central event routing for output.
// It receives events from the triage engine and routes them to registered
// writers and hooks. Writers handle file output (JSON, SARIF, etc.), while
// hooks handle real-time integrations (webhooks, metrics, tracing).
//
// The dispatcher is the central hub that all run output flows through,
// decoupling event generation from event consumption.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/scantriage/scantriage/pkg/output/events"
)

// Writer is the interface for all output writers.
// Writers are responsible for persisting events to various output formats
// such as JSON, SARIF, CSV, or console output.
type Writer interface {
	// Write writes an event to the output.
	Write(event events.Event) error

	// Flush ensures all buffered events are written.
	Flush() error

	// Close closes the writer and releases any resources.
	Close() error

	// SupportsEvent returns true if the writer handles this event type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook is the interface for event hooks.
// Hooks are used for real-time integrations such as webhooks,
// Prometheus metrics, or OpenTelemetry traces.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the event types this hook handles.
	// Return nil or empty slice to receive all events.
	EventTypes() []events.EventType
}

// Dispatcher routes events to writers and hooks.
// It is safe for concurrent use.
type Dispatcher struct {
	writers []Writer
	hooks   []Hook
	mu      sync.RWMutex

	async  bool
	log    *slog.Logger
	hookWg sync.WaitGroup
	closed atomic.Bool
}

// Config configures the dispatcher behavior.
type Config struct {
	// Async enables asynchronous hook processing.
	// When true, hooks are called in goroutines and Close waits for
	// any still in flight.
	Async bool

	// Logger receives writer and hook failures. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// New creates a new event dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		writers: make([]Writer, 0),
		hooks:   make([]Hook, 0),
		async:   cfg.Async,
		log:     log,
	}
}

// RegisterWriter adds a writer to the dispatcher.
// Writers will receive events that match their SupportsEvent filter.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the dispatcher.
// Hooks will receive events that match their EventTypes filter.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch sends an event to all registered writers and hooks.
// It returns nil even if individual writers or hooks fail, to ensure
// all consumers have a chance to receive the event. Failures are
// logged. Events dispatched after Close are silently dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	if d.closed.Load() {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	// Re-check under the read lock. Close sets the flag while holding
	// the write lock, so a dispatch that gets past here is fully
	// before or fully after Close, never interleaved with it.
	if d.closed.Load() {
		return nil
	}

	for _, w := range d.writers {
		if w.SupportsEvent(event.EventType()) {
			if err := w.Write(event); err != nil {
				d.log.Warn("output writer failed", "event", event.EventType(), "error", err)
			}
		}
	}

	for _, h := range d.hooks {
		if !d.hookSupportsEvent(h, event.EventType()) {
			continue
		}
		if d.async {
			d.hookWg.Add(1)
			go func(hook Hook) {
				defer d.hookWg.Done()
				if err := hook.OnEvent(ctx, event); err != nil {
					d.log.Warn("output hook failed", "event", event.EventType(), "error", err)
				}
			}(h)
		} else if err := h.OnEvent(ctx, event); err != nil {
			d.log.Warn("output hook failed", "event", event.EventType(), "error", err)
		}
	}

	return nil
}

// hookSupportsEvent checks if a hook handles the given event type.
func (d *Dispatcher) hookSupportsEvent(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	// Empty slice means hook receives all events
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == eventType {
			return true
		}
	}
	return false
}

// Flush flushes all registered writers.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			d.log.Warn("output writer flush failed", "error", err)
		}
	}

	return nil
}

// Close waits for in-flight async hooks, then flushes and closes all
// writers. After Close is called, further events are dropped.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return nil
	}
	d.closed.Store(true)

	// Holding the write lock means no Dispatch is mid-flight, so every
	// outstanding hook is already in the wait group. Hooks never touch
	// dispatcher locks, so waiting here cannot deadlock.
	d.hookWg.Wait()

	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			d.log.Warn("output writer flush failed", "error", err)
		}
		if err := w.Close(); err != nil {
			d.log.Warn("output writer close failed", "error", err)
		}
	}

	return nil
}
