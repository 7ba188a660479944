package service

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from the hosting frontend
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting events to the hosting editor.
// The app layer implements this by forwarding to whatever surface hosts the
// canvas; services receive the interface so they stay independently
// testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions with the given event name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
