package event

import "context"

// Event is a committed state change.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers. Implementations log
// delivery failures instead of returning them: the change is already durable.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(context.Context, Event) {}
