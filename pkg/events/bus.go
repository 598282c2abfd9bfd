package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const busLogPrefix = "events:bus"

// Listener handles one event. A returned error stops fan-out and is
// propagated to whoever triggered the event.
type Listener func(ctx context.Context, e *Event) error

// Bus is a synchronous publish/subscribe channel keyed by event name.
// Listeners for a name run in registration order.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: map[string][]Listener{}}
}

// Attach registers a listener for the named event.
func (b *Bus) Attach(name string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], l)
}

// ListenerCount returns the number of listeners attached to name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

// Trigger calls every listener attached to name with the given source and
// payload. There is no timeout: a blocking listener blocks the caller.
func (b *Bus) Trigger(ctx context.Context, name string, source any, payload Payload) error {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners[name]))
	copy(listeners, b.listeners[name])
	b.mu.RUnlock()

	if len(listeners) == 0 {
		return nil
	}
	slog.Debug(fmt.Sprintf("%s - trigger %s (%d listeners)", busLogPrefix, name, len(listeners)))

	e := &Event{Name: name, Source: source, Payload: payload}
	for _, l := range listeners {
		if err := l(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
