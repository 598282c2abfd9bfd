package events

import "context"

// Publisher forwards mirrored lifecycle events outside the process.
type Publisher interface {
	Publish(ctx context.Context, event *LifecycleEvent) error
}

// NoOpPublisher drops every event.
type NoOpPublisher struct{}

// Publish implements Publisher.
func (p *NoOpPublisher) Publish(context.Context, *LifecycleEvent) error {
	return nil
}

// CallbackPublisher hands each event to a function, e.g. to report seeding
// progress on a terminal.
type CallbackPublisher struct {
	fn func(ctx context.Context, event *LifecycleEvent) error
}

// NewCallbackPublisher wraps fn as a Publisher.
func NewCallbackPublisher(fn func(ctx context.Context, event *LifecycleEvent) error) *CallbackPublisher {
	return &CallbackPublisher{fn: fn}
}

// Publish implements Publisher.
func (p *CallbackPublisher) Publish(ctx context.Context, event *LifecycleEvent) error {
	return p.fn(ctx, event)
}
