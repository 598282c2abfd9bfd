package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

const mirrorLogPrefix = "events:mirror"

// Mirror attaches listeners to bus that forward every operation post-event
// for resource to pub. Publish failures are logged and do not fail the
// dispatch that produced the event.
func Mirror(bus *Bus, resource string, pub Publisher) {
	for _, op := range api.Operations {
		name := PostEventName(op)
		bus.Attach(name, func(ctx context.Context, e *Event) error {
			post, ok := e.Payload.(PostEvent)
			if !ok {
				return nil
			}
			if err := pub.Publish(ctx, NewLifecycleEvent(e.Name, resource, post)); err != nil {
				slog.Warn(fmt.Sprintf("%s - %s for %s not mirrored: %v", mirrorLogPrefix, e.Name, resource, err))
			}
			return nil
		})
	}
}

// NewLifecycleEvent builds the serialized form of a post-event.
func NewLifecycleEvent(name, resource string, post PostEvent) *LifecycleEvent {
	ev := &LifecycleEvent{
		Event:     name,
		Resource:  resource,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if post.Request != nil {
		ev.Operation = string(post.Request.Operation())
		ev.ResourceID = post.Request.ID
	}
	if post.Response != nil {
		ev.Status = string(post.Response.Status)
		if reps, ok := post.Response.Representations(); ok {
			ev.Content = make([]any, len(reps))
			for i, r := range reps {
				ev.Content[i] = r
			}
		}
		if post.Response.Errors.HasErrors() {
			ev.Errors = post.Response.Errors
		}
	}
	return ev
}
