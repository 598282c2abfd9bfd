// Package events provides the per-handler lifecycle event bus and publishers
// that mirror lifecycle events outside the process.
package events

import (
	"fmt"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

// Dispatch-wide event names.
const (
	ExecutePre  = "execute.pre"
	ExecutePost = "execute.post"
)

// PreEventName returns the pre-event name for an operation, e.g. "create.pre".
func PreEventName(op api.Operation) string {
	return fmt.Sprintf("%s.pre", op)
}

// PostEventName returns the post-event name for an operation, e.g. "create.post".
func PostEventName(op api.Operation) string {
	return fmt.Sprintf("%s.post", op)
}

// Payload is the closed set of event payload shapes: PreEvent and PostEvent.
type Payload interface {
	payload()
}

// PreEvent is published before an operation runs.
type PreEvent struct {
	Request *api.Request
}

// PostEvent is published after an operation returned a valid response.
type PostEvent struct {
	Request  *api.Request
	Response *api.Response
}

func (PreEvent) payload()  {}
func (PostEvent) payload() {}

// Event is what listeners receive.
type Event struct {
	Name    string
	Source  any
	Payload Payload
}

// LifecycleEvent is the serialized form of a post-event sent to external
// subscribers.
type LifecycleEvent struct {
	Event      string          `json:"event"`
	Resource   string          `json:"resource"`
	Operation  string          `json:"operation"`
	ResourceID string          `json:"resourceId,omitempty"`
	Status     string          `json:"status,omitempty"`
	Content    []any           `json:"content,omitempty"`
	Errors     *api.ErrorStore `json:"errors,omitempty"`
	Timestamp  string          `json:"timestamp"`
}
