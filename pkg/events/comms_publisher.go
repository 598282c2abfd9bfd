package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// SubjectPrefix overrides the granular subject prefix (e.g. from API_EVENT_SUBJECT_PREFIX).
	SubjectPrefix string
	// GlobalSubject overrides the subject that receives every lifecycle event.
	GlobalSubject string
}

// CommsPublisher publishes lifecycle events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	subjectPrefix string
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	prefix := commsutil.SubjectEventPrefix
	global := commsutil.SubjectChangeEvent
	if opts != nil && opts.SubjectPrefix != "" {
		prefix = opts.SubjectPrefix
	}
	if opts != nil && opts.GlobalSubject != "" {
		global = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, subjectPrefix: prefix, globalSubject: global}
}

// Publish sends the event to its granular subject
// (<prefix>.<resource>.<event>) and to the global subject.
func (p *CommsPublisher) Publish(_ context.Context, event *LifecycleEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := commsutil.BuildEventSubject(p.subjectPrefix, event.Resource, event.Event)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s for %s", commsPublisherLogPrefix, event.Event, event.Resource))
	return nil
}
