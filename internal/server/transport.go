package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/acl"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/commsutil"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/dispatcher"
)

const transportLogPrefix = "server:transport"

// Executor runs one API request. *dispatcher.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, req *api.Request) (*api.Response, error)
}

// HandleMessage decodes one wire request, executes it as the caller's
// identity within timeout and returns the reply envelope. A caller-supplied
// timeout shorter than timeout wins.
//
// The identity is taken from the envelope as sent. Access control is only as
// strong as the publish permissions on the API subject.
func HandleMessage(ctx context.Context, exec Executor, timeout time.Duration, data []byte) *dispatcher.WireResponse {
	wire, err := dispatcher.DecodeWireRequest(data)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", transportLogPrefix, err))
		return dispatcher.InvalidEnvelope("", err)
	}
	req, err := wire.ToRequest()
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to build request %s: %v", transportLogPrefix, wire.ID, err))
		return dispatcher.InvalidEnvelope(wire.ID, err)
	}

	if wire.Ctx != nil && wire.Ctx.TimeoutMs > 0 {
		if d := time.Duration(wire.Ctx.TimeoutMs) * time.Millisecond; d < timeout {
			timeout = d
		}
	}
	reqCtx, cancel := context.WithTimeout(acl.WithIdentity(ctx, wire.Ctx.Identity()), timeout)
	defer cancel()

	slog.Debug(fmt.Sprintf("%s - %s %s %s", transportLogPrefix, wire.ID, wire.Operation, wire.Resource))
	resp, err := safeExecute(reqCtx, exec, req)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - request %s failed: %v", transportLogPrefix, wire.ID, err))
	}
	return dispatcher.NewWireResponse(wire.ID, resp, err)
}

// safeExecute turns a handler panic into an error so one request cannot
// take down the subscription.
func safeExecute(ctx context.Context, exec Executor, req *api.Request) (resp *api.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("%s - panic executing %s %s: %v", transportLogPrefix, req.Operation(), req.Resource(), r)
		}
	}()
	return exec.Execute(ctx, req)
}

// Subscribe serves API requests arriving on subject until the subscription
// is drained or ctx is done.
func Subscribe(ctx context.Context, nc *comms.Conn, subject string, exec Executor, timeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		out := HandleMessage(ctx, exec, timeout, msg.Data)
		data, err := commsutil.EncodePayload(out)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response %s: %v", transportLogPrefix, out.ID, err))
			data, _ = commsutil.EncodePayload(dispatcher.NewWireResponse(out.ID, nil, err))
		}
		if err := msg.Respond(data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to respond to %s: %v", transportLogPrefix, out.ID, err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", transportLogPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", transportLogPrefix, subject))
	return sub, nil
}
