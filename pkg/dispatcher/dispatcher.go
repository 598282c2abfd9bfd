// Package dispatcher is the single entry point for API operations. It
// validates a request, resolves the resource handler, checks access, fires
// lifecycle events around the handler call and validates what comes back.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/acl"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/i18n"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/metrics"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/registry"
)

const logPrefix = "dispatcher:execute"

// unknownLabel replaces an operation or resource label that did not
// validate or resolve.
const unknownLabel = "unknown"

// dispatchLabels are filled in as the request is validated and resolved.
type dispatchLabels struct {
	operation string
	resource  string
}

// Resolver looks up the handler registered for a resource name.
type Resolver interface {
	Get(name string) (registry.Handler, error)
}

// Params configures a Dispatcher. Gate defaults to acl.AllowAll and
// Translator to plain fmt formatting; Metrics may be nil.
type Params struct {
	Registry   Resolver
	Gate       acl.Gate
	Translator i18n.Translator
	Metrics    *metrics.Metrics
}

// Dispatcher executes API requests against registered resource handlers.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	registry Resolver
	gate     acl.Gate
	tr       i18n.Translator
	metrics  *metrics.Metrics
}

// New creates a Dispatcher.
func New(p Params) *Dispatcher {
	d := &Dispatcher{
		registry: p.Registry,
		gate:     p.Gate,
		tr:       p.Translator,
		metrics:  p.Metrics,
	}
	if d.gate == nil {
		d.gate = acl.AllowAll{}
	}
	if d.tr == nil {
		d.tr = i18n.Sprintf{}
	}
	return d
}

// Execute runs one request through the dispatch protocol.
//
// A *api.ValidationError from any stage is logged and converted into an
// error_validation response. Any other error is returned as is and the
// response is nil. Every returned response references req.
func (d *Dispatcher) Execute(ctx context.Context, req *api.Request) (*api.Response, error) {
	start := time.Now()
	labels := dispatchLabels{operation: unknownLabel, resource: unknownLabel}

	resp, err := d.execute(ctx, req, &labels)
	if err != nil {
		ve, ok := api.AsValidationError(err)
		if !ok {
			d.metrics.ObserveFailure(labels.operation, labels.resource, time.Since(start))
			return nil, err
		}
		slog.Error(fmt.Sprintf("%s - %s", logPrefix, ve.Error()))
		resp = api.NewResponse(nil).
			SetStatus(api.StatusErrorValidation).
			MergeErrors(ve.ErrorStoreOrMessage())
	}

	resp.SetRequest(req)
	d.metrics.ObserveDispatch(labels.operation, labels.resource, string(resp.Status), time.Since(start))
	return resp, nil
}

func (d *Dispatcher) execute(ctx context.Context, req *api.Request, labels *dispatchLabels) (*api.Response, error) {
	if req == nil || strings.TrimSpace(req.Resource()) == "" {
		return nil, api.BadRequest(d.tr.Translate(i18n.MsgResourceMissing))
	}
	op := req.Operation()
	if !api.IsValidOperation(op) {
		return nil, api.BadRequest(d.tr.Translate(i18n.MsgOperationInvalid, op))
	}
	labels.operation = string(op)
	if !validContentShape(req) {
		return nil, api.BadRequest(d.tr.Translate(i18n.MsgContentNotMapping))
	}

	handler, err := d.registry.Get(req.Resource())
	if err != nil {
		if registry.IsNotRegistered(err) {
			return nil, api.BadRequest(d.tr.Translate(i18n.MsgResourceUnknown, req.Resource()))
		}
		return nil, fmt.Errorf("%s - resolve %s: %w", logPrefix, req.Resource(), err)
	}
	resourceID := handler.ResourceID()
	labels.resource = resourceID

	if !d.gate.UserIsAllowed(ctx, resourceID, op) {
		return nil, api.PermissionDenied(d.tr.Translate(i18n.MsgPermissionDenied, op, resourceID))
	}

	bus := handler.EventBus()
	if req.Initialize() {
		pre := events.PreEvent{Request: req}
		if err := bus.Trigger(ctx, events.ExecutePre, handler, pre); err != nil {
			return nil, err
		}
		if err := bus.Trigger(ctx, events.PreEventName(op), handler, pre); err != nil {
			return nil, err
		}
	}

	slog.Debug(fmt.Sprintf("%s - %s %s id=%q", logPrefix, op, resourceID, req.ID))

	var resp *api.Response
	switch op {
	case api.OpSearch:
		resp, err = handler.Search(ctx, req)
	case api.OpCreate:
		resp, err = handler.Create(ctx, req)
	case api.OpBatchCreate:
		resp, err = d.batchCreate(ctx, handler, req)
	case api.OpRead:
		resp, err = handler.Read(ctx, req)
	case api.OpUpdate:
		resp, err = handler.Update(ctx, req)
	case api.OpDelete:
		resp, err = handler.Delete(ctx, req)
	default:
		return nil, api.BadRequest(d.tr.Translate(i18n.MsgOperationInvalid, op))
	}
	if err != nil {
		return nil, err
	}

	if err := d.validateResponse(op, resourceID, resp); err != nil {
		return nil, err
	}

	if req.Finalize() {
		post := events.PostEvent{Request: req, Response: resp}
		if err := bus.Trigger(ctx, events.PostEventName(op), handler, post); err != nil {
			return nil, err
		}
		if err := bus.Trigger(ctx, events.ExecutePost, handler, post); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// batchCreate calls the handler once with the whole batch while firing
// create.pre and create.post once per item.
func (d *Dispatcher) batchCreate(ctx context.Context, handler registry.Handler, req *api.Request) (*api.Response, error) {
	items, ok := req.ContentItems()
	if !ok {
		return nil, api.BadRequest(d.tr.Translate(i18n.MsgBatchContentInvalid))
	}

	bus := handler.EventBus()
	preName := events.PreEventName(api.OpCreate)
	postName := events.PostEventName(api.OpCreate)

	if req.Initialize() {
		for _, item := range items {
			itemReq := req.ItemRequest(item)
			if err := bus.Trigger(ctx, preName, handler, events.PreEvent{Request: itemReq}); err != nil {
				return nil, err
			}
		}
	}

	resp, err := handler.BatchCreate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.IsError() {
		return resp, nil
	}
	reps, ok := resp.Content.([]api.Representation)
	if !ok {
		return resp, nil
	}

	if req.Finalize() {
		for _, rep := range reps {
			itemReq := req.ItemRequest(rep)
			itemResp := api.NewResponse(rep)
			if err := bus.Trigger(ctx, postName, handler, events.PostEvent{Request: itemReq, Response: itemResp}); err != nil {
				return nil, err
			}
		}
	}

	return resp, nil
}

func (d *Dispatcher) validateResponse(op api.Operation, resource string, resp *api.Response) error {
	if resp == nil {
		return api.BadResponse(d.tr.Translate(i18n.MsgResponseMissing, op, resource))
	}
	if !api.IsValidStatus(resp.Status) {
		return api.BadResponse(d.tr.Translate(i18n.MsgResponseStatus, op, resource, resp.Status))
	}
	if resp.IsError() && resp.Content == nil {
		return nil
	}
	if !api.IsValidContent(resp.Content) {
		return api.BadResponse(d.tr.Translate(i18n.MsgResponseContent, op, resource))
	}
	return nil
}

// validContentShape accepts a mapping, or for batch create any sequence;
// the batch sub-protocol checks the elements.
func validContentShape(req *api.Request) bool {
	if _, ok := req.ContentMap(); ok {
		return true
	}
	return req.Operation() == api.OpBatchCreate && api.IsSequence(req.Content)
}
