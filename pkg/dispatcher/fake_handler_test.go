package dispatcher

import (
	"context"
	"sync"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/registry"
)

// rep is a minimal representation used by the fake handler.
type rep struct {
	resource string
	id       int
	title    string
}

func (r *rep) ResourceName() string { return r.resource }

type handlerFunc func(ctx context.Context, req *api.Request) (*api.Response, error)

// fakeHandler records every call and every event on its bus into a shared
// trace so tests can assert ordering.
type fakeHandler struct {
	name  string
	bus   *events.Bus
	mu    sync.Mutex
	trace []string
	calls map[api.Operation]int

	search, create, batchCreate, read, update, del handlerFunc
}

func newFakeHandler(name string) *fakeHandler {
	h := &fakeHandler{name: name, bus: events.NewBus(), calls: map[api.Operation]int{}}
	ok := func(ctx context.Context, req *api.Request) (*api.Response, error) {
		return api.NewResponse(&rep{resource: name, id: 1}), nil
	}
	h.search = func(ctx context.Context, req *api.Request) (*api.Response, error) {
		return api.NewResponse([]api.Representation{}), nil
	}
	h.create, h.read, h.update, h.del = ok, ok, ok, ok
	h.batchCreate = func(ctx context.Context, req *api.Request) (*api.Response, error) {
		items, _ := req.ContentItems()
		out := make([]api.Representation, 0, len(items))
		for i, item := range items {
			title, _ := item["title"].(string)
			out = append(out, &rep{resource: name, id: i + 1, title: title})
		}
		return api.NewResponse(out), nil
	}
	return h
}

// recordEvents attaches a tracing listener for each given event name.
func (h *fakeHandler) recordEvents(names ...string) {
	for _, name := range names {
		h.bus.Attach(name, func(ctx context.Context, e *events.Event) error {
			h.record("event:" + e.Name)
			return nil
		})
	}
}

func (h *fakeHandler) record(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trace = append(h.trace, s)
}

func (h *fakeHandler) call(op api.Operation, fn handlerFunc, ctx context.Context, req *api.Request) (*api.Response, error) {
	h.mu.Lock()
	h.calls[op]++
	h.mu.Unlock()
	h.record("call:" + string(op))
	return fn(ctx, req)
}

func (h *fakeHandler) totalCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		n += c
	}
	return n
}

func (h *fakeHandler) Search(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpSearch, h.search, ctx, req)
}
func (h *fakeHandler) Create(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpCreate, h.create, ctx, req)
}
func (h *fakeHandler) BatchCreate(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpBatchCreate, h.batchCreate, ctx, req)
}
func (h *fakeHandler) Read(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpRead, h.read, ctx, req)
}
func (h *fakeHandler) Update(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpUpdate, h.update, ctx, req)
}
func (h *fakeHandler) Delete(ctx context.Context, req *api.Request) (*api.Response, error) {
	return h.call(api.OpDelete, h.del, ctx, req)
}
func (h *fakeHandler) EventBus() *events.Bus { return h.bus }
func (h *fakeHandler) ResourceID() string    { return h.name }

// allEventNames lists every event the dispatcher can fire.
func allEventNames() []string {
	names := []string{events.ExecutePre, events.ExecutePost}
	for _, op := range api.Operations {
		names = append(names, events.PreEventName(op), events.PostEventName(op))
	}
	return names
}

func newTestDispatcher(handlers ...*fakeHandler) *Dispatcher {
	reg := registry.New()
	for _, h := range handlers {
		if err := reg.Register(h.name, h); err != nil {
			panic(err)
		}
	}
	return New(Params{Registry: reg})
}
