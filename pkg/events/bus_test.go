package events

import (
	"context"
	"errors"
	"testing"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

func TestEventNames(t *testing.T) {
	tests := []struct {
		op       api.Operation
		wantPre  string
		wantPost string
	}{
		{api.OpSearch, "search.pre", "search.post"},
		{api.OpCreate, "create.pre", "create.post"},
		{api.OpBatchCreate, "batch_create.pre", "batch_create.post"},
		{api.OpDelete, "delete.pre", "delete.post"},
	}
	for _, tt := range tests {
		if got := PreEventName(tt.op); got != tt.wantPre {
			t.Errorf("events:bus_test - PreEventName(%s) = %q, want %q", tt.op, got, tt.wantPre)
		}
		if got := PostEventName(tt.op); got != tt.wantPost {
			t.Errorf("events:bus_test - PostEventName(%s) = %q, want %q", tt.op, got, tt.wantPost)
		}
	}
}

func TestBus_TriggerOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Attach("create.pre", func(_ context.Context, e *Event) error {
			order = append(order, name)
			return nil
		})
	}
	bus.Attach("create.post", func(_ context.Context, e *Event) error {
		order = append(order, "post")
		return nil
	})

	req := api.NewRequest(api.OpCreate, "items")
	if err := bus.Trigger(context.Background(), "create.pre", "source", PreEvent{Request: req}); err != nil {
		t.Fatalf("events:bus_test - Trigger failed: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("events:bus_test - order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("events:bus_test - order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestBus_TriggerPassesEvent(t *testing.T) {
	bus := NewBus()
	req := api.NewRequest(api.OpRead, "items").SetID("7")
	resp := api.NewResponse(&api.Record{Resource: "items", ID: "7"})

	var got *Event
	bus.Attach("read.post", func(_ context.Context, e *Event) error {
		got = e
		return nil
	})

	if err := bus.Trigger(context.Background(), "read.post", "handler", PostEvent{Request: req, Response: resp}); err != nil {
		t.Fatalf("events:bus_test - Trigger failed: %v", err)
	}
	if got == nil {
		t.Fatal("events:bus_test - listener not called")
	}
	if got.Name != "read.post" || got.Source != "handler" {
		t.Errorf("events:bus_test - event = %+v", got)
	}
	post, ok := got.Payload.(PostEvent)
	if !ok {
		t.Fatalf("events:bus_test - payload type = %T, want PostEvent", got.Payload)
	}
	if post.Request != req || post.Response != resp {
		t.Error("events:bus_test - payload does not carry the triggering request/response")
	}
}

func TestBus_ListenerErrorStopsFanOut(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	calls := 0
	bus.Attach("execute.pre", func(context.Context, *Event) error {
		calls++
		return boom
	})
	bus.Attach("execute.pre", func(context.Context, *Event) error {
		calls++
		return nil
	})

	err := bus.Trigger(context.Background(), "execute.pre", nil, PreEvent{})
	if !errors.Is(err, boom) {
		t.Errorf("events:bus_test - err = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("events:bus_test - calls = %d, want 1", calls)
	}
}

func TestBus_NoListeners(t *testing.T) {
	bus := NewBus()
	if err := bus.Trigger(context.Background(), "delete.post", nil, PostEvent{}); err != nil {
		t.Errorf("events:bus_test - unexpected error: %v", err)
	}
	if n := bus.ListenerCount("delete.post"); n != 0 {
		t.Errorf("events:bus_test - ListenerCount = %d, want 0", n)
	}
}
