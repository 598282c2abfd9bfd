package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

type call struct {
	resource string
	n        int
}

type fakeExecutor struct {
	calls  []call
	failOn string
	err    error
}

func (f *fakeExecutor) BatchCreate(_ context.Context, resource string, items []map[string]any, _, _ map[string]any) (*api.Response, error) {
	f.calls = append(f.calls, call{resource, len(items)})
	if f.err != nil {
		return nil, f.err
	}
	if resource == f.failOn {
		store := api.NewErrorStore()
		store.AddError("[0].title", "required")
		return &api.Response{Status: api.StatusErrorValidation, Errors: store}, nil
	}
	reps := make([]api.Representation, 0, len(items))
	for range items {
		reps = append(reps, &api.Record{Resource: resource})
	}
	return api.NewResponse(reps), nil
}

func seedFixture() *SeedConfig {
	items := make([]map[string]any, 5)
	for i := range items {
		items[i] = map[string]any{"n": i}
	}
	return &SeedConfig{
		Order: []string{"items"},
		Resources: map[string][]map[string]any{
			"items": items,
			"media": {{"n": 0}},
		},
	}
}

func TestSeed_Chunks(t *testing.T) {
	exec := &fakeExecutor{}
	created, err := Seed(context.Background(), exec, seedFixture(), 2)
	if err != nil {
		t.Fatalf("bootstrap:seed_test - seed failed: %v", err)
	}
	if created["items"] != 5 || created["media"] != 1 {
		t.Errorf("bootstrap:seed_test - created = %v", created)
	}
	want := []call{{"items", 2}, {"items", 2}, {"items", 1}, {"media", 1}}
	if len(exec.calls) != len(want) {
		t.Fatalf("bootstrap:seed_test - calls = %v, want %v", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Errorf("bootstrap:seed_test - call %d = %v, want %v", i, exec.calls[i], want[i])
		}
	}
}

func TestSeed_ErrorStatus(t *testing.T) {
	exec := &fakeExecutor{failOn: "media"}
	created, err := Seed(context.Background(), exec, seedFixture(), 0)

	var se *SeedError
	if !errors.As(err, &se) {
		t.Fatalf("bootstrap:seed_test - expected SeedError, got %v", err)
	}
	if se.Resource != "media" || se.Status != api.StatusErrorValidation || se.Errors["[0].title"][0] != "required" {
		t.Errorf("bootstrap:seed_test - seed error = %+v", se)
	}
	if se.Error() != "seed media: error_validation [[0].title: required]" {
		t.Errorf("bootstrap:seed_test - Error() = %q", se.Error())
	}
	if created["items"] != 5 {
		t.Errorf("bootstrap:seed_test - items created before failure = %d", created["items"])
	}
}

func TestSeed_ExecutorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Seed(context.Background(), &fakeExecutor{err: boom}, seedFixture(), 10)
	if !errors.Is(err, boom) {
		t.Errorf("bootstrap:seed_test - expected wrapped boom, got %v", err)
	}
}
