package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
)

const mainTestPrefix = "cmd/omeka-api:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "migrate", "clear", "ensure-db", "themes", "seed", "DATABASE_URL"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestMergeResources(t *testing.T) {
	got := mergeResources([]string{"items", "media"}, []string{"media", "vocabularies", "items"})
	want := []string{"items", "media", "vocabularies"}
	if len(got) != len(want) {
		t.Fatalf("%s - got %v, want %v", mainTestPrefix, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s - got %v, want %v", mainTestPrefix, got, want)
		}
	}

	served := []string{"items"}
	mergeResources(served, []string{"media"})
	if len(served) != 1 {
		t.Errorf("%s - served slice must not be modified", mainTestPrefix)
	}
}

func TestSeedProgress(t *testing.T) {
	var out bytes.Buffer
	pub := seedProgress(&out)
	ctx := context.Background()

	created := events.PostEvent{
		Request:  api.NewRequest(api.OpCreate, "items"),
		Response: api.NewResponse(&api.Record{Resource: "items", ID: "001"}),
	}
	if err := pub.Publish(ctx, events.NewLifecycleEvent(events.PostEventName(api.OpCreate), "items", created)); err != nil {
		t.Fatal(err)
	}
	batch := events.PostEvent{
		Request:  api.NewRequest(api.OpBatchCreate, "items"),
		Response: api.NewResponse([]api.Representation{&api.Record{Resource: "items", ID: "002"}}),
	}
	if err := pub.Publish(ctx, events.NewLifecycleEvent(events.PostEventName(api.OpBatchCreate), "items", batch)); err != nil {
		t.Fatal(err)
	}

	if got := out.String(); got != "  created items/001\n" {
		t.Errorf("%s - progress output = %q", mainTestPrefix, got)
	}
}
