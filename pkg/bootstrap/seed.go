package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

const seedLogPrefix = "bootstrap:seed"

// DefaultChunkSize bounds the items sent in one batch_create call.
const DefaultChunkSize = 100

// Executor runs batch creates. *dispatcher.Dispatcher satisfies it.
type Executor interface {
	BatchCreate(ctx context.Context, resource string, items []map[string]any, fileData, options map[string]any) (*api.Response, error)
}

// SeedError reports a batch the dispatcher answered with an error status.
type SeedError struct {
	Resource string
	Status   api.Status
	Errors   map[string][]string
}

func (e *SeedError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Errors[k], "; ")))
	}
	return fmt.Sprintf("seed %s: %s [%s]", e.Resource, e.Status, strings.Join(parts, ", "))
}

// Seed creates every item in cfg through exec, chunkSize items per call.
// It stops at the first failed batch and returns the counts created so far.
func Seed(ctx context.Context, exec Executor, cfg *SeedConfig, chunkSize int) (map[string]int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	created := map[string]int{}

	for _, name := range cfg.ResourceNames() {
		items := cfg.Resources[name]
		for start := 0; start < len(items); start += chunkSize {
			end := min(start+chunkSize, len(items))

			resp, err := exec.BatchCreate(ctx, name, items[start:end], nil, nil)
			if err != nil {
				return created, fmt.Errorf("%s - batch create %s: %w", seedLogPrefix, name, err)
			}
			if resp.IsError() {
				return created, &SeedError{Resource: name, Status: resp.Status, Errors: resp.Errors.Errors()}
			}
			reps, _ := resp.Representations()
			created[name] += len(reps)
		}
		slog.Info(fmt.Sprintf("%s - Seeded %d %s", seedLogPrefix, created[name], name))
	}
	return created, nil
}
