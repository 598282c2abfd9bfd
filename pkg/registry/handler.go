// Package registry resolves resource names to the handlers that implement
// their persistence operations.
package registry

import (
	"context"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
)

// Handler implements the six operations for one resource.
//
// Handlers report field-level failures by returning an *api.ValidationError;
// any other error is treated as fatal for the call.
type Handler interface {
	Search(ctx context.Context, req *api.Request) (*api.Response, error)
	Create(ctx context.Context, req *api.Request) (*api.Response, error)
	BatchCreate(ctx context.Context, req *api.Request) (*api.Response, error)
	Read(ctx context.Context, req *api.Request) (*api.Response, error)
	Update(ctx context.Context, req *api.Request) (*api.Response, error)
	Delete(ctx context.Context, req *api.Request) (*api.Response, error)

	// EventBus returns the handler's lifecycle event bus.
	EventBus() *events.Bus
	// ResourceID names the resource in messages and access checks.
	ResourceID() string
}
