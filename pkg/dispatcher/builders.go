package dispatcher

import (
	"context"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

// Search finds resources matching query.
func (d *Dispatcher) Search(ctx context.Context, resource string, query, options map[string]any) (*api.Response, error) {
	req := api.NewRequest(api.OpSearch, resource)
	if query != nil {
		req.SetContent(query)
	}
	return d.Execute(ctx, withOptions(req, options))
}

// Create creates one resource.
func (d *Dispatcher) Create(ctx context.Context, resource string, data, fileData, options map[string]any) (*api.Response, error) {
	req := api.NewRequest(api.OpCreate, resource)
	if data != nil {
		req.SetContent(data)
	}
	if fileData != nil {
		req.SetFileData(fileData)
	}
	return d.Execute(ctx, withOptions(req, options))
}

// BatchCreate creates many resources in one handler call.
func (d *Dispatcher) BatchCreate(ctx context.Context, resource string, items []map[string]any, fileData, options map[string]any) (*api.Response, error) {
	if items == nil {
		items = []map[string]any{}
	}
	req := api.NewRequest(api.OpBatchCreate, resource).SetContent(items)
	if fileData != nil {
		req.SetFileData(fileData)
	}
	return d.Execute(ctx, withOptions(req, options))
}

// Read fetches one resource by id.
func (d *Dispatcher) Read(ctx context.Context, resource, id string, options map[string]any) (*api.Response, error) {
	req := api.NewRequest(api.OpRead, resource).SetID(id)
	return d.Execute(ctx, withOptions(req, options))
}

// Update changes one resource by id.
func (d *Dispatcher) Update(ctx context.Context, resource, id string, data, fileData, options map[string]any) (*api.Response, error) {
	req := api.NewRequest(api.OpUpdate, resource).SetID(id)
	if data != nil {
		req.SetContent(data)
	}
	if fileData != nil {
		req.SetFileData(fileData)
	}
	return d.Execute(ctx, withOptions(req, options))
}

// Delete removes one resource by id.
func (d *Dispatcher) Delete(ctx context.Context, resource, id string, options map[string]any) (*api.Response, error) {
	req := api.NewRequest(api.OpDelete, resource).SetID(id)
	return d.Execute(ctx, withOptions(req, options))
}

func withOptions(req *api.Request, options map[string]any) *api.Request {
	if options != nil {
		req.SetOptions(options)
	}
	return req
}
