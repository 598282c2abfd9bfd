// Package resource provides the stock resource handler: generic JSON
// records stored per resource name and validated against per-field rules.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
)

const logPrefix = "resource:handler"

// Handler options read from the request.
const (
	OptPage            = "page"
	OptPerPage         = "per_page"
	OptSortBy          = "sort_by"
	OptSortOrder       = "sort_order"
	OptIsPartial       = "isPartial"
	OptContinueOnError = "continueOnError"
)

// reservedKeys are rendered from row columns and never stored in data.
var reservedKeys = []string{"@type", "o:id", "o:created", "o:modified"}

// Store persists resource rows. *db.Repository satisfies it.
type Store interface {
	SearchResources(ctx context.Context, resource string, params db.SearchParams) ([]db.Resource, int, error)
	GetResource(ctx context.Context, resource, id string) (*db.Resource, error)
	InsertResources(ctx context.Context, resource string, items []map[string]any) ([]db.Resource, error)
	UpdateResource(ctx context.Context, resource, id string, data map[string]any, partial bool) (*db.Resource, error)
	DeleteResource(ctx context.Context, resource, id string) (*db.Resource, error)
}

// Options configures a Handler.
type Options struct {
	// Rules maps data keys to validator tags, e.g. {"o:title": "required,max=255"}.
	Rules map[string]any
	// Validate is shared across handlers; a new one is created when nil.
	Validate *validator.Validate
}

// Handler serves the six API operations for one resource name.
type Handler struct {
	name     string
	store    Store
	bus      *events.Bus
	rules    map[string]any
	validate *validator.Validate
}

// NewHandler creates a handler for resource name backed by store. Every rule
// must compile against the validator.
func NewHandler(name string, store Store, opts Options) (*Handler, error) {
	v := opts.Validate
	if v == nil {
		v = validator.New()
	}
	if err := (Rules{name: opts.Rules}).Check(v); err != nil {
		return nil, err
	}
	return &Handler{
		name:     name,
		store:    store,
		bus:      events.NewBus(),
		rules:    opts.Rules,
		validate: v,
	}, nil
}

// EventBus returns the handler's lifecycle event bus.
func (h *Handler) EventBus() *events.Bus { return h.bus }

// ResourceID returns the resource name.
func (h *Handler) ResourceID() string { return h.name }

// Search returns a page of records whose data contains the request content.
func (h *Handler) Search(ctx context.Context, req *api.Request) (*api.Response, error) {
	filters, _ := req.ContentMap()
	params := db.SearchParams{
		Filters:   filters,
		Page:      intOption(req, OptPage),
		PerPage:   intOption(req, OptPerPage),
		SortBy:    stringOption(req, OptSortBy),
		SortOrder: stringOption(req, OptSortOrder),
	}
	if store := checkSort(params); store.HasErrors() {
		return nil, api.NewValidationError(store)
	}

	rows, total, err := h.store.SearchResources(ctx, h.name, params)
	if err != nil {
		return nil, fmt.Errorf("%s - search %s: %w", logPrefix, h.name, err)
	}
	reps := make([]api.Representation, 0, len(rows))
	for i := range rows {
		reps = append(reps, toRecord(&rows[i]))
	}
	return api.NewResponse(reps).SetTotalResults(total), nil
}

// Create validates and stores one record.
func (h *Handler) Create(ctx context.Context, req *api.Request) (*api.Response, error) {
	data, _ := req.ContentMap()
	data = stripReserved(data)
	if store := h.validateData(data, ""); store.HasErrors() {
		return nil, api.NewValidationError(store)
	}

	rows, err := h.store.InsertResources(ctx, h.name, []map[string]any{data})
	if err != nil {
		return nil, fmt.Errorf("%s - create %s: %w", logPrefix, h.name, err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s - create %s: store returned %d rows", logPrefix, h.name, len(rows))
	}
	return api.NewResponse(toRecord(&rows[0])), nil
}

// BatchCreate validates every item and stores them in one call. With the
// continueOnError option, invalid items are skipped instead of failing the
// whole batch.
func (h *Handler) BatchCreate(ctx context.Context, req *api.Request) (*api.Response, error) {
	items, ok := req.ContentItems()
	if !ok {
		return nil, api.BadRequest(fmt.Sprintf("batch create %s: content must be a list of objects", h.name))
	}
	continueOnError := boolOption(req, OptContinueOnError)

	valid := make([]map[string]any, 0, len(items))
	errs := api.NewErrorStore()
	for i, item := range items {
		item = stripReserved(item)
		itemErrs := h.validateData(item, fmt.Sprintf("[%d].", i))
		if itemErrs.HasErrors() {
			if continueOnError {
				slog.Warn(fmt.Sprintf("%s - batch create %s: skipping item %d: %v", logPrefix, h.name, i, itemErrs.Errors()))
				continue
			}
			errs.Merge(itemErrs)
			continue
		}
		valid = append(valid, item)
	}
	if errs.HasErrors() {
		return nil, api.NewValidationError(errs)
	}

	reps := make([]api.Representation, 0, len(valid))
	if len(valid) > 0 {
		rows, err := h.store.InsertResources(ctx, h.name, valid)
		if err != nil {
			return nil, fmt.Errorf("%s - batch create %s: %w", logPrefix, h.name, err)
		}
		for i := range rows {
			reps = append(reps, toRecord(&rows[i]))
		}
	}
	return api.NewResponse(reps), nil
}

// Read returns one record by id.
func (h *Handler) Read(ctx context.Context, req *api.Request) (*api.Response, error) {
	if err := requireID(req); err != nil {
		return nil, err
	}
	row, err := h.store.GetResource(ctx, h.name, req.ID)
	if err != nil {
		return nil, fmt.Errorf("%s - read %s/%s: %w", logPrefix, h.name, req.ID, err)
	}
	if row == nil {
		return nil, notFound()
	}
	return api.NewResponse(toRecord(row)), nil
}

// Update replaces a record's data, or merges into it with the isPartial
// option.
func (h *Handler) Update(ctx context.Context, req *api.Request) (*api.Response, error) {
	if err := requireID(req); err != nil {
		return nil, err
	}
	data, _ := req.ContentMap()
	data = stripReserved(data)
	partial := boolOption(req, OptIsPartial)
	if !partial {
		if store := h.validateData(data, ""); store.HasErrors() {
			return nil, api.NewValidationError(store)
		}
	} else if store := h.validatePartial(data); store.HasErrors() {
		return nil, api.NewValidationError(store)
	}

	row, err := h.store.UpdateResource(ctx, h.name, req.ID, data, partial)
	if err != nil {
		return nil, fmt.Errorf("%s - update %s/%s: %w", logPrefix, h.name, req.ID, err)
	}
	if row == nil {
		return nil, notFound()
	}
	return api.NewResponse(toRecord(row)), nil
}

// Delete removes a record and returns what was removed.
func (h *Handler) Delete(ctx context.Context, req *api.Request) (*api.Response, error) {
	if err := requireID(req); err != nil {
		return nil, err
	}
	row, err := h.store.DeleteResource(ctx, h.name, req.ID)
	if err != nil {
		return nil, fmt.Errorf("%s - delete %s/%s: %w", logPrefix, h.name, req.ID, err)
	}
	if row == nil {
		return nil, notFound()
	}
	return api.NewResponse(toRecord(row)), nil
}

// validateData checks data against every rule; keys are prefixed in the
// returned store.
func (h *Handler) validateData(data map[string]any, prefix string) *api.ErrorStore {
	store := api.NewErrorStore()
	if len(h.rules) == 0 {
		return store
	}
	h.collect(store, prefix, h.validate.ValidateMap(data, h.rules))
	return store
}

// validatePartial checks only the rules for keys present in data.
func (h *Handler) validatePartial(data map[string]any) *api.ErrorStore {
	store := api.NewErrorStore()
	rules := map[string]any{}
	for key := range data {
		if rule, ok := h.rules[key]; ok {
			rules[key] = rule
		}
	}
	if len(rules) == 0 {
		return store
	}
	h.collect(store, "", h.validate.ValidateMap(data, rules))
	return store
}

func (h *Handler) collect(store *api.ErrorStore, prefix string, failures map[string]any) {
	for _, field := range sortedKeys(failures) {
		switch e := failures[field].(type) {
		case validator.ValidationErrors:
			for _, fe := range e {
				store.AddError(prefix+field, ruleMessage(fe.Tag(), fe.Param()))
			}
		case error:
			store.AddError(prefix+field, e.Error())
		default:
			store.AddError(prefix+field, "invalid")
		}
	}
}

func ruleMessage(tag, param string) string {
	if param == "" {
		return fmt.Sprintf("failed %q rule", tag)
	}
	return fmt.Sprintf("failed %q rule (%s)", tag, param)
}

func checkSort(params db.SearchParams) *api.ErrorStore {
	store := api.NewErrorStore()
	if !db.ValidSortBy(params.SortBy) {
		store.AddError(OptSortBy, fmt.Sprintf("invalid sort field %q", params.SortBy))
	}
	if !db.ValidSortOrder(params.SortOrder) {
		store.AddError(OptSortOrder, fmt.Sprintf("invalid sort order %q, want asc or desc", params.SortOrder))
	}
	return store
}

func notFound() error {
	store := api.NewErrorStore()
	store.AddError("id", "not found")
	return api.NewValidationError(store)
}

func requireID(req *api.Request) error {
	if strings.TrimSpace(req.ID) != "" {
		return nil
	}
	store := api.NewErrorStore()
	store.AddError("id", "required")
	return api.NewValidationError(store)
}

func toRecord(row *db.Resource) *api.Record {
	return &api.Record{
		Resource: row.Resource,
		ID:       row.ID,
		Data:     row.Data,
		Created:  row.Created,
		Modified: row.Modified,
	}
}

func stripReserved(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range reservedKeys {
		delete(out, k)
	}
	return out
}

func intOption(req *api.Request, key string) int {
	switch v := req.Option(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case fmt.Stringer:
		n, _ := strconv.Atoi(v.String())
		return n
	}
	return 0
}

func stringOption(req *api.Request, key string) string {
	s, _ := req.Option(key).(string)
	return s
}

func boolOption(req *api.Request, key string) bool {
	switch v := req.Option(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
