// Package api defines the transport-agnostic request and response value
// objects exchanged between callers, the dispatcher and resource handlers.
package api

// Operation names one of the six API operation kinds.
type Operation string

// Supported operations.
const (
	OpSearch      Operation = "search"
	OpCreate      Operation = "create"
	OpBatchCreate Operation = "batch_create"
	OpRead        Operation = "read"
	OpUpdate      Operation = "update"
	OpDelete      Operation = "delete"
)

// Operations lists every valid operation in a stable order.
var Operations = []Operation{OpSearch, OpCreate, OpBatchCreate, OpRead, OpUpdate, OpDelete}

// IsValidOperation reports whether op is one of the defined operations.
func IsValidOperation(op Operation) bool {
	switch op {
	case OpSearch, OpCreate, OpBatchCreate, OpRead, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Metadata keys understood by the dispatcher.
const (
	MetaInitialize = "initialize"
	MetaFinalize   = "finalize"
)

// Request describes the intent of one API call. Operation and resource are
// fixed at construction; the remaining fields are set before dispatch.
type Request struct {
	operation Operation
	resource  string

	ID       string
	Content  any
	FileData map[string]any
	Options  map[string]any
	Metadata map[string]any
}

// NewRequest creates a request for the given operation and resource.
func NewRequest(op Operation, resource string) *Request {
	return &Request{
		operation: op,
		resource:  resource,
		Content:   map[string]any{},
		FileData:  map[string]any{},
		Options:   map[string]any{},
		Metadata:  map[string]any{},
	}
}

// Operation returns the requested operation.
func (r *Request) Operation() Operation { return r.operation }

// Resource returns the target resource name.
func (r *Request) Resource() string { return r.resource }

// SetID sets the identifier used by read, update and delete.
func (r *Request) SetID(id string) *Request {
	r.ID = id
	return r
}

// SetContent sets the request content.
func (r *Request) SetContent(content any) *Request {
	r.Content = content
	return r
}

// SetFileData sets the attached file references.
func (r *Request) SetFileData(fileData map[string]any) *Request {
	r.FileData = fileData
	return r
}

// SetOptions replaces the handler options.
func (r *Request) SetOptions(options map[string]any) *Request {
	r.Options = options
	return r
}

// SetOption sets a single handler option.
func (r *Request) SetOption(key string, value any) *Request {
	if r.Options == nil {
		r.Options = map[string]any{}
	}
	r.Options[key] = value
	return r
}

// SetMetadata sets a single dispatcher-control flag.
func (r *Request) SetMetadata(key string, value any) *Request {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}

// Option returns a handler option, or nil when absent.
func (r *Request) Option(key string) any {
	return r.Options[key]
}

// Initialize reports whether pre-events should fire. Defaults to true.
func (r *Request) Initialize() bool {
	return r.metaFlag(MetaInitialize)
}

// Finalize reports whether post-events should fire. Defaults to true.
func (r *Request) Finalize() bool {
	return r.metaFlag(MetaFinalize)
}

func (r *Request) metaFlag(key string) bool {
	v, ok := r.Metadata[key]
	if !ok || v == nil {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

// ItemRequest returns a create request for this request's resource carrying
// only content. Batch create fires per-item events with it.
func (r *Request) ItemRequest(content any) *Request {
	return NewRequest(OpCreate, r.resource).SetContent(content)
}

// ContentMap returns the content as a mapping.
func (r *Request) ContentMap() (map[string]any, bool) {
	return AsMapping(r.Content)
}

// ContentItems returns the content as an ordered list of mappings.
func (r *Request) ContentItems() ([]map[string]any, bool) {
	return AsMappingList(r.Content)
}

// AsMapping reports whether v is a JSON-object-shaped mapping.
func AsMapping(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// AsMappingList reports whether v is an ordered list whose elements are all
// mappings. An empty list qualifies.
func AsMappingList(v any) ([]map[string]any, bool) {
	switch items := v.(type) {
	case []map[string]any:
		if items == nil {
			return nil, false
		}
		for _, item := range items {
			if item == nil {
				return nil, false
			}
		}
		return items, true
	case []any:
		if items == nil {
			return nil, false
		}
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			m, ok := AsMapping(item)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	}
	return nil, false
}

// IsSequence reports whether v is a list of any element type.
func IsSequence(v any) bool {
	switch v.(type) {
	case []map[string]any, []any:
		return true
	}
	return false
}
