package api

// Status is the outcome code of a response.
type Status string

// Response statuses.
const (
	StatusSuccess               Status = "success"
	StatusErrorValidation       Status = "error_validation"
	StatusErrorPermissionDenied Status = "error_permission_denied"
	StatusErrorNotFound         Status = "error_not_found"
	StatusErrorBadRequest       Status = "error_bad_request"
	StatusErrorBadResponse      Status = "error_bad_response"
)

// IsValidStatus reports whether s is one of the defined statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusSuccess, StatusErrorValidation, StatusErrorPermissionDenied,
		StatusErrorNotFound, StatusErrorBadRequest, StatusErrorBadResponse:
		return true
	}
	return false
}

// Representation is a handler-produced value allowed in response content.
type Representation interface {
	ResourceName() string
}

// Response carries the outcome of one API call.
//
// Content is either a single Representation or a []Representation.
// TotalResults is set by search handlers to the match count before paging.
type Response struct {
	Status       Status
	Content      any
	Errors       *ErrorStore
	Request      *Request
	TotalResults int
}

// NewResponse creates a successful response with the given content.
func NewResponse(content any) *Response {
	return &Response{
		Status:  StatusSuccess,
		Content: content,
		Errors:  NewErrorStore(),
	}
}

// SetStatus sets the response status.
func (r *Response) SetStatus(s Status) *Response {
	r.Status = s
	return r
}

// SetContent sets the response content.
func (r *Response) SetContent(content any) *Response {
	r.Content = content
	return r
}

// SetRequest attaches the originating request.
func (r *Response) SetRequest(req *Request) *Response {
	r.Request = req
	return r
}

// MergeErrors copies all entries of store into the response errors.
func (r *Response) MergeErrors(store *ErrorStore) *Response {
	if r.Errors == nil {
		r.Errors = NewErrorStore()
	}
	r.Errors.Merge(store)
	return r
}

// SetTotalResults records the unpaged match count of a search.
func (r *Response) SetTotalResults(n int) *Response {
	r.TotalResults = n
	return r
}

// IsError reports whether the status is anything other than success.
func (r *Response) IsError() bool {
	return r.Status != StatusSuccess
}

// Representations returns the content as a list, wrapping a single
// representation. The second result is false if the content is malformed.
func (r *Response) Representations() ([]Representation, bool) {
	switch c := r.Content.(type) {
	case []Representation:
		for _, item := range c {
			if item == nil {
				return nil, false
			}
		}
		return c, true
	case Representation:
		if c == nil {
			return nil, false
		}
		return []Representation{c}, true
	}
	return nil, false
}

// IsValidContent reports whether content is a single non-nil representation
// or a list containing only representations. An empty list is valid.
func IsValidContent(content any) bool {
	switch c := content.(type) {
	case []Representation:
		for _, item := range c {
			if item == nil {
				return false
			}
		}
		return true
	case Representation:
		return c != nil
	}
	return false
}
