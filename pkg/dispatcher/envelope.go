package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/acl"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/commsutil"
)

// WireRequest is the JSON envelope for API requests arriving over COMMS.
type WireRequest struct {
	ID         string             `json:"id"`
	Operation  string             `json:"operation"`
	Resource   string             `json:"resource"`
	ResourceID string             `json:"resourceId,omitempty"`
	Content    json.RawMessage    `json:"content,omitempty"`
	FileData   map[string]any     `json:"fileData,omitempty"`
	Options    map[string]any     `json:"options,omitempty"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	Ctx        *InvocationContext `json:"ctx,omitempty"`
}

// WireResponse is the JSON envelope for API responses sent over COMMS.
type WireResponse struct {
	ID           string          `json:"id"`
	Ok           bool            `json:"ok"`
	Status       api.Status      `json:"status,omitempty"`
	Content      any             `json:"content,omitempty"`
	TotalResults int             `json:"totalResults,omitempty"`
	Errors       *api.ErrorStore `json:"errors,omitempty"`
	Error        *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail describes a failure that produced no API response.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// InvocationContext holds context from the caller. UserID and Roles are
// asserted by the publisher and not authenticated here; restrict who may
// publish on the API subject when the role gate is in use.
type InvocationContext struct {
	UserID        string   `json:"userId,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	RequestID     string   `json:"requestId,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
	TimeoutMs     int      `json:"timeoutMs,omitempty"`
}

// Identity returns the acting identity, or the guest identity when the
// caller sent none.
func (c *InvocationContext) Identity() acl.Identity {
	if c == nil || (c.UserID == "" && len(c.Roles) == 0) {
		return acl.Guest
	}
	return acl.Identity{UserID: c.UserID, Roles: c.Roles}
}

// DecodeWireRequest parses an envelope and assigns an id when the caller
// sent none.
func DecodeWireRequest(data []byte) (*WireRequest, error) {
	var w WireRequest
	if err := commsutil.DecodePayload(data, &w); err != nil {
		return nil, fmt.Errorf("%s - decode request: %w", logPrefix, err)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return &w, nil
}

// ToRequest builds the API request described by the envelope. Absent content
// becomes an empty mapping; anything else is passed through for the
// dispatcher to validate.
func (w *WireRequest) ToRequest() (*api.Request, error) {
	req := api.NewRequest(api.Operation(w.Operation), w.Resource).SetID(w.ResourceID)
	if len(w.Content) > 0 {
		var content any
		if err := commsutil.DecodePayload(w.Content, &content); err != nil {
			return nil, fmt.Errorf("%s - decode content: %w", logPrefix, err)
		}
		req.SetContent(content)
	}
	if w.FileData != nil {
		req.SetFileData(w.FileData)
	}
	if w.Options != nil {
		req.SetOptions(w.Options)
	}
	for k, v := range w.Metadata {
		req.SetMetadata(k, v)
	}
	return req, nil
}

// NewWireResponse builds the reply envelope for a dispatch outcome.
func NewWireResponse(id string, resp *api.Response, err error) *WireResponse {
	if err != nil {
		return &WireResponse{ID: id, Ok: false, Error: errorDetail(err)}
	}
	if resp == nil {
		return &WireResponse{ID: id, Ok: false, Error: &ErrorDetail{Code: "INTERNAL_ERROR", Message: "no response"}}
	}
	out := &WireResponse{
		ID:           id,
		Ok:           !resp.IsError(),
		Status:       resp.Status,
		Content:      resp.Content,
		TotalResults: resp.TotalResults,
	}
	if resp.Errors.HasErrors() {
		out.Errors = resp.Errors
	}
	return out
}

func errorDetail(err error) *ErrorDetail {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ErrorDetail{Code: "TIMEOUT", Message: err.Error(), Retryable: true}
	case errors.Is(err, context.Canceled):
		return &ErrorDetail{Code: "CANCELLED", Message: err.Error(), Retryable: true}
	}
	return &ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error(), Retryable: false}
}

// InvalidEnvelope is the reply for a message that could not be decoded.
func InvalidEnvelope(id string, err error) *WireResponse {
	return &WireResponse{
		ID:    id,
		Ok:    false,
		Error: &ErrorDetail{Code: "INVALID_ARGUMENT", Message: err.Error()},
	}
}
