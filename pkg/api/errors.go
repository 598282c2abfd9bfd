package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorStore collects validation messages keyed by field, preserving the
// order in which fields were first added.
type ErrorStore struct {
	keys     []string
	messages map[string][]string
}

// NewErrorStore creates an empty store.
func NewErrorStore() *ErrorStore {
	return &ErrorStore{messages: map[string][]string{}}
}

// AddError appends a message for key.
func (s *ErrorStore) AddError(key, message string) {
	if s.messages == nil {
		s.messages = map[string][]string{}
	}
	if _, ok := s.messages[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.messages[key] = append(s.messages[key], message)
}

// Merge appends every message of other into s.
func (s *ErrorStore) Merge(other *ErrorStore) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		for _, msg := range other.messages[key] {
			s.AddError(key, msg)
		}
	}
}

// HasErrors reports whether any message has been recorded.
func (s *ErrorStore) HasErrors() bool {
	return s != nil && len(s.keys) > 0
}

// Keys returns the field keys in insertion order.
func (s *ErrorStore) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the messages recorded for key.
func (s *ErrorStore) Get(key string) []string {
	if s == nil {
		return nil
	}
	return s.messages[key]
}

// Errors returns a copy of all messages keyed by field.
func (s *ErrorStore) Errors() map[string][]string {
	out := map[string][]string{}
	if s == nil {
		return out
	}
	for _, key := range s.keys {
		out[key] = append([]string(nil), s.messages[key]...)
	}
	return out
}

// MarshalJSON renders the store as an object of message lists.
func (s *ErrorStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Errors())
}

// UnmarshalJSON reads an object of message lists. Keys are sorted since JSON
// object order is not preserved by encoding/json.
func (s *ErrorStore) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	*s = ErrorStore{messages: map[string][]string{}}
	for _, k := range keys {
		for _, msg := range raw[k] {
			s.AddError(k, msg)
		}
	}
	return nil
}

// ErrorKind classifies a validation-class failure by cause.
type ErrorKind string

// Validation error kinds.
const (
	KindValidation       ErrorKind = "validation"
	KindBadRequest       ErrorKind = "bad_request"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindBadResponse      ErrorKind = "bad_response"
)

// ValidationError is the recoverable failure kind: the dispatcher converts
// it into an error_validation response instead of propagating it.
type ValidationError struct {
	Kind    ErrorKind
	Message string
	Store   *ErrorStore
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Store.HasErrors() {
		for _, key := range e.Store.Keys() {
			fmt.Fprintf(&b, " [%s: %s]", key, strings.Join(e.Store.Get(key), "; "))
		}
	}
	return b.String()
}

// ErrorStoreOrMessage returns the error store, or a store holding the message
// under the kind key when the store is empty.
func (e *ValidationError) ErrorStoreOrMessage() *ErrorStore {
	if e.Store.HasErrors() {
		return e.Store
	}
	store := NewErrorStore()
	if e.Message != "" {
		store.AddError(string(e.Kind), e.Message)
	}
	return store
}

// NewValidationError wraps a populated error store.
func NewValidationError(store *ErrorStore) *ValidationError {
	if store == nil {
		store = NewErrorStore()
	}
	return &ValidationError{Kind: KindValidation, Message: "validation failed", Store: store}
}

// BadRequest reports a malformed or unsupported request.
func BadRequest(message string) *ValidationError {
	return &ValidationError{Kind: KindBadRequest, Message: message, Store: NewErrorStore()}
}

// PermissionDenied reports an operation refused by the access gate.
func PermissionDenied(message string) *ValidationError {
	return &ValidationError{Kind: KindPermissionDenied, Message: message, Store: NewErrorStore()}
}

// BadResponse reports a handler response that violates the response contract.
func BadResponse(message string) *ValidationError {
	return &ValidationError{Kind: KindBadResponse, Message: message, Store: NewErrorStore()}
}

// AsValidationError extracts a *ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsKind reports whether err is a validation error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Kind == kind
}
