package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

const logPrefix = "registry:registry"

// NotRegisteredError is returned by Get for names with no handler.
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("no handler registered for resource %q", e.Name)
}

// IsNotRegistered reports whether err is or wraps a NotRegisteredError.
func IsNotRegistered(err error) bool {
	var nre *NotRegisteredError
	return errors.As(err, &nre)
}

// Registry maps resource names to handlers. It is populated at startup and
// read concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds a handler under name. Empty names, nil handlers and
// duplicate names are rejected.
func (r *Registry) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s - resource name is required", logPrefix)
	}
	if h == nil {
		return fmt.Errorf("%s - handler for %q is nil", logPrefix, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%s - resource %q is already registered", logPrefix, name)
	}
	r.handlers[name] = h
	slog.Debug(fmt.Sprintf("%s - registered handler for %s", logPrefix, name))
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, &NotRegisteredError{Name: name}
	}
	return h, nil
}

// Names returns the registered resource names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
