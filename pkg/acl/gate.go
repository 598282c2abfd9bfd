package acl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
)

const logPrefix = "acl:gate"

// Wildcard matches any resource or operation in a rule.
const Wildcard = "*"

// Gate answers whether the identity in ctx may perform op on resource.
type Gate interface {
	UserIsAllowed(ctx context.Context, resource string, op api.Operation) bool
}

// AllowAll permits every operation.
type AllowAll struct{}

// UserIsAllowed implements Gate.
func (AllowAll) UserIsAllowed(context.Context, string, api.Operation) bool { return true }

// Rules maps role -> resource -> allowed operations.
type Rules map[string]map[string][]string

// RoleGate grants an operation when any of the caller's roles has a
// matching rule.
type RoleGate struct {
	mu    sync.RWMutex
	rules Rules
}

// NewRoleGate creates a gate from rules.
func NewRoleGate(rules Rules) *RoleGate {
	g := &RoleGate{rules: Rules{}}
	for role, resources := range rules {
		for resource, ops := range resources {
			g.Allow(role, resource, ops...)
		}
	}
	return g
}

// Allow adds operations for role on resource. Either may be Wildcard.
func (g *RoleGate) Allow(role, resource string, ops ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rules[role] == nil {
		g.rules[role] = map[string][]string{}
	}
	g.rules[role][resource] = append(g.rules[role][resource], ops...)
}

// UserIsAllowed implements Gate.
func (g *RoleGate) UserIsAllowed(ctx context.Context, resource string, op api.Operation) bool {
	id := IdentityFrom(ctx)

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, role := range id.Roles {
		resources := g.rules[role]
		if resources == nil {
			continue
		}
		if matchOp(resources[resource], op) || matchOp(resources[Wildcard], op) {
			return true
		}
	}
	slog.Debug(fmt.Sprintf("%s - denied user=%q roles=%v op=%s resource=%s", logPrefix, id.UserID, id.Roles, op, resource))
	return false
}

func matchOp(ops []string, op api.Operation) bool {
	for _, o := range ops {
		if o == Wildcard || o == string(op) {
			return true
		}
	}
	return false
}

// rulesFile is the YAML layout of an ACL rules file:
//
//	roles:
//	  guest:
//	    items: [search, read]
//	  editor:
//	    "*": ["*"]
type rulesFile struct {
	Roles Rules `yaml:"roles"`
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s - parse rules: %w", logPrefix, err)
	}
	for role, resources := range f.Roles {
		for resource, ops := range resources {
			for _, op := range ops {
				if op != Wildcard && !api.IsValidOperation(api.Operation(op)) {
					return nil, fmt.Errorf("%s - role %q resource %q: unknown operation %q", logPrefix, role, resource, op)
				}
			}
		}
	}
	if f.Roles == nil {
		f.Roles = Rules{}
	}
	return f.Roles, nil
}

// LoadRoleGate reads a YAML rules file and builds a RoleGate from it.
func LoadRoleGate(path string) (*RoleGate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - read %s: %w", logPrefix, path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - loaded rules for %d roles from %s", logPrefix, len(rules), path))
	return NewRoleGate(rules), nil
}
