package resource

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rules maps resource names to field validation tags.
type Rules map[string]map[string]any

// ParseRules reads a rules document of the form
//
//	items:
//	  dcterms:title: required,max=255
//
// Every tag must be a non-empty string the validator can compile.
func ParseRules(data []byte) (Rules, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s - parse rules: %w", logPrefix, err)
	}
	rules := make(Rules, len(raw))
	for resource, fields := range raw {
		rules[resource] = make(map[string]any, len(fields))
		for field, tag := range fields {
			if tag == "" {
				return nil, fmt.Errorf("%s - empty rule for %s.%s", logPrefix, resource, field)
			}
			rules[resource][field] = tag
		}
	}
	if err := rules.Check(validator.New()); err != nil {
		return nil, err
	}
	return rules, nil
}

// Check compiles every tag against v. An unknown validation function makes
// the validator panic at call time, so it is caught here instead.
func (r Rules) Check(v *validator.Validate) error {
	for _, resource := range sortedKeys(map[string]map[string]any(r)) {
		fields := r[resource]
		for _, field := range sortedKeys(fields) {
			tag, ok := fields[field].(string)
			if !ok || tag == "" {
				return fmt.Errorf("%s - invalid rule for %s.%s: tag must be a non-empty string", logPrefix, resource, field)
			}
			if err := compileTag(v, tag); err != nil {
				return fmt.Errorf("%s - invalid rule for %s.%s: %w", logPrefix, resource, field, err)
			}
		}
	}
	return nil
}

func compileTag(v *validator.Validate, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	_ = v.Var(nil, tag)
	return nil
}

// LoadRules reads rules from path. An empty path yields no rules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return Rules{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - read rules %s: %w", logPrefix, path, err)
	}
	return ParseRules(data)
}
