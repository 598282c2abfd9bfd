// Package bootstrap loads seed content and feeds it through the dispatcher
// so that seeded resources pass the same validation and events as API calls.
package bootstrap

import "sort"

// SeedConfig is the root of a seed file.
type SeedConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
	// Order lists resources to seed first, in order. Remaining resources
	// follow in name order.
	Order     []string                    `yaml:"order,omitempty"`
	Resources map[string][]map[string]any `yaml:"resources"`
}

// ResourceNames returns the resource names to seed in seeding order.
func (c *SeedConfig) ResourceNames() []string {
	seen := make(map[string]bool, len(c.Resources))
	names := make([]string, 0, len(c.Resources))
	for _, name := range c.Order {
		if _, ok := c.Resources[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	rest := make([]string, 0, len(c.Resources))
	for name := range c.Resources {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Count returns the total number of seed items.
func (c *SeedConfig) Count() int {
	n := 0
	for _, items := range c.Resources {
		n += len(items)
	}
	return n
}
