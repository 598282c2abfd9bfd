package bootstrap

import (
	"fmt"
	"log/slog"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "bootstrap:loader"

// SeedFileEnv names the environment variable holding a seed file path.
const SeedFileEnv = "OMEKA_SEED_FILE"

// LoadSeedConfig loads seed content from file paths or environment.
// It tries paths in order: first any paths passed in, then OMEKA_SEED_FILE,
// then defaults. JSON seed files parse as well since JSON is valid YAML.
func LoadSeedConfig(paths ...string) (*SeedConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(SeedFileEnv); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/seed.yaml", "seed.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg SeedConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse seed file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded seed config from %s (%d items)", logPrefix, p, cfg.Count()))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - No seed file found, using empty seed", logPrefix))
	return DefaultSeedConfig(), nil
}

// DefaultSeedConfig returns an empty seed.
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		Name:      "omeka-seed",
		Version:   "1.0.0",
		Resources: map[string][]map[string]any{},
	}
}

// MergeSeedConfigs merges override into base. Items for a resource present
// in both are appended after the base items.
func MergeSeedConfigs(base, override *SeedConfig) *SeedConfig {
	merged := *base
	merged.Resources = make(map[string][]map[string]any, len(base.Resources))
	maps.Copy(merged.Resources, base.Resources)

	for name, items := range override.Resources {
		merged.Resources[name] = append(append([]map[string]any(nil), merged.Resources[name]...), items...)
	}
	for _, name := range override.Order {
		if !contains(merged.Order, name) {
			merged.Order = append(merged.Order, name)
		}
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	return &merged
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
