// Package theme discovers themes on disk, checks them against the running
// platform version and reconciles the persisted theme inventory.
package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/semver"
)

const logPrefix = "theme:scan"

// DescriptorPath is the descriptor location inside a theme directory.
var DescriptorPath = filepath.Join("config", "theme.yaml")

// Theme states.
const (
	StateActive                 = "active"
	StateInvalidPlatformVersion = "invalid_platform_version"
	StateInvalidDescriptor      = "invalid_descriptor"
	StateNotFound               = "not_found"
)

// Descriptor is the content of config/theme.yaml.
type Descriptor struct {
	Name               string `yaml:"name"`
	Version            string `yaml:"version"`
	PlatformConstraint string `yaml:"platform_version_constraint"`
	Description        string `yaml:"description"`
	Author             string `yaml:"author"`
}

// DescriptorError reports a theme whose descriptor is missing or unusable.
type DescriptorError struct {
	ThemeID string
	Reason  string
	Err     error
}

func (e *DescriptorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("theme %s: %s: %v", e.ThemeID, e.Reason, e.Err)
	}
	return fmt.Sprintf("theme %s: %s", e.ThemeID, e.Reason)
}

func (e *DescriptorError) Unwrap() error { return e.Err }

// IsDescriptorError reports whether err is a *DescriptorError.
func IsDescriptorError(err error) bool {
	var de *DescriptorError
	return errors.As(err, &de)
}

// Theme is one theme directory found on disk.
type Theme struct {
	ID  string
	Dir string
	Descriptor
	// Err is set when the descriptor could not be read or is incomplete.
	Err error
}

// State returns the theme's state for the given platform version.
func (t *Theme) State(platformVersion string) string {
	if t.Err != nil {
		return StateInvalidDescriptor
	}
	ok, err := semver.Satisfies(platformVersion, t.PlatformConstraint)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - theme %s: %v", logPrefix, t.ID, err))
		return StateInvalidPlatformVersion
	}
	if !ok {
		return StateInvalidPlatformVersion
	}
	return StateActive
}

// Scan returns every subdirectory of dir as a theme, sorted by id. A
// subdirectory without a valid descriptor is still returned with Err set.
func Scan(dir string) ([]Theme, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - read themes dir %s: %w", logPrefix, dir, err)
	}

	var themes []Theme
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		themes = append(themes, load(e.Name(), filepath.Join(dir, e.Name())))
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })

	slog.Info(fmt.Sprintf("%s - Found %d themes in %s", logPrefix, len(themes), dir))
	return themes, nil
}

func load(id, dir string) Theme {
	t := Theme{ID: id, Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, DescriptorPath))
	if err != nil {
		t.Err = &DescriptorError{ThemeID: id, Reason: "missing " + DescriptorPath, Err: err}
		return t
	}
	if err := yaml.Unmarshal(data, &t.Descriptor); err != nil {
		t.Err = &DescriptorError{ThemeID: id, Reason: "parse descriptor", Err: err}
		return t
	}
	switch {
	case strings.TrimSpace(t.Name) == "":
		t.Err = &DescriptorError{ThemeID: id, Reason: "name is required"}
	case !semver.IsValid(t.Version):
		t.Err = &DescriptorError{ThemeID: id, Reason: fmt.Sprintf("invalid version %q", t.Version)}
	}
	return t
}
