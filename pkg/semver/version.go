// Package semver wraps Masterminds semver for platform and theme version
// checks.
package semver

import (
	"fmt"
	"regexp"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:version"

// majorOnly matches a bare major number such as "4", read as "^4".
var majorOnly = regexp.MustCompile(`^\d+$`)

// IsValid reports whether version parses as a semantic version.
func IsValid(version string) bool {
	_, err := masterminds.NewVersion(version)
	return err == nil
}

// Satisfies reports whether version meets constraint. An empty constraint
// accepts any valid version; a bare major number means that major line.
func Satisfies(version, constraint string) (bool, error) {
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return true, nil
	}
	if majorOnly.MatchString(constraint) {
		constraint = "^" + constraint
	}
	c, err := masterminds.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("%s - invalid constraint %q: %w", logPrefix, constraint, err)
	}
	return c.Check(v), nil
}

// Compare returns -1, 0 or 1 as a is older than, equal to or newer than b.
func Compare(a, b string) (int, error) {
	va, err := masterminds.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("%s - invalid version %q: %w", logPrefix, a, err)
	}
	vb, err := masterminds.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("%s - invalid version %q: %w", logPrefix, b, err)
	}
	return va.Compare(vb), nil
}
