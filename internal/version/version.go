// Package version implements the bracketed [major.minor.patch] tag
// embedded in a theme's display name.
package version

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// Layout controls zero padding when a version is rendered.
type Layout string

const (
	// LayoutPlain renders every field unpadded: 1.2.3.
	LayoutPlain Layout = "X.X.X"
	// LayoutPaddedPatch zero-pads the patch to two digits: 1.2.03.
	LayoutPaddedPatch Layout = "X.X.XX"
	// LayoutPaddedMinor zero-pads minor and patch: 1.02.03.
	LayoutPaddedMinor Layout = "X.XX.XX"
)

// fieldLimit is where a field rolls over into the next one. Two-digit
// padding caps a rendered field at 99.
const fieldLimit = 100

// Version is a parsed tag.
type Version struct {
	Major int
	Minor int
	Patch int
}

// tagPattern matches a bracketed version tag at the very end of a name,
// with optional whitespace before it.
var tagPattern = regexp.MustCompile(`\s*\[(\d+)\.(\d+)\.(\d+)\]$`)

// Extract parses a trailing [x.y.z] tag from a display name. It returns
// the tag (nil when absent) and the name with the tag stripped. A
// bracketed tag anywhere but the literal end of the name is ignored.
func Extract(name string) (*Version, string) {
	m := tagPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, name
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	base := strings.TrimSuffix(name, m[0])
	return &Version{Major: major, Minor: minor, Patch: patch}, base
}

// Parse reads a bare "x.y.z" string, as supplied by operators for
// starting or exact versions.
func Parse(s string) (*Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q: field %q is not a number", s, p)
		}
		nums[i] = n
	}
	return &Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Format renders a version under the given layout.
func Format(v Version, layout Layout) string {
	switch layout {
	case LayoutPaddedPatch:
		return fmt.Sprintf("%d.%d.%02d", v.Major, v.Minor, v.Patch)
	case LayoutPaddedMinor:
		return fmt.Sprintf("%d.%02d.%02d", v.Major, v.Minor, v.Patch)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// Initial is the first tag a previously untagged theme receives.
func Initial() Version {
	return Version{Major: 0, Minor: 0, Patch: 1}
}

// Bump increments the patch field, rolling fields over at 100. A nil
// current version yields the initial version. Overflowing the major
// field resets the whole version and logs a warning instead of failing.
func Bump(current *Version) Version {
	if current == nil {
		return Initial()
	}

	v := *current
	v.Patch++
	if v.Patch >= fieldLimit {
		v.Patch = 0
		v.Minor++
	}
	if v.Minor >= fieldLimit {
		v.Minor = 0
		v.Major++
	}
	if v.Major >= fieldLimit {
		log.Printf("[version] version %d.%d.%d overflowed major field, resetting to %s",
			current.Major, current.Minor, current.Patch, Format(Initial(), LayoutPlain))
		return Initial()
	}
	return v
}

// WithTag appends a rendered tag to a base display name.
func WithTag(base string, v Version, layout Layout) string {
	return strings.TrimRight(base, " ") + " [" + Format(v, layout) + "]"
}
