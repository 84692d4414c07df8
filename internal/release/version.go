package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-([a-zA-Z0-9.-]+))?$`)

// Version represents a semantic version
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses a release tag such as "0.3.1", "v0.3.1" or "v1.0.0-rc.1".
func ParseVersion(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return nil, fmt.Errorf("invalid version format: %s", s)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch, _ := strconv.Atoi(matches[3])

	return &Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: matches[4],
	}, nil
}

// String returns the string representation
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns 1 if v > other, 0 if equal and -1 if v < other.
// A stable version sorts above any prerelease of the same number;
// prereleases compare lexicographically.
func (v *Version) Compare(other *Version) int {
	for _, pair := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	} {
		if pair[0] != pair[1] {
			return cmpInt(pair[0], pair[1])
		}
	}

	switch {
	case v.Prerelease == other.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1
	case other.Prerelease == "":
		return -1
	case v.Prerelease > other.Prerelease:
		return 1
	default:
		return -1
	}
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(s, "v")
}

// IsNewer reports whether latest is a newer tag than installed. Tags that
// are not semantic versions are compared for equality only.
func IsNewer(latest, installed string) bool {
	if installed == "" {
		return true
	}
	lv, lerr := ParseVersion(latest)
	iv, ierr := ParseVersion(installed)
	if lerr != nil || ierr != nil {
		return NormalizeVersion(latest) != NormalizeVersion(installed)
	}
	return lv.IsGreaterThan(iv)
}

func cmpInt(a, b int) int {
	if a > b {
		return 1
	}
	return -1
}
