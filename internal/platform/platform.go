// Package platform maps the host OS and architecture to the tag used in
// StewardX release asset names.
package platform

import (
	"fmt"
	"runtime"
)

// archTags maps architecture names to release naming.
// Both Go's GOARCH values and the uname-style names resolve to the same tag.
var archTags = map[string]string{
	"amd64":   "x64",
	"x86_64":  "x64",
	"386":     "x32",
	"x86":     "x32",
	"arm64":   "arm64",
	"aarch64": "arm64",
}

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (darwin, linux)
	Arch string // Architecture as reported by the runtime (amd64, arm64)
}

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// ArchTag normalizes an architecture name. Unknown names pass through unchanged.
func ArchTag(arch string) string {
	if tag, ok := archTags[arch]; ok {
		return tag
	}
	return arch
}

// Tag returns the canonical platform tag, e.g. "linux_x64".
func Tag(os, arch string) string {
	return fmt.Sprintf("%s_%s", os, ArchTag(arch))
}

// Tag returns the canonical platform tag for p.
func (p Platform) Tag() string {
	return Tag(p.OS, p.Arch)
}
