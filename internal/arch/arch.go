// Package arch resolves the instruction-set architecture identifier used to pick
// prebuilt tool binaries.
package arch

import (
	"runtime"
	"strings"

	"ytbridge/internal/domain/consts"
)

// abisByGOARCH lists ABI identifiers per Go architecture, most preferred first.
var abisByGOARCH = map[string][]string{
	"arm64": {"arm64-v8a"},
	"arm":   {"armeabi-v7a", "armeabi"},
	"amd64": {"x86_64"},
	"386":   {"x86"},
}

// Supported returns the ordered ABI list for the running platform.
//
// Returns nil on architectures with no prebuilt tools.
func Supported() []string {
	return SupportedFor(runtime.GOARCH)
}

// SupportedFor returns the ordered ABI list for goarch.
func SupportedFor(goarch string) []string {
	abis := abisByGOARCH[goarch]
	if abis == nil {
		return nil
	}
	out := make([]string, len(abis))
	copy(out, abis)
	return out
}

// Preferred returns the first usable entry of supported, or the default
// architecture when there is none.
func Preferred(supported []string) string {
	for _, a := range supported {
		if a = strings.TrimSpace(a); a != "" {
			return a
		}
	}
	return consts.DefaultArch
}
