// Package version reports build information for the rulehub binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const develVersion = "(devel)"

var (
	Version   string // Set via ldflags.
	BuildDate string

	Revision  = getRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the ldflags version, then the module version from
// the build info, then the VCS revision.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if v := buildInfo.Main.Version; v != "" && v != develVersion {
			return v
		}
	}

	return Revision
}

// String returns a one-line build summary, e.g.
// "v1.2.0 (abc1234, go1.25.0 linux/amd64)".
func String() string {
	s := fmt.Sprintf("%s (%s, %s %s/%s", GetVersion(), Revision, GoVersion, GoOS, GoArch)
	if BuildDate != "" {
		s += ", built " + BuildDate
	}

	return s + ")"
}

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value[:min(len(v.Value), 7)]

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
