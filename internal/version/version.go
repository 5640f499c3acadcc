// Package version holds build-time metadata injected via ldflags.
package version

import "fmt"

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = "unknown"
)

// SetInfo overrides build metadata. Empty values leave the defaults in place.
func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// String returns a single-line version summary for the version command.
func String() string {
	return fmt.Sprintf("lambdalabs %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}
