// Package version carries build metadata set with -ldflags.
package version

import "fmt"

// Set at link time, e.g.
//
//	-X github.com/ManuGH/smartplayer/internal/version.Version=v1.2.3
var (
	Version = "v0.1.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String is the one-line banner printed by -version.
func String() string {
	return fmt.Sprintf("smartplayer %s (commit: %s, built: %s)", Version, Commit, Date)
}
