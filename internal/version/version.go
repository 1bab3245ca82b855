package version

import "fmt"

var (
	// Version is the release of the build, overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA the binary was built from.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the bare version.
func Short() string {
	return Version
}

// Full returns the version together with commit and build time.
func Full() string {
	return fmt.Sprintf("kde-manifest-updater %s (commit %s, built %s)", Version, Commit, BuildTime)
}
