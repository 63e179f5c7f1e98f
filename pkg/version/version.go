// Package version exposes build metadata injected at link time via
// -ldflags "-X github.com/dqaudit/dqaudit/pkg/version.Version=...".
package version

var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the build metadata as a single human-readable line.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
