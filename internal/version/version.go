package version

// Set at build time via -ldflags, e.g.
// go build -ldflags "-X github.com/pysugar/code-converter/internal/version.Version=v1.0.0"
var (
	// Version is reported by the banner and health endpoints.
	Version = "1.0.0"

	// Commit is the git commit hash
	Commit = "none"

	// BuildTime is the timestamp of the build
	BuildTime = "unknown"
)

// String renders the version with commit info when it was stamped at build time.
func String() string {
	if Commit == "" || Commit == "none" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
