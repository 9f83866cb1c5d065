// pkg/version/version.go
// Package version holds build-time metadata for the replica-tracer binary.
// Values are intended to be injected via -ldflags at compile time, e.g.:
//
//	go build -ldflags "-X 'github.com/xet7/tigerbeetle/pkg/version.version=v0.1.0' \
//	                      -X 'github.com/xet7/tigerbeetle/pkg/version.commit=$(git rev-parse --short HEAD)' \
//	                      -X 'github.com/xet7/tigerbeetle/pkg/version.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)'" ./cmd/replica-tracer
//
// If any variable is left empty, it falls back to a placeholder so that
// String() always returns a non-empty string.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// String returns a human-readable representation suitable for --version
// output and startup log lines.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

// Components returns the individual pieces, for structured log fields.
func Components() (ver, gitCommit, buildDate string) {
	return version, commit, date
}
