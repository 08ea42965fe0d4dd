// Package version records build-time version information for sqlsplit.
package version

// Populated at build time via -ldflags, e.g.
// -X github.com/Sumatoshi-tech/sqlsplit/pkg/version.Version=v1.2.3.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
