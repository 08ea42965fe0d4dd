// Package units provides binary size unit multipliers (1024-based).
// The --max-size flag is expressed in KiB; chunk accounting is in bytes.
package units

// Binary size multipliers.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)
