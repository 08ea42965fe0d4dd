// Package progress tracks pipeline counters and renders a live progress bar.
package progress

import "sync/atomic"

// State holds process-wide pipeline counters, updated atomically by the
// scanner, packer, and writer stages. Counters are monotonically
// non-decreasing for the duration of one run.
type State struct {
	BytesScanned   atomic.Int64
	StatementsSeen atomic.Int64
	ChunksWritten  atomic.Int64
	BytesWritten   atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	BytesScanned   int64
	StatementsSeen int64
	ChunksWritten  int64
	BytesWritten   int64
}

// Snapshot returns a consistent-enough copy for reporting. Individual loads
// are atomic; cross-counter skew of a few statements is acceptable for
// display purposes.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		BytesScanned:   s.BytesScanned.Load(),
		StatementsSeen: s.StatementsSeen.Load(),
		ChunksWritten:  s.ChunksWritten.Load(),
		BytesWritten:   s.BytesWritten.Load(),
	}
}
