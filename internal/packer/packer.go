// Package packer groups statement spans into size-bounded chunks.
package packer

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sqlsplit/internal/scanner"
)

// Chunk is an ordered, non-empty batch of statement spans destined for one
// output file. Index is assigned in emission order starting at 0 and fixes
// the output filename. TotalSize is the sum of the span sizes; it exceeds
// the configured ceiling only for an oversized singleton.
type Chunk struct {
	Index      int
	Statements []scanner.Statement
	TotalSize  int
}

// Policy controls what happens when a single statement alone exceeds the
// chunk size ceiling.
type Policy string

const (
	// PolicyAllow emits the statement as its own oversized chunk. Exceeding
	// the limit is preferred over truncating a statement.
	PolicyAllow Policy = "allow"

	// PolicyError aborts the run instead of exceeding the ceiling.
	PolicyError Policy = "error"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool { return p == PolicyAllow || p == PolicyError }

// ErrStatementTooLarge indicates a single statement exceeds the chunk size
// ceiling under PolicyError.
var ErrStatementTooLarge = errors.New("statement exceeds chunk size ceiling")

// OversizeError reports the offending statement's location and size.
type OversizeError struct {
	Offset  int
	Size    int
	MaxSize int
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("statement at byte %d is %d bytes, exceeds ceiling of %d", e.Offset, e.Size, e.MaxSize)
}

// Unwrap makes the error match ErrStatementTooLarge via errors.Is.
func (e *OversizeError) Unwrap() error { return ErrStatementTooLarge }

// EmitFunc receives each completed chunk. A blocking EmitFunc applies
// backpressure to the producer; a returned error aborts packing.
type EmitFunc func(Chunk) error

// Packer accumulates statements greedily: a chunk is emitted only when the
// next statement would push it past maxSize. No look-ahead or rebalancing is
// attempted, so chunk sizes vary by at most one statement below the ceiling.
type Packer struct {
	maxSize int
	policy  Policy
	emit    EmitFunc

	cur     []scanner.Statement
	curSize int
	next    int
}

// New returns a Packer that emits chunks of at most maxSize bytes.
func New(maxSize int, policy Policy, emit EmitFunc) *Packer {
	return &Packer{maxSize: maxSize, policy: policy, emit: emit}
}

// Add appends one statement to the current chunk, emitting the chunk first
// if the statement would not fit.
func (p *Packer) Add(st scanner.Statement) error {
	size := st.Size()

	if len(p.cur) > 0 && p.curSize+size > p.maxSize {
		err := p.Flush()
		if err != nil {
			return err
		}
	}

	if size > p.maxSize {
		if p.policy == PolicyError {
			return &OversizeError{Offset: st.Start, Size: size, MaxSize: p.maxSize}
		}

		// Oversized singleton: never split a statement.
		return p.emit(Chunk{Index: p.take(), Statements: []scanner.Statement{st}, TotalSize: size})
	}

	p.cur = append(p.cur, st)
	p.curSize += size

	return nil
}

// Flush emits the pending chunk, if any. Call once after the final Add.
func (p *Packer) Flush() error {
	if len(p.cur) == 0 {
		return nil
	}

	chunk := Chunk{Index: p.take(), Statements: p.cur, TotalSize: p.curSize}
	p.cur = nil
	p.curSize = 0

	return p.emit(chunk)
}

// take returns the next chunk index.
func (p *Packer) take() int {
	i := p.next
	p.next++

	return i
}
