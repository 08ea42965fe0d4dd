// Package splitter orchestrates the scan → pack → write pipeline.
package splitter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Sumatoshi-tech/sqlsplit/internal/packer"
	"github.com/Sumatoshi-tech/sqlsplit/internal/progress"
	"github.com/Sumatoshi-tech/sqlsplit/internal/scanner"
	"github.com/Sumatoshi-tech/sqlsplit/internal/writer"
)

// Options configures a single split run.
type Options struct {
	// InputPath is the SQL file to split.
	InputPath string

	// OutputDir receives one file per chunk. It must exist.
	OutputDir string

	// MaxSize is the chunk size ceiling in bytes. Must be > 0.
	MaxSize int

	// Concurrency is the writer pool size. Must be >= 1.
	Concurrency int

	// Oversized selects the policy for statements larger than MaxSize.
	Oversized packer.Policy

	// Compress enables lz4 compression of output files.
	Compress bool

	// Progress receives live counters. Optional.
	Progress *progress.State

	// Logger receives per-chunk debug and summary logs. Optional.
	Logger *slog.Logger
}

// Result summarizes a completed run.
type Result struct {
	Statements   int64
	Chunks       int64
	BytesWritten int64
	Elapsed      time.Duration
}

// Run splits the input file end to end and returns the first fatal error
// encountered in any stage. Scanning and packing are sequential; only
// writes run concurrently. Output files hold the input's statements in
// original order, partitioned contiguously.
func Run(opts Options) (*Result, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	state := opts.Progress
	if state == nil {
		state = &progress.State{}
	}

	input, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	pool := writer.NewPool(writer.Options{
		Dir:         opts.OutputDir,
		Input:       input,
		Concurrency: opts.Concurrency,
		Compress:    opts.Compress,
		Progress:    state,
	})

	pk := packer.New(opts.MaxSize, opts.Oversized, func(chunk packer.Chunk) error {
		logger.Debug("chunk ready",
			"index", chunk.Index,
			"statements", len(chunk.Statements),
			"bytes", chunk.TotalSize)

		return pool.Submit(chunk)
	})

	err = drive(scanner.New(input), pk, state)

	// Let in-flight writes finish even when an upstream stage failed, so
	// partial output can be inspected. The earliest error wins.
	poolErr := pool.Wait()
	if err == nil {
		err = poolErr
	}

	if err != nil {
		return nil, err
	}

	snap := state.Snapshot()
	result := &Result{
		Statements:   snap.StatementsSeen,
		Chunks:       snap.ChunksWritten,
		BytesWritten: snap.BytesWritten,
		Elapsed:      time.Since(start),
	}

	logger.Debug("split complete",
		"statements", result.Statements,
		"chunks", result.Chunks,
		"bytes", result.BytesWritten,
		"elapsed", result.Elapsed)

	return result, nil
}

// drive feeds scanned statements into the packer. Statements are fed with
// one span of look-behind so that a trailing run of pure whitespace or
// comments can be folded into the final statement, keeping the
// concatenation of all output files byte-identical to the input.
func drive(sc *scanner.Scanner, pk *packer.Packer, state *progress.State) error {
	var (
		pending scanner.Statement
		have    bool
	)

	for sc.Scan() {
		st := sc.Statement()
		state.BytesScanned.Add(int64(st.Size()))
		state.StatementsSeen.Add(1)

		if have {
			err := pk.Add(pending)
			if err != nil {
				return err
			}
		}

		pending = st
		have = true
	}

	err := sc.Err()
	if err != nil {
		return err
	}

	if have {
		if rem := sc.Remainder(); !rem.IsZero() {
			state.BytesScanned.Add(int64(rem.Size()))
			pending.End = rem.End
		}

		err = pk.Add(pending)
		if err != nil {
			return err
		}
	}

	return pk.Flush()
}
