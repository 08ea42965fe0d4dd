// Package writer persists chunks to sequentially named files with bounded
// concurrency.
package writer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/sqlsplit/internal/packer"
	"github.com/Sumatoshi-tech/sqlsplit/internal/progress"
)

// filePattern names output files by 1-based chunk number. The zero padding
// keeps directory listings sorted in chunk order.
const filePattern = "split_%06d.sql"

// lz4Suffix is appended to compressed output files.
const lz4Suffix = ".lz4"

// outputFileMode is the permission mode for created output files.
const outputFileMode = 0o644

// ErrOutputCollision indicates the destination file already exists, likely
// left over from a prior run. Existing files are never overwritten.
var ErrOutputCollision = errors.New("output file already exists")

// WriteError reports a failed chunk write with its destination path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *WriteError) Unwrap() error { return e.Err }

// Options configures a Pool.
type Options struct {
	// Dir is the output directory. It must exist.
	Dir string

	// Input is the scanned byte stream the chunk spans index into.
	Input []byte

	// Concurrency is the maximum number of in-flight writes. Must be >= 1.
	Concurrency int

	// Compress enables lz4 frame compression of output files.
	Compress bool

	// Progress receives chunk and byte counts as writes complete. Optional.
	Progress *progress.State
}

// Pool is a fixed set of workers draining a bounded chunk channel. Submit
// blocks while all workers are busy and the channel is full, applying
// backpressure to the packer. The first write failure stops new writes from
// starting; writes already in flight run to completion.
type Pool struct {
	opts   Options
	jobs   chan packer.Chunk
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewPool starts opts.Concurrency workers and returns the pool.
func NewPool(opts Options) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	p := &Pool{
		opts:   opts,
		jobs:   make(chan packer.Chunk, opts.Concurrency),
		group:  group,
		ctx:    ctx,
		cancel: cancel,
	}

	for range opts.Concurrency {
		p.group.Go(p.run)
	}

	return p
}

// Submit hands a chunk to the pool, blocking while all slots are occupied.
// Once a write has failed, Submit returns an error immediately so the
// producer stops; the underlying cause surfaces from Wait.
func (p *Pool) Submit(chunk packer.Chunk) error {
	select {
	case p.jobs <- chunk:
		return nil
	case <-p.ctx.Done():
		return context.Cause(p.ctx)
	}
}

// Wait closes the pool for submissions and blocks until all in-flight
// writes finish, returning the first write failure, if any.
func (p *Pool) Wait() error {
	p.once.Do(func() { close(p.jobs) })

	err := p.group.Wait()
	p.cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (p *Pool) run() error {
	for {
		select {
		case chunk, ok := <-p.jobs:
			if !ok {
				return nil
			}

			// A sibling may have failed while this chunk sat in the queue;
			// no new writes start after the first failure.
			if p.ctx.Err() != nil {
				return context.Cause(p.ctx)
			}

			err := p.write(chunk)
			if err != nil {
				return err
			}
		case <-p.ctx.Done():
			return context.Cause(p.ctx)
		}
	}
}

// write persists one chunk to its destination file. The file must not exist
// beforehand; O_EXCL makes the collision check atomic.
func (p *Pool) write(chunk packer.Chunk) error {
	path := filepath.Join(p.opts.Dir, FileName(chunk.Index, p.opts.Compress))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, outputFileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &WriteError{Path: path, Err: ErrOutputCollision}
		}

		return &WriteError{Path: path, Err: err}
	}

	err = p.writeBody(f, chunk)
	if err != nil {
		f.Close()

		return &WriteError{Path: path, Err: err}
	}

	err = f.Close()
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if p.opts.Progress != nil {
		p.opts.Progress.ChunksWritten.Add(1)
		p.opts.Progress.BytesWritten.Add(int64(chunk.TotalSize))
	}

	return nil
}

// writeBody streams the chunk's statement spans, in order, through the
// optional compressor into f.
func (p *Pool) writeBody(f *os.File, chunk packer.Chunk) error {
	var (
		dst io.Writer = f
		lzw *lz4.Writer
	)

	if p.opts.Compress {
		lzw = lz4.NewWriter(f)
		dst = lzw
	}

	buf := bufio.NewWriter(dst)

	for _, st := range chunk.Statements {
		_, err := buf.Write(p.opts.Input[st.Start:st.End])
		if err != nil {
			return err
		}
	}

	err := buf.Flush()
	if err != nil {
		return err
	}

	if lzw != nil {
		return lzw.Close()
	}

	return nil
}

// FileName returns the destination filename for a chunk index.
func FileName(index int, compressed bool) string {
	name := fmt.Sprintf(filePattern, index+1)
	if compressed {
		name += lz4Suffix
	}

	return name
}
