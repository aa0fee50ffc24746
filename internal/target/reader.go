package target

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"

	"github.com/zynqcloud/go-target/internal/pattern"
)

// Kind identifies which implementation backs a stream.
type Kind int

const (
	// KindSynthetic streams generated pattern bytes.
	KindSynthetic Kind = iota
	// KindBacked streams the real backing file.
	KindBacked
)

func (k Kind) String() string {
	switch k {
	case KindSynthetic:
		return "synthetic"
	case KindBacked:
		return "backed"
	default:
		return "unknown"
	}
}

// source is the capability both stream variants provide.
type source interface {
	io.ReadSeeker
	io.Closer
}

// syntheticSource adapts a pattern generator; there is nothing to close.
type syntheticSource struct {
	*pattern.Generator
}

func (syntheticSource) Close() error { return nil }

// backedSource reads the backing file through a read-ahead buffer.
type backedSource struct {
	file core.File
	buf  *bufio.Reader
	path string
}

func (s *backedSource) Read(p []byte) (int, error) {
	return s.buf.Read(p)
}

// Seek moves the underlying file and drops any read-ahead. Relative seeks are
// corrected for the bytes the buffer has consumed but not yet handed out.
func (s *backedSource) Seek(offset int64, whence int) (int64, error) {
	seeker, ok := s.file.(io.Seeker)
	if !ok {
		return 0, ioFailure(errors.New(errors.CodeNotImplemented, "file is not seekable"), "seek", s.path)
	}
	if whence == io.SeekCurrent {
		offset -= int64(s.buf.Buffered())
	}
	pos, err := seeker.Seek(offset, whence)
	if err != nil {
		return 0, ioFailure(err, "seek", s.path)
	}
	s.buf.Reset(s.file)
	return pos, nil
}

func (s *backedSource) Close() error {
	return s.file.Close()
}

// StreamReader is a readable, seekable view of the target. It holds a reading
// token for as long as it is open; Close releases it. A reader that is
// dropped without Close releases its token when it is garbage collected.
//
// A StreamReader is not safe for concurrent use.
type StreamReader struct {
	kind    Kind
	src     source
	token   *Token
	cleanup runtime.Cleanup
	once    sync.Once
	err     error
}

func newStreamReader(kind Kind, src source, token *Token) *StreamReader {
	r := &StreamReader{kind: kind, src: src, token: token}
	r.cleanup = runtime.AddCleanup(r, streamHold.release, streamHold{closer: src, token: token})
	return r
}

// streamHold is what an unclosed stream still owns once it is unreachable.
type streamHold struct {
	closer io.Closer
	token  *Token
}

func (h streamHold) release() {
	if h.closer != nil {
		h.closer.Close() //nolint:errcheck
	}
	h.token.Release()
}

// Kind reports which implementation backs the reader.
func (r *StreamReader) Kind() Kind { return r.kind }

// Extent reports the length of the backing file when it is a regular file.
// Synthetic streams and device nodes report ok=false.
func (r *StreamReader) Extent() (uint64, bool) {
	b, ok := r.src.(*backedSource)
	if !ok {
		return 0, false
	}
	info, err := b.file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return uint64(info.Size()), true
}

// Read delegates to the active implementation.
func (r *StreamReader) Read(p []byte) (int, error) {
	if r.token.released.Load() {
		return 0, os.ErrClosed
	}
	return r.src.Read(p)
}

// Seek delegates to the active implementation. On a synthetic stream seeking
// to or past the end fails with ErrInvalidSeek.
func (r *StreamReader) Seek(offset int64, whence int) (int64, error) {
	if r.token.released.Load() {
		return 0, os.ErrClosed
	}
	return r.src.Seek(offset, whence)
}

// Close releases the reading token and any open file. It is safe to call more
// than once.
func (r *StreamReader) Close() error {
	r.once.Do(func() {
		r.cleanup.Stop()
		r.err = r.src.Close()
		r.token.Release()
	})
	return r.err
}
