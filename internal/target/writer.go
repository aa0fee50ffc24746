package target

import (
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
)

// StreamWriter is an exclusive write session on the target. It holds the
// writing token until Close. In synthetic mode the bytes are counted and
// discarded. Writes are bounded by the target's logical size.
type StreamWriter struct {
	kind    Kind
	w       io.Writer
	file    core.File
	path    string
	limit   int64
	token   *Token
	cleanup runtime.Cleanup
	written atomic.Int64
	once    sync.Once
	err     error
}

func newStreamWriter(kind Kind, file core.File, path string, limit uint64, token *Token) *StreamWriter {
	w := &StreamWriter{kind: kind, file: file, path: path, limit: int64(limit), token: token, w: io.Discard}
	hold := streamHold{token: token}
	if file != nil {
		w.w = file
		hold.closer = file
	}
	w.cleanup = runtime.AddCleanup(w, streamHold.release, hold)
	return w
}

// Kind reports which implementation backs the writer.
func (w *StreamWriter) Kind() Kind { return w.kind }

// Written returns the number of bytes accepted so far.
func (w *StreamWriter) Written() int64 { return w.written.Load() }

// Write accepts bytes up to the target size. A write that would cross it
// stores the part that fits and fails with ErrWriteBeyondSize.
func (w *StreamWriter) Write(p []byte) (int, error) {
	if w.token.released.Load() {
		return 0, os.ErrClosed
	}
	room := w.limit - w.written.Load()
	over := int64(len(p)) > room
	if over {
		p = p[:max(room, 0)]
	}
	n, err := w.w.Write(p)
	w.written.Add(int64(n))
	if err != nil {
		return n, ioFailure(err, "write", w.path)
	}
	if over {
		return n, errors.WrapWithContext(ErrWriteBeyondSize, errors.CodeInvalidInput,
			"write exceeds target size", map[string]interface{}{"size": w.limit})
	}
	return n, nil
}

// Close flushes and closes the backing file, then releases the writing token.
func (w *StreamWriter) Close() error {
	w.once.Do(func() {
		w.cleanup.Stop()
		if w.file != nil {
			if err := w.file.Close(); err != nil {
				w.err = ioFailure(err, "close", w.path)
			}
		}
		w.token.Release()
	})
	return w.err
}
