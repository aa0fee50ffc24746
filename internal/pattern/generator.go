// Package pattern produces a deterministic synthetic byte stream used as a
// stand-in for real target content during load and throughput testing.
//
// The byte at absolute offset k is always byte(k % 256), so any window of the
// stream can be regenerated and verified without storing it.
package pattern

import (
	"io"

	"github.com/jmgilman/go/errors"
)

// chunkSize is the scratch buffer size used by WriteTo.
const chunkSize = 64 * 1024

// ErrInvalidSeek is returned when a seek resolves outside [0, limit).
var ErrInvalidSeek = errors.New(errors.CodeInvalidInput, "seek position outside of target")

// Generator is a seekable reader over limit bytes of the repeating 0..255
// pattern. It never blocks: every Read completes immediately.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	limit uint64
	pos   uint64
}

// New returns a Generator positioned at offset 0.
func New(limit uint64) *Generator {
	return &Generator{limit: limit}
}

// Len returns the total addressable length.
func (g *Generator) Len() uint64 { return g.limit }

// Pos returns the current cursor.
func (g *Generator) Pos() uint64 { return g.pos }

// Read fills p with min(len(p), limit-pos) pattern bytes. Once the cursor has
// reached limit it returns 0, io.EOF.
func (g *Generator) Read(p []byte) (int, error) {
	remaining := g.limit - g.pos
	if remaining == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if uint64(n) > remaining {
		n = int(remaining)
	}
	fill(p[:n], g.pos)
	g.pos += uint64(n)
	return n, nil
}

// Seek resolves offset against whence and moves the cursor. Seeking to limit
// or beyond is rejected even though a sequential Read may legitimately leave
// the cursor there.
func (g *Generator) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(g.pos)
	case io.SeekEnd:
		base = int64(g.limit)
	default:
		return int64(g.pos), errors.WrapWithContext(ErrInvalidSeek, errors.CodeInvalidInput,
			"unknown whence", map[string]interface{}{"whence": whence})
	}

	abs := base + offset
	if abs < 0 || uint64(abs) >= g.limit {
		return int64(g.pos), errors.WrapWithContext(ErrInvalidSeek, errors.CodeInvalidInput,
			"seek out of range", map[string]interface{}{"position": abs, "limit": g.limit})
	}
	g.pos = uint64(abs)
	return abs, nil
}

// WriteTo streams the remaining pattern into w.
func (g *Generator) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, err := g.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if m < n {
				return written, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return written, nil
		}
	}
}

// fill writes the pattern for the window starting at offset into p.
func fill(p []byte, offset uint64) {
	b := byte(offset)
	for i := range p {
		p[i] = b
		b++
	}
}
