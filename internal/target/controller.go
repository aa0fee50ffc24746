// Package target mediates access to the single logical data target.
//
// Access is tracked with reference-counted tokens instead of a lock: every
// open StreamReader holds one reading token and every open StreamWriter holds
// the writing token. The counts are therefore always exactly the number of
// open streams, and releasing a stream can never desynchronise them.
package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/zynqcloud/go-target/internal/pattern"
)

const (
	// DefaultSize is the logical length reported when none is configured.
	DefaultSize uint64 = 512 * 1024 * 1024

	// DefaultBufferSize is the read-ahead used on the backed path.
	DefaultBufferSize = 512 * 1024

	// DefaultPath is a device that returns data but has no meaningful size.
	DefaultPath = "/dev/zero"
)

// Mode selects the stream implementation handed out by GetReader.
type Mode int

const (
	// ModeSynthetic serves the deterministic byte pattern.
	ModeSynthetic Mode = iota
	// ModeBacked serves the file at the configured path.
	ModeBacked
)

func (m Mode) String() string {
	if m == ModeBacked {
		return "backed"
	}
	return "synthetic"
}

// ParseMode accepts "synthetic" (or "mock") and "backed" (or "real").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "synthetic", "mock", "":
		return ModeSynthetic, nil
	case "backed", "real":
		return ModeBacked, nil
	default:
		return 0, fmt.Errorf("unknown target mode %q", s)
	}
}

// MountCheck reports whether the target at path has mounted partitions.
type MountCheck func(path string) bool

// NeverMounted is the default MountCheck.
func NeverMounted(string) bool { return false }

// Seek is an optional starting position for GetReader.
type Seek struct {
	Offset int64
	Whence int
}

// SeekStart returns a Seek to an absolute offset.
func SeekStart(offset int64) *Seek {
	return &Seek{Offset: offset, Whence: io.SeekStart}
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Path       string
	Mode       Mode
	Size       uint64
	BufferSize int
	FS         core.FS
	MountCheck MountCheck
}

// Controller is the single source of truth for the target's exclusivity state
// and the factory for its streams.
type Controller struct {
	path       string
	mode       Mode
	size       uint64
	bufferSize int
	fs         core.FS
	mounted    MountCheck

	readers Counter
	writers Counter
}

// New returns a Controller configured by opts.
func New(opts Options) *Controller {
	c := &Controller{}
	c.apply(opts)
	return c
}

func (c *Controller) apply(opts Options) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.FS == nil {
		opts.FS = billy.NewLocal()
	}
	if opts.MountCheck == nil {
		opts.MountCheck = NeverMounted
	}
	c.path = opts.Path
	c.mode = opts.Mode
	c.size = opts.Size
	c.bufferSize = opts.BufferSize
	c.fs = opts.FS
	c.mounted = opts.MountCheck
}

// Reconfigure replaces the controller's settings. Outstanding tokens are kept,
// so streams opened before the change are still counted. Callers must hold
// exclusive access (see Handle.Update).
func (c *Controller) Reconfigure(opts Options) {
	c.apply(opts)
}

// Path returns the backing resource identifier.
func (c *Controller) Path() string { return c.path }

// Mode returns the configured stream implementation.
func (c *Controller) Mode() Mode { return c.mode }

// Size returns the fixed logical length of the target.
func (c *Controller) Size() uint64 { return c.size }

// IsWriting reports whether a writing token is outstanding.
func (c *Controller) IsWriting() bool { return c.writers.Count() > 0 }

// ReadingCount returns the number of open readers.
func (c *Controller) ReadingCount() int { return c.readers.Count() }

// IsMounted reports whether the target currently has mounted partitions.
func (c *Controller) IsMounted() bool { return c.mounted(c.path) }

// Exists reports whether the backing resource can be found. Synthetic
// targets always exist.
func (c *Controller) Exists() (bool, error) {
	if c.mode == ModeSynthetic {
		return true, nil
	}
	return c.fs.Exists(c.path)
}

// GetReader returns a stream over the target and counts it as a reader until
// it is closed. seek is honoured on the backed path only; synthetic streams
// always start at offset 0 and can be positioned with StreamReader.Seek.
//
// The reading token is taken before the writer check, and GetWriter takes its
// token before the reader check, so a reader and a writer can never both be
// admitted.
func (c *Controller) GetReader(seek *Seek) (*StreamReader, error) {
	token := c.readers.Acquire()
	if c.IsWriting() {
		token.Release()
		return nil, ErrWriteInProgress
	}
	if c.IsMounted() {
		token.Release()
		return nil, ErrTargetMounted
	}

	if c.mode == ModeSynthetic {
		return newStreamReader(KindSynthetic, syntheticSource{pattern.New(c.size)}, token), nil
	}

	f, err := c.fs.OpenFile(c.path, os.O_RDONLY, 0)
	if err != nil {
		token.Release()
		return nil, ioFailure(err, "open", c.path)
	}
	src := &backedSource{file: f, buf: bufio.NewReaderSize(f, c.bufferSize), path: c.path}
	if seek != nil {
		if _, err := src.Seek(seek.Offset, seek.Whence); err != nil {
			f.Close() //nolint:errcheck
			token.Release()
			return nil, err
		}
	}
	return newStreamReader(KindBacked, src, token), nil
}

// GetWriter opens an exclusive write session. Only one writer may exist at a
// time and none while readers are open. The session accepts at most Size()
// bytes.
func (c *Controller) GetWriter() (*StreamWriter, error) {
	token, ok := c.writers.TryAcquireExclusive()
	if !ok {
		return nil, ErrWriteInProgress
	}
	if c.ReadingCount() > 0 {
		token.Release()
		return nil, ErrReadInProgress
	}
	if c.IsMounted() {
		token.Release()
		return nil, ErrTargetMounted
	}

	if c.mode == ModeSynthetic {
		return newStreamWriter(KindSynthetic, nil, c.path, c.size, token), nil
	}

	f, err := c.fs.OpenFile(c.path, os.O_WRONLY|os.O_CREATE, 0o640)
	if err != nil {
		token.Release()
		return nil, ioFailure(err, "open", c.path)
	}
	return newStreamWriter(KindBacked, f, c.path, c.size, token), nil
}
