package target

import (
	"github.com/jmgilman/go/errors"

	"github.com/zynqcloud/go-target/internal/pattern"
)

// CodeIOFailure marks failures of the underlying open/seek/write on the
// backing target.
const CodeIOFailure errors.ErrorCode = "IO_FAILURE"

var (
	// ErrWriteInProgress is returned when a reader or a second writer is
	// requested while a writing token is outstanding.
	ErrWriteInProgress = errors.WithClassification(
		errors.New(errors.CodeConflict, "target is already being written to right now"),
		errors.ClassificationRetryable)

	// ErrReadInProgress is returned when a writer is requested while reading
	// tokens are outstanding.
	ErrReadInProgress = errors.WithClassification(
		errors.New(errors.CodeConflict, "target is being read right now"),
		errors.ClassificationRetryable)

	// ErrTargetMounted is returned while the mount check reports active mounts.
	ErrTargetMounted = errors.WithClassification(
		errors.New(errors.CodeConflict, "target has mounted partitions; access while content may change is not allowed"),
		errors.ClassificationRetryable)

	// ErrWriteBeyondSize is returned when a write session is handed more bytes
	// than the target holds.
	ErrWriteBeyondSize = errors.New(errors.CodeInvalidInput, "write exceeds target size")

	// ErrInvalidSeek is returned when a seek resolves outside [0, size).
	ErrInvalidSeek = pattern.ErrInvalidSeek
)

// IsIOFailure reports whether err came from I/O on the backing target.
func IsIOFailure(err error) bool {
	return errors.GetCode(err) == CodeIOFailure
}

func ioFailure(err error, op, path string) error {
	return errors.WrapWithContext(err, CodeIOFailure, op+" target failed", map[string]interface{}{
		"op":   op,
		"path": path,
	})
}
