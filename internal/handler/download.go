package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/jmgilman/go/errors"

	"github.com/zynqcloud/go-target/internal/middleware"
	"github.com/zynqcloud/go-target/internal/target"
)

// copyBufferSize is the chunk size used when draining a stream into the
// response.
const copyBufferSize = 256 * 1024

var errTooManyReaders = errors.New(errors.CodeUnavailable, "too many downloads in progress")

// Download streams the target as an attachment. A single "bytes=" range is
// honoured with 206; anything else serves the whole target.
//
// The shared handle is only held for the admission checks and GetReader; it
// is released before the first byte is written. The served length is the
// configured size, clamped to the backing file when that is a shorter
// regular file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.metrics.DownloadsTotal.Add(1)
	log := h.logger.With("request_id", middleware.RequestIDFrom(r.Context()))

	s := h.target.Acquire()
	if n := s.ReadingCount(); n >= h.cfg.MaxReaders {
		s.Release()
		h.metrics.DownloadsRejected.Add(1)
		err := errors.WithContext(errTooManyReaders, "reading_count", n)
		w.Header().Set("Retry-After", "5")
		writeError(w, statusFor(err), err)
		return
	}
	size := s.Size()
	reader, err := s.GetReader(nil)
	s.Release()
	if err != nil {
		h.metrics.DownloadsRejected.Add(1)
		log.Warn("download refused", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	defer reader.Close()

	if extent, ok := reader.Extent(); ok && extent < size {
		log.Warn("backing file shorter than configured size", "size", size, "extent", extent)
		size = extent
	}

	rng := byteRange{start: 0, length: size}
	partial := false
	if header := r.Header.Get("Range"); header != "" {
		parsed, ok, satisfiable := parseRange(header, size)
		if !satisfiable {
			h.metrics.DownloadsRejected.Add(1)
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatUint(size, 10))
			writeError(w, http.StatusRequestedRangeNotSatisfiable, target.ErrInvalidSeek)
			return
		}
		if ok {
			rng, partial = parsed, true
		}
	}

	if r.Method == http.MethodHead {
		h.writeDownloadHeaders(w, rng, size, partial)
		return
	}

	if rng.start > 0 {
		if _, err := reader.Seek(int64(rng.start), io.SeekStart); err != nil {
			h.metrics.DownloadsRejected.Add(1)
			writeError(w, statusFor(err), err)
			return
		}
	}

	h.writeDownloadHeaders(w, rng, size, partial)

	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(w, io.LimitReader(reader, int64(rng.length)), buf)
	h.metrics.BytesServed.Add(n)
	if err == nil && uint64(n) < rng.length {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		// Headers are already out; the client sees a short body.
		h.metrics.DownloadsFailed.Add(1)
		log.Warn("download aborted", "bytes", n, "want", rng.length, "err", err)
		return
	}
	log.Debug("download complete", "bytes", n, "kind", reader.Kind().String())
}

func (h *Handler) writeDownloadHeaders(w http.ResponseWriter, rng byteRange, size uint64, partial bool) {
	hdr := w.Header()
	hdr.Set("Content-Type", "application/octet-stream")
	hdr.Set("Accept-Ranges", "bytes")
	hdr.Set("Content-Disposition", "attachment; filename=target.img")
	hdr.Set("Content-Length", strconv.FormatUint(rng.length, 10))
	if partial {
		hdr.Set("Content-Range", rng.contentRange(size))
		w.WriteHeader(http.StatusPartialContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}
