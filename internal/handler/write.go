package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/zynqcloud/go-target/internal/middleware"
)

// WriteResponse is returned after a successful write session.
type WriteResponse struct {
	Kind   string `json:"kind"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Write streams the request body onto the target through an exclusive write
// session. The body is piped through a SHA-256 hasher; it is never held in
// memory.
//
// PUT /target
// Body: raw bytes, written from offset 0
func (h *Handler) Write(w http.ResponseWriter, r *http.Request) {
	h.metrics.WritesTotal.Add(1)
	log := h.logger.With("request_id", middleware.RequestIDFrom(r.Context()))

	s := h.target.Acquire()
	sw, err := s.GetWriter()
	s.Release()
	if err != nil {
		h.metrics.WritesFailed.Add(1)
		log.Warn("write refused", "err", err)
		writeError(w, statusFor(err), err)
		return
	}

	hasher := sha256.New()
	n, werr := io.Copy(sw, io.TeeReader(r.Body, hasher))
	cerr := sw.Close()
	h.metrics.BytesWritten.Add(n)

	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		h.metrics.WritesFailed.Add(1)
		log.Error("write failed", "bytes", n, "err", werr)
		writeError(w, statusFor(werr), werr)
		return
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	log.Info("write complete", "kind", sw.Kind().String(), "bytes", n, "sha256", hash)
	writeJSON(w, http.StatusOK, WriteResponse{
		Kind:   sw.Kind().String(),
		Size:   n,
		SHA256: hash,
	})
}
