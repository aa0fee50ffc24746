package handler

import (
	"fmt"
	"net/http"

	"github.com/docker/go-units"
)

// Index serves a plain-text page used to check that the server still answers
// while long downloads are running.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	s := h.target.Acquire()
	mode, size := s.Mode(), s.Size()
	s.Release()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, `Target stream test page. If you can read this, the server is responding.

How to test:
 - Start %[1]d downloads of /download (the number of download slots).
 - Reload this page; it must still load immediately.
 - A further download is refused with 503 until a slot frees up.

At most %[2]d readers may be open on the target at once; further downloads
are refused while that many are streaming.

The target is served as an unsized byte stream (mode: %[3]s, %[4]s).
In synthetic mode every byte at offset k has the value k mod 256.
`, h.cfg.MaxConcurrentDownloads, h.cfg.MaxReaders, mode, units.BytesSize(float64(size)))
}
