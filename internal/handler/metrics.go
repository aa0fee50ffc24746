package handler

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/zynqcloud/go-target/internal/target"
)

// Metrics holds process-lifetime atomic counters exposed at GET /metrics.
type Metrics struct {
	DownloadsTotal    atomic.Int64 // download requests that reached the handler
	DownloadsRejected atomic.Int64 // refused by the reader threshold or exclusivity
	DownloadsFailed   atomic.Int64 // stream aborted after headers were sent
	BytesServed       atomic.Int64
	WritesTotal       atomic.Int64
	WritesFailed      atomic.Int64
	BytesWritten      atomic.Int64
}

// metricsHandler serialises the counters plus live controller state.
// activeFunc reports in-flight download slots from the limiter.
func (m *Metrics) metricsHandler(h *target.Handle, activeFunc func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s := h.Acquire()
		reading := s.ReadingCount()
		writing := s.IsWriting()
		s.Release()

		var writingN int64
		if writing {
			writingN = 1
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{ //nolint:errcheck
			"downloads_total":    m.DownloadsTotal.Load(),
			"downloads_rejected": m.DownloadsRejected.Load(),
			"downloads_failed":   m.DownloadsFailed.Load(),
			"bytes_served":       m.BytesServed.Load(),
			"writes_total":       m.WritesTotal.Load(),
			"writes_failed":      m.WritesFailed.Load(),
			"bytes_written":      m.BytesWritten.Load(),
			"active_downloads":   int64(activeFunc()),
			"reading_count":      int64(reading),
			"writing":            writingN,
		})
	}
}
