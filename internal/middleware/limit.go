package middleware

import (
	"net/http"
	"strconv"
)

const (
	// defaultDownloadConcurrency matches the service's HTTP worker count.
	defaultDownloadConcurrency = 4

	// retryAfterSeconds is the value of the Retry-After header sent on 503.
	retryAfterSeconds = "5"

	capacityErrorPayload = `{"code":"SERVICE_UNAVAILABLE","message":"all download slots busy, retry in 5s","classification":"RETRYABLE"}`
)

// DownloadLimiter caps the number of concurrently streaming downloads using a
// non-blocking channel semaphore. Only the download route is wrapped, so
// liveness probes and the index page never wait behind long streams. When
// every slot is busy new downloads get 503 + Retry-After immediately instead
// of queuing.
type DownloadLimiter struct {
	sem chan struct{}
}

// NewDownloadLimiter creates a limiter allowing at most maxConcurrent downloads.
func NewDownloadLimiter(maxConcurrent int) *DownloadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultDownloadConcurrency
	}
	return &DownloadLimiter{sem: make(chan struct{}, maxConcurrent)}
}

// Limit wraps a handler so that each request must acquire a slot before
// proceeding. Requests that cannot acquire immediately get 503.
func (l *DownloadLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case l.sem <- struct{}{}:
			defer func() { <-l.sem }()
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Retry-After", retryAfterSeconds)
			w.Header().Set("X-Active-Downloads", strconv.Itoa(len(l.sem)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(capacityErrorPayload)) //nolint:errcheck
		}
	})
}

// Active returns the number of download slots currently in use.
func (l *DownloadLimiter) Active() int { return len(l.sem) }

// Cap returns the maximum number of concurrent download slots.
func (l *DownloadLimiter) Cap() int { return cap(l.sem) }
