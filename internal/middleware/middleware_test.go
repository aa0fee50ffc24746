package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/go-target/internal/middleware"
)

func TestDownloadLimiterRejectsWhenFull(t *testing.T) {
	l := middleware.NewDownloadLimiter(1)
	assert.Equal(t, 1, l.Cap())

	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		blocking.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/download", nil))
		close(done)
	}()
	<-entered
	assert.Equal(t, 1, l.Active())

	rec := httptest.NewRecorder()
	blocking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "1", rec.Header().Get("X-Active-Downloads"))
	assert.True(t, json.Valid(rec.Body.Bytes()))

	close(release)
	<-done
	assert.Equal(t, 0, l.Active())
}

func TestDownloadLimiterDefault(t *testing.T) {
	assert.Equal(t, 4, middleware.NewDownloadLimiter(0).Cap())
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	want := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, want)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, want, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "not a uuid\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not a uuid\n", seen)
}

func TestRequestLogRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.RequestID(middleware.RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout")) //nolint:errcheck
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http", entry["msg"])
	assert.Equal(t, "/pot", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, len("short and stout"), entry["response_bytes"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestDefaultHeaders(t *testing.T) {
	called := false
	h := middleware.DefaultHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, middleware.ServerName, rec.Header().Get("Server"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	called = false
	req := httptest.NewRequest(http.MethodOptions, "/download", nil)
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Range")
}

func TestTrimTrailingSlash(t *testing.T) {
	var got string
	h := middleware.TrimTrailingSlash(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
	}))

	for in, want := range map[string]string{
		"/download/":  "/download",
		"/download//": "/download",
		"/":           "/",
		"/health":     "/health",
	} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, in, nil))
		assert.Equal(t, want, got, in)
	}
}
