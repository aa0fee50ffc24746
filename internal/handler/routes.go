package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jmgilman/go/errors"

	"github.com/zynqcloud/go-target/internal/config"
	"github.com/zynqcloud/go-target/internal/middleware"
	"github.com/zynqcloud/go-target/internal/target"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	cfg     *config.Config
	target  *target.Handle
	logger  *slog.Logger
	metrics *Metrics
}

// New registers all routes and returns the root http.Handler.
//
// Middleware stack (outer → inner):
//
//	RequestID → RequestLog → DefaultHeaders → TrimTrailingSlash → ServeMux → DownloadLimiter → handler
func New(cfg *config.Config, h *target.Handle, logger *slog.Logger) http.Handler {
	hd := &Handler{
		cfg:     cfg,
		target:  h,
		logger:  logger,
		metrics: &Metrics{},
	}

	limiter := middleware.NewDownloadLimiter(cfg.MaxConcurrentDownloads)

	mux := http.NewServeMux()

	// ── Target stream ───────────────────────────────────────────────────────
	// GET also matches HEAD; HEAD answers with headers only.
	mux.Handle("GET /download", limiter.Limit(http.HandlerFunc(hd.Download)))
	mux.HandleFunc("PUT /target", hd.Write)

	// ── Observability ───────────────────────────────────────────────────────
	//
	// GET /              plain-text test page; must stay responsive while
	//                    every download slot is busy.
	// GET /health        liveness probe.
	// GET /healthz/ready readiness: target reachable and not mounted.
	// GET /metrics       atomic counters plus live reader/writer state.
	mux.HandleFunc("GET /{$}", hd.Index)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz/ready", hd.Readiness)
	mux.Handle("GET /metrics", hd.metrics.metricsHandler(h, limiter.Active))

	var root http.Handler = mux
	root = middleware.TrimTrailingSlash(root)
	root = middleware.DefaultHeaders(root)
	root = middleware.RequestLog(logger)(root)
	return middleware.RequestID(root)
}

// Readiness returns 200 when downloads can be served and 503 otherwise.
// Checks performed:
//  1. Backing target exists (always true in synthetic mode)
//  2. Target has no mounted partitions
func (h *Handler) Readiness(w http.ResponseWriter, _ *http.Request) {
	type check struct {
		Name string `json:"name"`
		OK   bool   `json:"ok"`
		Msg  string `json:"msg,omitempty"`
	}
	var checks []check
	allOK := true

	s := h.target.Acquire()
	exists, err := s.Exists()
	mounted := s.IsMounted()
	mode, reading, writing := s.Mode(), s.ReadingCount(), s.IsWriting()
	s.Release()

	switch {
	case err != nil:
		checks = append(checks, check{"target_accessible", false, "stat failed"})
		allOK = false
	case !exists:
		checks = append(checks, check{"target_accessible", false, "target not found"})
		allOK = false
	default:
		checks = append(checks, check{"target_accessible", true, mode.String()})
	}

	if mounted {
		checks = append(checks, check{"not_mounted", false, "target has mounted partitions"})
		allOK = false
	} else {
		checks = append(checks, check{"not_mounted", true, ""})
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":         allOK,
		"checks":        checks,
		"reading_count": reading,
		"writing":       writing,
	})
}

// statusFor maps core errors onto response statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, target.ErrInvalidSeek):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, target.ErrWriteBeyondSize):
		return http.StatusRequestEntityTooLarge
	case errors.GetCode(err) == errors.CodeConflict:
		return http.StatusConflict
	case errors.GetCode(err) == errors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError renders err in the structured error shape. Wrapped causes are
// never exposed, and server-side failures carry no context since it names
// backing paths.
func writeError(w http.ResponseWriter, status int, err error) {
	resp := errors.ToJSON(err)
	if status >= http.StatusInternalServerError {
		resp.Context = nil
	}
	writeJSON(w, status, resp)
}
