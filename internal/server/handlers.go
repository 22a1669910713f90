package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/models"
)

// MetricsHandler exposes a Prometheus handler on /metrics.
type MetricsHandler struct {
	http.Handler
}

func NewMetricsHandler(h http.Handler) *MetricsHandler {
	return &MetricsHandler{Handler: h}
}

func (h *MetricsHandler) Routes() []string { return []string{"/metrics"} }

// StatusHandler serves the last polled playback snapshot as JSON on /status.
type StatusHandler struct {
	status func() models.PlaybackStatus
}

func NewStatusHandler(status func() models.PlaybackStatus) *StatusHandler {
	return &StatusHandler{status: status}
}

func (h *StatusHandler) Routes() []string { return []string{"/status"} }

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HealthHandler answers 200 on /healthz.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"/healthz"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok\n"))
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request at debug level.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "took", time.Since(start))
		})
	}
}
