package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/roaderr"
)

// statusWriter records the status code an inner handler wrote so the
// wrapping route function can feed it to observability.ObserveHTTP,
// mirroring the teacher's router.statusWriter.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorEnvelope is the §7 {error, code, details?} shape every endpoint
// returns on failure.
type errorEnvelope struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Details    any    `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	e := roaderr.As(err)
	writeJSON(w, e.Code.HTTPStatus(), errorEnvelope{
		Error:      e.Message,
		Code:       string(e.Code),
		Details:    e.Details,
		RetryAfter: e.RetryAfter,
	})
}

// withRoute wraps a handler with the teacher's timing+observe pattern:
// record wall-clock duration and the final status code against the named
// route once the inner handler returns.
func withRoute(logger *slog.Logger, route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}
