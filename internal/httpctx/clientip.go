// Package httpctx holds small request-derived helpers shared by HTTP
// handlers and middleware.
package httpctx

import (
	"net/http"
	"strings"
)

// ClientIP derives the caller's address per §4.8: prefer X-Real-IP; else
// the last element of X-Forwarded-For (the hop nearest the trusted proxy,
// not the client-forgeable first hop); else "unknown".
func ClientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		last := strings.TrimSpace(parts[len(parts)-1])
		if last != "" {
			return last
		}
	}
	return "unknown"
}
