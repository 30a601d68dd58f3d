package httpctx

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPPrefersXRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Real-IP", "10.0.0.1")
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("got %q, want 10.0.0.1", got)
	}
}

func TestClientIPFallsBackToLastForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if got := ClientIP(r); got != "5.6.7.8" {
		t.Errorf("got %q, want 5.6.7.8", got)
	}
}

func TestClientIPUnknown(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := ClientIP(r); got != "unknown" {
		t.Errorf("got %q, want unknown", got)
	}
}
