// Package httpclient configures the HTTP client used to call upstream
// feed/geocoder/routing services.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound creates a pooled outbound http client. Callers layer a
// per-call context.WithTimeout on top for the tighter deadlines spec'd
// per upstream (fetch: 30s, zone: 15s, route: 30s); the client-level
// timeout here is a last-resort ceiling.
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   128,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   45 * time.Second,
	}
}
