// Package http provides outbound HTTP client construction for external APIs.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client with explicit dial, TLS and response-header timeouts.
// http.DefaultClient has no timeout, so external calls must go through this.
// The overall request timeout comes from the caller; per-call deadlines can still be
// tightened with a context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
