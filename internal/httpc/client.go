// Package httpc provides shared HTTP clients with sensible defaults.
// Use this instead of http.DefaultClient to ensure timeouts are set.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second

	// DownloadTimeout bounds fetching a generated asset, which can be
	// tens of megabytes.
	DownloadTimeout = 5 * time.Minute
)

// Client is a shared HTTP client with production-ready defaults.
var Client = NewClient(DefaultTimeout)

// NewClient creates a new HTTP client with the specified timeout.
// For most cases, use the shared Client variable instead.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// OrDefault returns c, or the shared Client when c is nil.
func OrDefault(c *http.Client) *http.Client {
	if c == nil {
		return Client
	}
	return c
}

// IsSuccess reports whether an HTTP status code is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
