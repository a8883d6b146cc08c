// Package http_client builds the HTTP client shared by the actions that talk
// to HTTP endpoints, so they reuse TCP connections across calls.
package http_client

import (
	"net/http"
	"time"
)

// DefaultTimeout is used when New is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// New returns a pooled client whose requests time out after timeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Close releases the client's idle connections.
func Close(client *http.Client) {
	if client != nil {
		client.CloseIdleConnections()
	}
}

// OrDefault returns client, or a fresh default client when it is nil.
func OrDefault(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return New(0)
}
