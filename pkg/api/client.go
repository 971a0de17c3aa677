// Package api implements the client side of the test-generation backend:
// the SSE setup stream, the synchronous script generation request, and the
// chunked container run stream.
package api

import (
	"net/http"
	"strings"
)

// Client talks to the test-generation backend over HTTP.
// it carries no retry, reconnect, or timeout logic: resilience is owned by
// the backend, and a dropped stream silently ends the run.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL.
// httpClient may be nil, in which case http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }
