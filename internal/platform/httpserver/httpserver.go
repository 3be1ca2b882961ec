// Package httpserver builds the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// readHeaderTimeout bounds slow-header clients; per-request deadlines are
// the router middleware's job.
const readHeaderTimeout = 5 * time.Second

// New returns an HTTP server serving handler on addr.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
