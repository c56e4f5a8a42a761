// Package httpserver builds the process HTTP server with the timeouts this
// service runs with everywhere.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for handler on addr. ReadHeaderTimeout bounds
// slow-header clients; handlers enforce their own deadlines beyond that.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
