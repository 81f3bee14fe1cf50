package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may run once a stop
// signal arrives. Media uploads are the longest requests we serve, so this
// stays generous.
var ShutdownTimeout = 15 * time.Second

// Server wraps http.Server with timeouts tuned for an API that accepts
// multipart media uploads: header reads are cut short, but bodies may
// stream for a while.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       90 * time.Second,
		},
	}
}

// Start begins serving HTTP traffic and blocks until the listener closes.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
