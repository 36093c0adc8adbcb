// Package httpapi exposes the query service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// Timeouts for the HTTP server.
const (
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 5 * time.Minute // reindex runs inside the request
	ShutdownTimeout = 5 * time.Second

	maxBodyBytes = 1 << 20
)

// Server is the HTTP surface of kbquery.
type Server struct {
	query  driving.QueryService
	ingest driving.IngestService
	addr   string
}

// NewServer creates a server. ingest may be nil, which disables /ingest.
func NewServer(query driving.QueryService, ingest driving.IngestService, addr string) *Server {
	return &Server{query: query, ingest: ingest, addr: addr}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /reindex", s.handleReindex)
	mux.HandleFunc("GET /reindex/runs", s.handleRuns)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.ingest != nil {
		mux.HandleFunc("POST /ingest", s.handleIngest)
	}

	return requestIDMiddleware(loggingMiddleware(recoverMiddleware(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.Info("kbquery listening on %s", ln.Addr())

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
