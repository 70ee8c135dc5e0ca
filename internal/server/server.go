// Package server exposes the signing pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pensign/pensign/internal/signing"
)

// multipartOverhead is headroom on top of the document size cap for
// multipart boundaries, part headers and the fields JSON.
const multipartOverhead = 1 << 20

// Server wires the signing service into an HTTP router.
type Server struct {
	svc           *signing.Service
	logger        *zap.Logger
	maxUploadSize int64
	httpServer    *http.Server
}

// New creates a server listening on addr.
func New(addr string, svc *signing.Service, logger *zap.Logger, maxUploadSize int64) *Server {
	s := &Server{
		svc:           svc,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recovery(s.logger))
	r.Use(requestLogger(s.logger))
	r.Use(maxBytes(s.maxUploadSize + multipartOverhead))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/signing", func(r chi.Router) {
		r.Post("/sessions", s.CreateSession)
		r.Get("/sessions/{token}", s.GetSession)
		r.Post("/submit", s.Submit)
	})

	return r
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
