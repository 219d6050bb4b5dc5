package api

import (
	"context"
	"net/http"
	"time"

	"github.com/storeops-dev/backoffice-backend/pkg/logger"
)

const shutdownGrace = 15 * time.Second

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	httpServer *http.Server
	logg       *logger.Logger
}

func NewServer(addr string, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logg: logg,
	}
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.logg != nil {
		s.logg.Info(context.Background(), "draining http server")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
