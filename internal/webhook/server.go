package webhook

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/themepilot/themepilot/internal/config"
)

// Server is the trigger/dashboard HTTP server.
type Server struct {
	handler   *Handler
	dashboard http.Handler
	cfg       config.ServerConfig
	srv       *http.Server
}

// NewServer creates a Server. dashboard may be nil when only the
// trigger endpoint is wanted.
func NewServer(cfg config.ServerConfig, handler *Handler, dashboard http.Handler) *Server {
	return &Server{
		handler:   handler,
		dashboard: dashboard,
		cfg:       cfg,
	}
}

// Router builds the chi router; split out so tests can drive it
// without a listener.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(bodySizeLimitMiddleware(1 << 20))
	r.Post("/webhook", s.handler.HandleTrigger)
	if s.dashboard != nil {
		r.Mount("/", s.dashboard)
	}
	return r
}

// ListenAndServe starts the server with graceful shutdown. It blocks
// until the context is cancelled or a termination signal is received.
func (s *Server) ListenAndServe(ctx context.Context) error {
	port := s.cfg.Port
	if port == 0 {
		port = 8080
	}

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on :%d", port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Println("[server] shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// bodySizeLimitMiddleware limits the request body size.
func bodySizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
