// Package httpapi exposes the document, auth, device, reference and
// attachment services over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/strongholdapp/docsync/internal/logging"
	"github.com/strongholdapp/docsync/internal/server/config"
	"github.com/strongholdapp/docsync/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// Server wires the services into an http.Server with method-scoped routes.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

func NewServer(cfg *config.Config, logger logging.Logger,
	users *services.UserService, documents *services.DocumentService, attachments *services.AttachmentService) *Server {

	h := &handler{
		users:       users,
		documents:   documents,
		attachments: attachments,
		logger:      logger,
	}
	auth := authMiddleware([]byte(cfg.SecretKey))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ping", h.ping)
	mux.HandleFunc("POST /api/v1/auth/register", h.register)
	mux.HandleFunc("POST /api/v1/auth/login", h.login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.refresh)
	mux.Handle("GET /api/v1/documents/{id}", auth(http.HandlerFunc(h.getDocument)))
	mux.Handle("PUT /api/v1/documents/{id}", auth(http.HandlerFunc(h.upsertDocument)))
	mux.Handle("POST /api/v1/query", auth(http.HandlerFunc(h.query)))
	mux.Handle("PUT /api/v1/devices/{id}", auth(http.HandlerFunc(h.upsertDevice)))
	mux.Handle("GET /api/v1/reference", auth(http.HandlerFunc(h.referencePack)))
	mux.Handle("POST /api/v1/attachments/presign-put", auth(http.HandlerFunc(h.presignPut)))
	mux.Handle("GET /api/v1/attachments/presign-get", auth(http.HandlerFunc(h.presignGet)))

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.EndpointAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
