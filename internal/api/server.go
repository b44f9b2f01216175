// Package api serves stored articles and manual controls over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/ingest"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is what the handlers need from the ingestion coordinator.
type Service interface {
	Articles(ctx context.Context) ([]domain.Article, error)
	RunPass(ctx context.Context) (ingest.Report, error)
	Clear(ctx context.Context) (int, error)
}

// Server is the HTTP server with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logger.Logger
}

// NewServer builds the router. metrics may be nil, in which case /metrics is
// not registered.
func NewServer(addr string, svc Service, metrics http.Handler, log logger.Logger) *Server {
	log = logger.Ensure(log)
	router := NewRouter(svc, metrics, log)
	return &Server{
		router: router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// NewRouter returns a gin engine with every route and middleware attached.
func NewRouter(svc Service, metrics http.Handler, log logger.Logger) *gin.Engine {
	log = logger.Ensure(log)
	router := gin.New()
	router.Use(recoveryMiddleware(log), loggerMiddleware(log))

	h := &handlers{svc: svc, log: log}
	router.GET("/health", h.health)
	router.GET("/articles", h.articles)
	router.GET("/scrape-now", h.scrapeNow)
	router.POST("/clear-db", h.clear)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "http_start", map[string]any{"addr": s.server.Addr})
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.InfoObj("http server stopped", "http_stop", nil)
	return nil
}
