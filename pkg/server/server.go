// Package server exposes the article store over HTTP+JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

// NewRouter builds the gin engine serving the articles resource, a health
// check and Prometheus metrics.
func NewRouter(store Store, log *zap.Logger) *gin.Engine {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := newMetrics(reg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(log))
	router.Use(m.middleware())
	router.Use(corsMiddleware())

	h := NewHandler(store, log)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	articles := router.Group("/articles")
	articles.GET("", h.List)
	articles.POST("", h.Create)
	articles.GET("/:id", h.Show)
	articles.PATCH("/:id", h.Update)
	articles.PUT("/:id", h.Update)
	articles.DELETE("/:id", h.Destroy)

	return router
}

// Server is the articles HTTP server.
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New creates a Server listening on addr.
func New(addr string, store Store, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(store, log),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", zap.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped gracefully")
	return nil
}
