// SPDX-License-Identifier: EPL-2.0

// Package server exposes a Processor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ik5/speechrig/internal/metrics"
	"github.com/ik5/speechrig/pipeline"
)

type Config struct {
	Addr           string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	// Release switches gin to release mode.
	Release bool
}

type Server struct {
	cfg       Config
	processor *pipeline.Processor
	log       zerolog.Logger
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	router    *gin.Engine
}

// New wires the routes. gatherer backs /metrics; nil uses the default
// Prometheus registry.
func New(cfg Config, p *pipeline.Processor, log zerolog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		processor: p,
		log:       log,
		metrics:   m,
		gatherer:  gatherer,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.accessLog())

	router.GET("/health/self", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "true"})
	})
	router.GET("/health/models", s.handleModels)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/v1")
	{
		api.POST("/animations", s.handleAnimate)
		api.GET("/status", s.handleStatus)
	}

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		took := time.Since(start)

		s.metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), took)
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", c.Writer.Status()).
			Dur("took", took).
			Msg("http request")
	}
}
