// Package server assembles the HTTP surface: middleware, cookie sessions,
// page routes, static files, health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"members/internal/auth"
	"members/internal/config"
	"members/internal/metrics"
)

// HealthFunc reports the health of one dependency. A "status" key of "up"
// means healthy.
type HealthFunc func(ctx context.Context) map[string]string

// PingHealth adapts a ping-style check into a HealthFunc.
func PingHealth(ping func(ctx context.Context) error) HealthFunc {
	return func(ctx context.Context) map[string]string {
		if err := ping(ctx); err != nil {
			return map[string]string{"status": "down", "error": err.Error()}
		}
		return map[string]string{"status": "up"}
	}
}

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg     *config.Config
	auth    *auth.Handler
	metrics *metrics.Metrics
	logger  *slog.Logger
	health  map[string]HealthFunc
}

// New creates a server. health maps dependency names to their checks.
func New(cfg *config.Config, authHandler *auth.Handler, m *metrics.Metrics, logger *slog.Logger, health map[string]HealthFunc) *Server {
	return &Server{
		cfg:     cfg,
		auth:    authHandler,
		metrics: m,
		logger:  logger,
		health:  health,
	}
}

// HTTPServer configures the net/http server around RegisterRoutes
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
