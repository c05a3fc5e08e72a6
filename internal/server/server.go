// Package server hosts the gin HTTP engine: health checking and
// graceful shutdown, with the command/query route surface registered
// by internal/httpapi.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the durable event log (when one is wired) is
// reachable. A nil Pinger means the process runs against the
// in-memory log and health checks skip connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a gin engine with a health endpoint and a graceful
// shutdown path.
type Server struct {
	Engine *gin.Engine
	Addr   string
	pinger Pinger
}

// New builds a Server bound to addr. mode selects gin's debug or
// release logging behavior.
func New(addr string, mode string, pinger Pinger) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	s := &Server{Engine: r, Addr: addr, pinger: pinger}
	r.GET("/health", s.healthHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			slog.Error("health check failed: event log unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "event log unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Run starts serving until ctx is cancelled, then shuts down within a
// bounded grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("starting HTTP server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
