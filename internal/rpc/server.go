// Package rpc implements the RPC Dispatcher: an HTTP/1.1 server bound to
// a Unix-domain stream socket, routing the container-platform volume
// plugin protocol's endpoints to a VolumeDriver.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	socketPath string
	logger     *slog.Logger
}

// New binds a Unix-domain socket at socketPath (unlinking any stale file
// left behind by a previous run) and wires the plugin protocol's routes
// to driver.
func New(socketPath string, driver VolumeDriver, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))

	h := NewHandler(driver, logger)
	registerRoutes(router, h)

	return &Server{
		httpServer: &http.Server{
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Serve blocks, accepting connections until Shutdown is called.
func (s *Server) Serve() error {
	s.logger.Info("rpc dispatcher listening", "socket", s.socketPath)
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("rpc dispatcher: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("rpc dispatcher shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	_ = os.Remove(s.socketPath)
	return nil
}
