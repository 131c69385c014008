// Package api provides the HTTP REST API for petkit-bridge.
//
// It exposes the device registry read-only and forwards control
// requests (feed, power, lock, cleaning actions) to the cloud. The
// server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start()
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/device"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/config"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *device.Registry
	Version  string
}

// Server is the HTTP API server for petkit-bridge.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry *device.Registry
	version  string
	server   *http.Server
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		registry: deps.Registry,
		version:  deps.Version,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler:      s.buildRouter(),
		ReadTimeout:  deps.Config.ReadTimeout(),
		WriteTimeout: deps.Config.WriteTimeout(),
		IdleTimeout:  deps.Config.IdleTimeout(),
	}
	return s, nil
}

// Start begins serving HTTP requests in a background goroutine.
func (s *Server) Start() {
	s.logger.Info("api server starting", "addr", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server failed", "error", err)
		}
	}()
}

// Close gracefully shuts down the server, waiting for in-flight
// requests up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
