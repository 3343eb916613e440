// Package server exposes a Pipeline over HTTP so host applications and the
// serve command can fetch combined assets by URL.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/assetpipeline/internal/assets"
	"github.com/conneroisu/assetpipeline/internal/logging"
)

// Builder produces the combined output for one request.
type Builder interface {
	Build(ctx context.Context, kind assets.Kind, target string) (string, error)
}

// Config holds the HTTP settings.
type Config struct {
	// Addr is the listen address, for example "localhost:8080".
	Addr string
	// Prefix is the URL path the asset routes live under.
	Prefix string
	// AllowedOrigins get CORS headers. Empty disables CORS.
	AllowedOrigins []string
	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout time.Duration
}

// DefaultConfig serves /assets on localhost:8080.
func DefaultConfig() Config {
	return Config{
		Addr:              "localhost:8080",
		Prefix:            "/assets",
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// AssetServer serves combined assets.
type AssetServer struct {
	builder     Builder
	config      Config
	logger      logging.Logger
	handler     http.Handler
	httpServer  *http.Server
	serverMutex sync.RWMutex

	// stopping is set once Shutdown has begun on httpServer.
	stopping bool
}

// New builds the routes for builder. A nil logger discards records.
func New(builder Builder, cfg Config, logger logging.Logger) *AssetServer {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}

	s := &AssetServer{
		builder: builder,
		config:  cfg,
		logger:  logger.WithComponent("server"),
	}

	mux := http.NewServeMux()
	for _, kind := range assets.Kinds {
		mux.HandleFunc(fmt.Sprintf("GET %s/%s/{path...}", cfg.Prefix, kind), s.handleAsset(kind))
	}
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.addMiddleware(mux)
	return s
}

// Handler returns the routes wrapped in middleware, for mounting in another
// server.
func (s *AssetServer) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done or
// Shutdown is called.
func (s *AssetServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or Shutdown is called.
func (s *AssetServer) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.serverMutex.Lock()
	s.httpServer = server
	s.stopping = false
	s.serverMutex.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, err, "Graceful shutdown failed")
		}
	})
	defer stop()

	s.logger.Info(ctx, "Serving assets", "addr", ln.Addr().String(), "prefix", s.config.Prefix)

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the running server. It is a no-op when nothing
// is serving or another call already stopped the current server.
func (s *AssetServer) Shutdown(ctx context.Context) error {
	s.serverMutex.Lock()
	server := s.httpServer
	if server == nil || s.stopping {
		s.serverMutex.Unlock()
		return nil
	}
	s.stopping = true
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Shutting down server")
	return server.Shutdown(ctx)
}
