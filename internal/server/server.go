// ABOUTME: hookpanel HTTP server wiring config, store, drafts, auth and console together
// ABOUTME: Owns the listener lifecycle with graceful shutdown on context cancellation

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/config"
	"github.com/2389/hookpanel/internal/console"
	"github.com/2389/hookpanel/internal/draft"
	"github.com/2389/hookpanel/internal/provision"
	"github.com/2389/hookpanel/internal/store"
)

// shutdownTimeout bounds graceful shutdown after the context is canceled.
const shutdownTimeout = 5 * time.Second

// Server is the hookpanel process: one HTTP server in front of the console.
type Server struct {
	config     *config.Config
	store      store.Store
	drafts     *draft.Cache
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a server from cfg, opening the SQLite store at
// cfg.Database.Path.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	srv, err := NewWithStore(cfg, s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithStore builds a server on an existing store. The server takes
// ownership of st and closes it on shutdown.
func NewWithStore(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}

	prov, err := newProvisioner(cfg.Matrix)
	if err != nil {
		return nil, err
	}

	drafts := draft.NewCache(cfg.Console.DraftTTL, cfg.Console.MaxDrafts)

	c, err := console.New(st, drafts, prov, verifier, console.Config{
		BaseURL:   cfg.Console.BaseURL,
		PluginID:  cfg.Console.PluginID,
		SettingID: cfg.Console.SettingID,
		HelpText:  cfg.Console.HelpText,
	})
	if err != nil {
		drafts.Close()
		return nil, fmt.Errorf("creating console: %w", err)
	}

	mux := http.NewServeMux()
	c.RegisterRoutes(mux)

	return &Server{
		config: cfg,
		store:  st,
		drafts: drafts,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "server"),
	}, nil
}

// newProvisioner picks the Matrix provisioner when enabled.
func newProvisioner(cfg config.MatrixConfig) (provision.Provisioner, error) {
	if !cfg.Enabled {
		return provision.Noop{}, nil
	}
	m, err := provision.NewMatrix(provision.MatrixConfig{
		Homeserver:  cfg.Homeserver,
		UserID:      cfg.UserID,
		AccessToken: cfg.AccessToken,
		ServerName:  cfg.ServerName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating matrix provisioner: %w", err)
	}
	return m, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Server.HTTPAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases the store and draft cache.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	s.drafts.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}
