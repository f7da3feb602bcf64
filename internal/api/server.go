// Package api provides the HTTP REST API for Ratewise Core.
//
// It exposes session endpoints (login, refresh, logout), account
// management, and the store/rating surface to clients. Authentication and
// authorisation decisions are delegated to the auth package; this package
// owns only the transport: extracting credentials, attaching identities to
// request contexts, and mapping error kinds onto HTTP responses.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
	"github.com/ratewise/ratewise-core/internal/infrastructure/config"
	"github.com/ratewise/ratewise-core/internal/infrastructure/logging"
	"github.com/ratewise/ratewise-core/internal/store"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Users    auth.UserRepository
	Stores   store.Repository
	Audit    audit.Repository
	Verifier *auth.Verifier
	Issuer   *auth.Issuer

	// Revocations is consulted by the verifier and written by the logout
	// path.
	Revocations auth.RevocationStore

	// Credentials verifies passwords at login. Optional: when nil, the
	// login endpoint responds 503 and every session must originate
	// elsewhere.
	Credentials auth.CredentialVerifier

	Version string
}

// Server is the HTTP API server for Ratewise Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	logger      *logging.Logger
	users       auth.UserRepository
	stores      store.Repository
	audit       audit.Repository
	verifier    *auth.Verifier
	issuer      *auth.Issuer
	revocations auth.RevocationStore
	credentials auth.CredentialVerifier
	version     string
	server      *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Verifier == nil || deps.Issuer == nil || deps.Revocations == nil {
		return nil, fmt.Errorf("verifier, issuer, and revocation store are required")
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		users:       deps.Users,
		stores:      deps.Stores,
		audit:       deps.Audit,
		verifier:    deps.Verifier,
		issuer:      deps.Issuer,
		revocations: deps.Revocations,
		credentials: deps.Credentials,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	if s.credentials == nil {
		s.logger.Warn("no credential verifier configured; login endpoint disabled")
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// auditLog records a session event, logging but not failing on error.
// Audit persistence problems must never break the request path.
func (s *Server) auditLog(ctx context.Context, action, userID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:  action,
		UserID:  userID,
		Details: details,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", "action", action, "error", err)
	}
}
