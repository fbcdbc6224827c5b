// Package adminapi implements the Administrative API: a TLS-secured,
// chi-routed HTTPS+JSON surface mirroring (by hand) the IDL method set the
// original daemon exposed over Thrift. The first call on every connection's
// session must be logonConnection; every other call carries an authToken
// and is checked against the permission bit(s) it requires.
package adminapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogon-project/sessionmgr/pkg/authmodule"
	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/tasks"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second

	defaultTokenTTL    = 12 * time.Hour
	defaultCallTimeout = 5 * time.Second
)

// Config configures a Server. ListenAddr is required for Serve; when
// CertFile or KeyFile is empty, Serve uses a generated self-signed
// certificate instead. Auth is the external credential-validation
// collaborator consulted by logonConnection.
type Config struct {
	ListenAddr string
	CertFile   string
	KeyFile    string
	Auth       authmodule.Module

	// TokenTTL and CallTimeout default to sane values when zero.
	TokenTTL    time.Duration
	CallTimeout time.Duration

	// HMACSecret signs issued authTokens. A random secret is generated if
	// empty, which is sufficient for a single process's lifetime since
	// tokens are never expected to survive a restart.
	HMACSecret []byte
}

// Server is the administrative API's HTTP surface. It holds no session
// state of its own; every handler reaches into ctx's registries.
type Server struct {
	cfg    Config
	ctx    *tasks.Context
	tokens *tokenIssuer
	router chi.Router

	httpSrv  *http.Server
	listener net.Listener

	// creatorPID guards against closing a listener from a forked worker
	// process, mirroring the original SSL socket's close-in-child guard:
	// the admin-API host may fork workers after the listener is bound, and
	// only the creating process should ever tear it down.
	creatorPID int
}

// NewServer constructs a Server bound to ctx, ready for Serve.
func NewServer(cfg Config, ctx *tasks.Context) (*Server, error) {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if len(cfg.HMACSecret) == 0 {
		secret, err := randomSecret(32)
		if err != nil {
			return nil, fmt.Errorf("adminapi: generate token secret: %w", err)
		}
		cfg.HMACSecret = secret
	}

	s := &Server{
		cfg:        cfg,
		ctx:        ctx,
		tokens:     newTokenIssuer(cfg.HMACSecret, cfg.TokenTTL),
		creatorPID: os.Getpid(),
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Timeout(middlewareTimeout),
	)

	r.Post("/otsapi/getVersionInfo", errorHandler(s.handleGetVersionInfo))
	r.Post("/otsapi/logonConnection", errorHandler(s.handleLogonConnection))
	r.Post("/otsapi/ping", s.requireAnyToken(s.handlePing))
	r.Post("/otsapi/getPermissionForToken", s.requireAnyToken(s.handleGetPermissionForToken))
	r.Post("/otsapi/logoffConnection", s.requireAnyToken(s.handleLogoffConnection))

	r.Post("/otsapi/virtualChannelOpen", s.requirePermission(vcPermission, s.handleVirtualChannelOpen))
	r.Post("/otsapi/virtualChannelClose", s.requirePermission(vcPermission, s.handleVirtualChannelClose))
	r.Post("/otsapi/disconnectSession", s.requirePermission(disconnectPermission, s.handleDisconnectSession))
	r.Post("/otsapi/logoffSession", s.requirePermission(logoffPermission, s.handleLogoffSession))
	r.Post("/otsapi/enumerateSessions", s.requirePermission(queryPermission, s.handleEnumerateSessions))
	r.Post("/otsapi/querySessionInformation", s.requirePermission(queryPermission, s.handleQuerySessionInformation))
	r.Post("/otsapi/startRemoteControlSession", s.requirePermission(remoteControlPermission, s.handleStartRemoteControlSession))
	r.Post("/otsapi/stopRemoteControlSession", s.requirePermission(remoteControlPermission, s.handleStopRemoteControlSession))
	r.Post("/otsapi/sendMessage", s.requirePermission(messagePermission, s.handleSendMessage))

	return r
}

// Serve binds the TLS listener and runs until ctx is canceled, then shuts
// the HTTP server down gracefully. It blocks until Shutdown completes.
func (s *Server) Serve(ctx context.Context) error {
	cert, err := s.loadOrGenerateCert()
	if err != nil {
		return fmt.Errorf("adminapi: load TLS certificate: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		// The admin API authenticates callers by authToken, not by client
		// certificate: peer-cert authorization is deliberately disabled,
		// mirroring OgonSSLSocket::authorize()'s unconditional no-op.
		ClientAuth: tls.NoClientCert,
		MinVersion: tls.VersionTLS12,
	}

	ln, err := tls.Listen("tcp", s.cfg.ListenAddr, tlsCfg)
	if err != nil {
		return fmt.Errorf("adminapi: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln

	s.httpSrv = &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logger.Infof("adminapi: listening on %s", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	if os.Getpid() != s.creatorPID {
		logger.Debugf("adminapi: skipping listener close in forked process %d (created by %d)", os.Getpid(), s.creatorPID)
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), readHeaderTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("adminapi: shutdown: %w", err)
	}
	return nil
}
