// Package appcontext wires every long-lived collaborator of the Session
// Manager process into a single explicitly-constructed value: the registries,
// the ICP frontend listener, the administrative API server, and the idle
// session sweeper. There is no package-level global; everything reachable
// here is reachable only through a *Context a caller constructed and holds.
package appcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogon-project/sessionmgr/pkg/adminapi"
	"github.com/ogon-project/sessionmgr/pkg/authmodule"
	"github.com/ogon-project/sessionmgr/pkg/config"
	"github.com/ogon-project/sessionmgr/pkg/connection"
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/icp/calls"
	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/notify"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/ogon-project/sessionmgr/pkg/tasks"
)

// Config is everything New needs to build a Context. Zero values for the
// duration fields fall back to adminapi's own defaults.
type Config struct {
	// ICPNetwork/ICPAddress name the local channel the RDP frontend dials.
	// ICPNetwork defaults to "unix"; for ICPNetwork=="unix" a stale socket
	// file at ICPAddress is removed before binding.
	ICPNetwork string
	ICPAddress string

	// ConfigPath is the property store's global config file; empty means no
	// file is read, only the environment and built-in defaults.
	ConfigPath string

	AdminListenAddr  string
	AdminCertFile    string
	AdminKeyFile     string
	AdminHMACSecret  []byte
	AdminTokenTTL    time.Duration
	AdminCallTimeout time.Duration

	Auth authmodule.Module

	// EnableNotify dials the D-Bus system bus for session notifications.
	// Left false in tests and sandboxed environments with no system bus.
	EnableNotify bool
}

// Context bundles every collaborator the running process needs. New builds
// them in this order: property store, connection store, session store,
// executor registry, notify emitter, ICP listener, admin-API server,
// timeout sweeper. The RPC dispatcher is not built by New; runICP builds a
// fresh one for each accepted frontend connection. Run tears them down in
// the reverse order once its context is canceled.
type Context struct {
	cfg Config

	Properties  *config.Store
	Connections *connection.Store
	Sessions    *session.Store
	Executors   *executor.Registry
	Notify      *notify.Emitter
	Tasks       *tasks.Context
	Admin       *adminapi.Server
	Sweeper     *tasks.Sweeper

	icpListener net.Listener
}

// New constructs every collaborator and binds the ICP listener, but starts
// nothing; the admin-API listener is bound later by Admin.Serve, which Run
// calls. Call Run to begin serving.
func New(cfg Config) (*Context, error) {
	if cfg.ICPNetwork == "" {
		cfg.ICPNetwork = "unix"
	}

	properties, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("appcontext: load property store: %w", err)
	}

	connections := connection.NewStore()
	sessions := session.NewStore()
	executors := executor.NewRegistry(sessions)

	var emitter *notify.Emitter
	if cfg.EnableNotify {
		emitter, err = notify.Connect()
		if err != nil {
			return nil, fmt.Errorf("appcontext: connect notify emitter: %w", err)
		}
	}

	taskCtx := &tasks.Context{
		Sessions:    sessions,
		Connections: connections,
		Properties:  properties,
		Executors:   executors,
		Notify:      emitter,
	}

	if cfg.ICPNetwork == "unix" && cfg.ICPAddress != "" {
		_ = os.Remove(cfg.ICPAddress)
	}
	icpListener, err := net.Listen(cfg.ICPNetwork, cfg.ICPAddress)
	if err != nil {
		return nil, fmt.Errorf("appcontext: bind icp listener on %s %s: %w", cfg.ICPNetwork, cfg.ICPAddress, err)
	}

	admin, err := adminapi.NewServer(adminapi.Config{
		ListenAddr:  cfg.AdminListenAddr,
		CertFile:    cfg.AdminCertFile,
		KeyFile:     cfg.AdminKeyFile,
		Auth:        cfg.Auth,
		TokenTTL:    cfg.AdminTokenTTL,
		CallTimeout: cfg.AdminCallTimeout,
		HMACSecret:  cfg.AdminHMACSecret,
	}, taskCtx)
	if err != nil {
		_ = icpListener.Close()
		return nil, fmt.Errorf("appcontext: construct admin server: %w", err)
	}

	return &Context{
		cfg:         cfg,
		Properties:  properties,
		Connections: connections,
		Sessions:    sessions,
		Executors:   executors,
		Notify:      emitter,
		Tasks:       taskCtx,
		Admin:       admin,
		Sweeper:     tasks.NewSweeper(taskCtx),
		icpListener: icpListener,
	}, nil
}

// Run serves the ICP listener, the admin API, and the sweeper until ctx is
// canceled or one of them fails, then tears every collaborator down in
// reverse construction order. It blocks until teardown completes.
func (c *Context) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.runICP(gctx) })
	g.Go(func() error { return c.Admin.Serve(gctx) })
	g.Go(func() error {
		c.Sweeper.Run(gctx)
		return nil
	})

	// Accept() and the admin listener's Accept-equivalent both block
	// indefinitely; closing the ICP listener as soon as any group member
	// exits is what actually unblocks runICP's Accept call on shutdown.
	go func() {
		<-gctx.Done()
		_ = c.icpListener.Close()
	}()

	err := g.Wait()

	c.Executors.StopAll()
	if c.Tasks.Notify != nil {
		_ = c.Tasks.Notify.Close()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runICP accepts frontend connections one at a time — the ICP channel is a
// single paired full-duplex stream, never multiplexed across connections —
// and rebuilds the Dispatcher on every reconnect. The Tasks.Dispatcher swap
// is only ever performed in the gap between one Dispatcher's Run returning
// and the next one starting, since Accept blocks until the prior connection
// is fully closed.
func (c *Context) runICP(ctx context.Context) error {
	for {
		conn, err := c.icpListener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("appcontext: icp accept: %w", err)
		}

		d := icp.NewDispatcher(conn, c.Sessions, c.Connections, c.Properties, c.Executors, c.cfg.Auth)
		calls.RegisterAll(d)
		c.Tasks.Dispatcher = d

		logger.Infof("appcontext: frontend connected over %s %s", c.cfg.ICPNetwork, c.cfg.ICPAddress)

		connCtx, cancel := context.WithCancel(ctx)
		closed := make(chan struct{})
		go func() {
			<-connCtx.Done()
			_ = conn.Close()
			close(closed)
		}()

		d.Run(connCtx)
		cancel()
		<-closed

		if ctx.Err() != nil {
			return nil
		}
		logger.Warnf("appcontext: frontend connection closed, awaiting reconnect")
	}
}
