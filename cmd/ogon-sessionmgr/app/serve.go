package app

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogon-project/sessionmgr/pkg/appcontext"
	"github.com/ogon-project/sessionmgr/pkg/authmodule"
	"github.com/ogon-project/sessionmgr/pkg/logger"
)

var (
	icpSocketPath    string
	adminListenAddr  string
	adminCertFile    string
	adminKeyFile     string
	adminTokenTTL    time.Duration
	adminCallTimeout time.Duration
	enableNotify     bool
	bootstrapUser    string
	bootstrapDomain  string
	bootstrapPass    string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Session Manager daemon",
		Long: `Starts the Internal Control Protocol listener, the administrative API,
and the idle-session timeout sweeper, and blocks until an interrupt signal
requests a graceful shutdown.`,
		RunE: serveCmdFunc,
	}

	cmd.Flags().StringVar(&icpSocketPath, "icp-socket", "/run/ogon/sessionmgr.sock",
		"Unix socket the RDP frontend connects to for the internal control protocol")
	cmd.Flags().StringVar(&adminListenAddr, "admin-listen", "127.0.0.1:8443",
		"Address the administrative API listens on")
	cmd.Flags().StringVar(&adminCertFile, "admin-cert", "", "TLS certificate for the administrative API")
	cmd.Flags().StringVar(&adminKeyFile, "admin-key", "", "TLS private key for the administrative API")
	cmd.Flags().DurationVar(&adminTokenTTL, "admin-token-ttl", 0, "administrative authToken lifetime (0 = default)")
	cmd.Flags().DurationVar(&adminCallTimeout, "admin-call-timeout", 0, "default frontend call timeout (0 = default)")
	cmd.Flags().BoolVar(&enableNotify, "enable-notify", false, "emit session notifications on the D-Bus system bus")
	cmd.Flags().StringVar(&bootstrapUser, "bootstrap-user", "admin", "bootstrap administrative username")
	cmd.Flags().StringVar(&bootstrapDomain, "bootstrap-domain", "LOCAL", "bootstrap administrative domain")
	cmd.Flags().StringVar(&bootstrapPass, "bootstrap-password", "", "bootstrap administrative password")

	return cmd
}

func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	configPath, _ := cmd.Flags().GetString("config")

	if bootstrapPass == "" {
		bootstrapPass = os.Getenv("OGON_BOOTSTRAP_PASSWORD")
	}

	app, err := appcontext.New(appcontext.Config{
		ICPNetwork:       "unix",
		ICPAddress:       icpSocketPath,
		ConfigPath:       configPath,
		AdminListenAddr:  adminListenAddr,
		AdminCertFile:    adminCertFile,
		AdminKeyFile:     adminKeyFile,
		AdminTokenTTL:    adminTokenTTL,
		AdminCallTimeout: adminCallTimeout,
		EnableNotify:     enableNotify,
		Auth: authmodule.Static{
			UserName: bootstrapUser,
			Domain:   bootstrapDomain,
			Password: bootstrapPass,
		},
	})
	if err != nil {
		return fmt.Errorf("construct application context: %w", err)
	}

	logger.Infof("ogon-sessionmgr: serving icp on %s, admin api on %s", icpSocketPath, adminListenAddr)
	return app.Run(ctx)
}
