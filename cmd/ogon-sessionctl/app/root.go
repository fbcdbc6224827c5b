// Package app wires the ogon-sessionctl administrative client's cobra commands.
package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ogon-project/sessionmgr/pkg/logger"
)

var (
	sessionctlUser     string
	sessionctlDomain   string
	sessionctlPassword string
)

// NewRootCmd creates the root command for the ogon-sessionctl administrative client.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ogon-sessionctl",
		DisableAutoGenTag: true,
		Short:             "Administrative client for the ogon Session Manager",
		Long: `ogon-sessionctl talks to a running Session Manager's administrative API
over HTTPS to inspect and operate on live sessions and connections.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().StringVar(&sessionctlUser, "user", "admin", "administrative username")
	rootCmd.PersistentFlags().StringVar(&sessionctlDomain, "domain", "LOCAL", "administrative domain")
	rootCmd.PersistentFlags().StringVar(&sessionctlPassword, "password", os.Getenv("OGON_BOOTSTRAP_PASSWORD"),
		"administrative password (defaults to $OGON_BOOTSTRAP_PASSWORD)")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}
