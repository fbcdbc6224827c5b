// Package app wires the ogon Session Manager's cobra commands.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ogon-project/sessionmgr/pkg/logger"
)

// NewRootCmd creates the root command for the ogon-sessionmgr daemon.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ogon-sessionmgr",
		DisableAutoGenTag: true,
		Short:             "ogon Session Manager: the control plane brokering RDP sessions and connections",
		Long: `ogon-sessionmgr is the Session Manager control plane for the ogon remote-desktop
platform. It maintains the authoritative registry of sessions and client
connections, drives each session through its connect-state machine, and
mediates the internal control protocol (ICP) with the RDP frontend and the
administrative API with external operator tooling.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				logger.Errorf("error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to the sessionmgr config file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}
