package cli

import (
	"github.com/spf13/cobra"
)

var busFlag string

// RootCmd is connectivity-manager-cli's root command.
var RootCmd = &cobra.Command{
	Use:   "connectivity-manager-cli",
	Short: "Command-line client for connectivity-managerd",
	Args:  cobra.NoArgs,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&busFlag, "bus", "system", "D-Bus bus to use (system|session)")
	RootCmd.AddCommand(WiFiCmd, MonitorCmd)
}
