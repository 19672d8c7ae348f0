// Package commands implements antnoded's cobra command tree: start the
// daemon (foreground or background), and stop a running background
// instance.
package commands

import (
	"github.com/spf13/cobra"
)

// Version, Commit and Date are set by main from build-time ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "antnoded",
	Short: "antnoded manages a fleet of antnode processes on this host",
	Long: `antnoded is the daemon half of antnode-manager: it owns the
durable node registry and exposes a read-only status API over the
fleet it supervises. Fleet mutations (add, start, stop, upgrade,
remove) are issued through antnodectl.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/antnode-manager/config.yaml)")
	rootCmd.AddCommand(startCmd, stopCmd, versionCmd)
}

// GetConfigFile returns the --config flag value, or "" to use the
// default location.
func GetConfigFile() string {
	return configFile
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
