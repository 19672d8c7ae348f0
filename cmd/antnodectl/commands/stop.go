package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
)

var stopFlags struct {
	force bool
}

var stopCmd = &cobra.Command{
	Use:   "stop <service-name>",
	Short: "Stop a node or daemon service",
	Long: `Stop an existing service: idempotent for Added/Stopped/Removed
entries. On a Running entry, probes for the pid, asks the supervisor
to stop the service, then clears pid/connected_peers and records
Stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func init() {
	stopCmd.Flags().BoolVar(&stopFlags.force, "force", false, "Skip the confirmation prompt")
}

func runStop(cmd *cobra.Command, args []string) error {
	serviceName := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	return cmdutil.RunWithConfirmation(fmt.Sprintf("Stop service %q?", serviceName), stopFlags.force, func() error {
		ctx := cmd.Context()
		err := d.lifecycle.Stop(ctx, serviceName, d.verbosity())
		d.record(ctx, serviceName, "stop", err)
		if err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("stopped %s", serviceName))
		return nil
	})
}
