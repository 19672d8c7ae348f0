package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
)

var startCmd = &cobra.Command{
	Use:   "start <service-name>",
	Short: "Start a node or daemon service",
	Long: `Start an existing service: idempotent if it is already Running with
a live pid. On a fresh start, waits for the configured post-start
settle delay (provisioning.post_start_probe_delay), then probes for the pid and queries the node's RPC for
node_info/network_info before recording Running in the registry.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	serviceName := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	ctx := cmd.Context()
	err = d.lifecycle.Start(ctx, serviceName, d.verbosity())
	d.record(ctx, serviceName, "start", err)
	if err != nil {
		return err
	}

	cmdutil.PrintSuccess(fmt.Sprintf("started %s", serviceName))
	return nil
}
