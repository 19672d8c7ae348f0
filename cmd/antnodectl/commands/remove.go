package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/pkg/lifecycle"
)

var removeFlags struct {
	keepDirectories bool
	force           bool
}

var removeCmd = &cobra.Command{
	Use:   "remove <service-name>",
	Short: "Remove a node or daemon service",
	Long: `Uninstall a service from the host supervisor and mark it Removed.
Fails with RunningServiceCannotBeRemoved if the entry is Running with a
live pid, or StatusNotAsExpected if the registry's Running status is
stale (the caller must stop first). Data/log directories are deleted
unless --keep-directories is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	f := removeCmd.Flags()
	f.BoolVar(&removeFlags.keepDirectories, "keep-directories", false, "Keep data/log directories after removal")
	f.BoolVar(&removeFlags.force, "force", false, "Skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	serviceName := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	label := fmt.Sprintf("Remove service %q? This is permanent.", serviceName)
	return cmdutil.RunWithConfirmation(label, removeFlags.force, func() error {
		ctx := cmd.Context()
		err := d.lifecycle.Remove(ctx, serviceName, lifecycle.RemoveOptions{
			KeepDirectories: removeFlags.keepDirectories,
		}, d.verbosity())
		d.record(ctx, serviceName, "remove", err)
		if err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("removed %s", serviceName))
		return nil
	})
}
