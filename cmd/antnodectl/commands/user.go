package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user <username>",
	Short: "Create a login-disabled system account for running services",
	Long: `Provision the OS account node services run as in system mode.
Account creation is the supervisor's create_service_user callout; the
core never invokes it itself, so this command is the only place it is
reachable from.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateUser,
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	username := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	if err := d.supervisor.CreateServiceUser(cmd.Context(), username); err != nil {
		return err
	}

	cmdutil.PrintSuccess(fmt.Sprintf("created service user %s", username))
	return nil
}
