package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/lifecycle"
	"github.com/marmos91/antnode-manager/pkg/types"
)

var upgradeFlags struct {
	targetBinPath string
	targetVersion string
	startService  bool
	force         bool
	autoRestart   bool
	envVariables  string
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <service-name>",
	Short: "Upgrade a node service's binary in place",
	Long: `Stop (if running), swap the binary, uninstall and reinstall the
service with every configuration flag re-materialised from the
registry entry, then optionally restart and verify. NotRequired unless
target-version is newer than the entry's current version or --force
is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpgrade,
}

func init() {
	f := upgradeCmd.Flags()
	f.StringVar(&upgradeFlags.targetBinPath, "target-bin-path", "", "Path to the staged replacement binary (required)")
	f.StringVar(&upgradeFlags.targetVersion, "target-version", "", "Semver of the replacement binary (required)")
	f.BoolVar(&upgradeFlags.startService, "start", true, "Start the service after the upgrade completes")
	f.BoolVar(&upgradeFlags.force, "force", false, "Force the upgrade even if the target is not newer")
	f.BoolVar(&upgradeFlags.autoRestart, "auto-restart", true, "Restart automatically when the service exits")
	f.StringVar(&upgradeFlags.envVariables, "env", "", "Comma-separated KEY=VALUE overrides merged into the install environment")

	_ = upgradeCmd.MarkFlagRequired("target-bin-path")
	_ = upgradeCmd.MarkFlagRequired("target-version")
}

func parseEnvFlag(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out[key] = value
	}
	return out
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	serviceName := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	opts := lifecycle.UpgradeOptions{
		TargetBinPath: upgradeFlags.targetBinPath,
		TargetVersion: upgradeFlags.targetVersion,
		StartService:  upgradeFlags.startService,
		Force:         upgradeFlags.force,
		AutoRestart:   upgradeFlags.autoRestart,
		EnvVariables:  parseEnvFlag(upgradeFlags.envVariables),
	}

	label := fmt.Sprintf("Upgrade %q to %s?", serviceName, upgradeFlags.targetVersion)
	return cmdutil.RunWithConfirmation(label, upgradeFlags.force, func() error {
		ctx := cmd.Context()
		result, err := d.lifecycle.Upgrade(ctx, serviceName, opts, d.verbosity())
		d.record(ctx, serviceName, "upgrade", err)
		if err != nil {
			if errors.Is(err, fleeterrors.ErrUpgradeNotRequired) {
				cmdutil.PrintSuccess(fmt.Sprintf("upgrade not required: %s is already at or past %s", serviceName, upgradeFlags.targetVersion))
				return nil
			}
			return err
		}

		switch result.Kind {
		case types.UpgradeOutcomeUpgraded:
			cmdutil.PrintSuccess(fmt.Sprintf("upgraded %s: %s -> %s", serviceName, result.OldVersion, result.NewVersion))
		case types.UpgradeOutcomeForced:
			cmdutil.PrintSuccess(fmt.Sprintf("forced upgrade of %s: %s -> %s", serviceName, result.OldVersion, result.NewVersion))
		case types.UpgradeOutcomeUpgradedButNotStarted:
			fmt.Printf("upgraded %s: %s -> %s, but it did not start: %s\n", serviceName, result.OldVersion, result.NewVersion, result.Reason)
		case types.UpgradeOutcomeNotRequired:
			cmdutil.PrintSuccess(fmt.Sprintf("upgrade not required for %s", serviceName))
		}
		return nil
	})
}
