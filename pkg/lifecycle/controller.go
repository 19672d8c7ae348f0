// Package lifecycle implements the Lifecycle Controller (ServiceManager):
// start, stop, upgrade and remove drive a single already-provisioned
// NodeEntry through the {Added, Running, Stopped, Removed} state machine,
// reconciling the registry's recorded status against the OS-observed pid
// (start and remove probe it before trusting a Running status, and start
// records the pid it probes after the supervisor start), the same
// use-case-object shape
// pkg/provision already follows for add_node/add_daemon.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-version"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/provision"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/rpcclient"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/types"
)

// defaultPostStartDelay is the unconditional settle time between
// supervisor.start and the first pid probe.
const defaultPostStartDelay = 3000

// Controller drives a single NodeEntry through start/stop/upgrade/remove
// against a Registry, a Supervisor and an RPC client factory (one client
// per entry, since every entry dials its own rpc_socket_addr).
type Controller struct {
	registry   *registry.Registry
	supervisor supervisor.Supervisor
	newRPC     rpcclient.Factory

	postStartDelayMillis int
}

// Option configures a Controller.
type Option func(*Controller)

// WithPostStartDelay overrides the settle time (in milliseconds)
// between supervisor.start and the first pid probe.
func WithPostStartDelay(ms int) Option {
	return func(c *Controller) {
		if ms > 0 {
			c.postStartDelayMillis = ms
		}
	}
}

// New constructs a Controller. newRPC is called once per start, with the
// target entry's rpc_socket_addr, to obtain the client used for the
// post-start node_info/network_info reconciliation.
func New(reg *registry.Registry, sup supervisor.Supervisor, newRPC rpcclient.Factory, opts ...Option) *Controller {
	c := &Controller{
		registry:             reg,
		supervisor:           sup,
		newRPC:               newRPC,
		postStartDelayMillis: defaultPostStartDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start drives an Added/Stopped entry into Running, or no-ops if
// already Running with a live pid.
func (c *Controller) Start(ctx context.Context, serviceName string, _ VerbosityLevel) error {
	entry, ok := c.registry.Find(serviceName)
	if !ok {
		return fleeterrors.ErrNotFound
	}

	if entry.Status == types.StatusRunning {
		if _, err := c.supervisor.GetProcessPID(ctx, entry.AntnodePath); err == nil {
			return nil // already running, idempotent
		}
		// probe failed: process vanished under a stale Running status,
		// fall through and attempt to start it again.
	}

	if err := c.supervisor.Start(ctx, entry.ServiceName, entry.UserMode); err != nil {
		return fleeterrors.SupervisorIO("start", err)
	}

	if err := c.supervisor.Wait(ctx, c.postStartDelayMillis); err != nil {
		return fleeterrors.SupervisorIO("wait", err)
	}

	pid, err := c.supervisor.GetProcessPID(ctx, entry.AntnodePath)
	if err != nil {
		return fleeterrors.ErrProcessNotFoundAfterStart
	}

	rpc := c.newRPC(entry.RPCSocketAddr)

	nodeInfo, err := rpc.NodeInfo(ctx)
	if err != nil {
		return fleeterrors.RPCUnavailable(err)
	}
	networkInfo, err := rpc.NetworkInfo(ctx)
	if err != nil {
		return fleeterrors.RPCUnavailable(err)
	}

	return c.registry.Mutate(serviceName, func(e *types.NodeEntry) error {
		p := pid
		e.PID = &p
		e.PeerID = nodeInfo.PeerID
		e.ListenAddr = networkInfo.Listeners
		e.ConnectedPeers = networkInfo.ConnectedPeers
		e.Status = types.StatusRunning
		return nil
	})
}

// Stop drives a Running entry into Stopped.
func (c *Controller) Stop(ctx context.Context, serviceName string, _ VerbosityLevel) error {
	entry, ok := c.registry.Find(serviceName)
	if !ok {
		return fleeterrors.ErrNotFound
	}

	if entry.Status != types.StatusRunning {
		return nil // Added, Stopped, Removed: idempotent no-op
	}

	// Probe-pid to confirm existence before stopping; its outcome does
	// not gate the stop call itself.
	_, _ = c.supervisor.GetProcessPID(ctx, entry.AntnodePath)

	if err := c.supervisor.Stop(ctx, entry.ServiceName, entry.UserMode); err != nil {
		return fleeterrors.SupervisorIO("stop", err)
	}

	return c.registry.Mutate(serviceName, func(e *types.NodeEntry) error {
		e.PID = nil
		e.ConnectedPeers = nil
		e.Status = types.StatusStopped
		return nil
	})
}

// Upgrade stops, swaps the binary, reinstalls with the entry's
// materialised flags, and optionally restarts.
func (c *Controller) Upgrade(ctx context.Context, serviceName string, opts UpgradeOptions, verbosity VerbosityLevel) (types.UpgradeResult, error) {
	entry, ok := c.registry.Find(serviceName)
	if !ok {
		return types.UpgradeResult{}, fleeterrors.ErrNotFound
	}

	curVer, err := version.NewVersion(entry.Version)
	if err != nil {
		return types.UpgradeResult{}, fmt.Errorf("parse current version %q: %w", entry.Version, err)
	}
	targetVer, err := version.NewVersion(opts.TargetVersion)
	if err != nil {
		return types.UpgradeResult{}, fmt.Errorf("parse target version %q: %w", opts.TargetVersion, err)
	}

	cmp := targetVer.Compare(curVer)
	if !opts.Force && cmp <= 0 {
		return types.NotRequired(), fleeterrors.ErrUpgradeNotRequired
	}

	oldVersion := entry.Version

	if entry.Status == types.StatusRunning {
		if err := c.Stop(ctx, serviceName, verbosity); err != nil {
			return types.UpgradeResult{}, err
		}
		entry, _ = c.registry.Find(serviceName)
	}

	if err := copyBinaryInPlace(opts.TargetBinPath, entry.AntnodePath); err != nil {
		return types.UpgradeResult{}, err
	}

	if err := c.supervisor.Uninstall(ctx, entry.ServiceName, entry.UserMode); err != nil {
		return types.UpgradeResult{}, fleeterrors.SupervisorIO("uninstall", err)
	}

	envVars := envMap(c.registry.EnvironmentVariables())
	for k, v := range opts.EnvVariables {
		envVars[k] = v
	}

	installCtx := supervisor.InstallContext{
		ProgramPath:             entry.AntnodePath,
		Argv:                    provision.BuildArgv(entry),
		Label:                   entry.ServiceName,
		Environment:             envVars,
		RunAsUser:               entry.User,
		Autostart:               opts.AutoRestart,
		DisableRestartOnFailure: true,
	}
	if err := c.supervisor.Install(ctx, installCtx, entry.UserMode); err != nil {
		return types.UpgradeResult{}, fleeterrors.SupervisorIO("install", err)
	}

	if err := c.registry.Mutate(serviceName, func(e *types.NodeEntry) error {
		e.Version = opts.TargetVersion
		return nil
	}); err != nil {
		return types.UpgradeResult{}, err
	}

	if !opts.StartService {
		if err := c.registry.Mutate(serviceName, func(e *types.NodeEntry) error {
			e.Status = types.StatusStopped
			e.PID = nil
			return nil
		}); err != nil {
			return types.UpgradeResult{}, err
		}
		return types.Upgraded(oldVersion, opts.TargetVersion), nil
	}

	if err := c.Start(ctx, serviceName, verbosity); err != nil {
		if errors.Is(err, fleeterrors.ErrProcessNotFoundAfterStart) {
			return types.UpgradedButNotStarted(oldVersion, opts.TargetVersion, err.Error()), nil
		}
		return types.UpgradeResult{}, err
	}

	if opts.Force && cmp <= 0 {
		return types.Forced(oldVersion, opts.TargetVersion), nil
	}
	return types.Upgraded(oldVersion, opts.TargetVersion), nil
}

// Remove uninstalls a non-Running entry and marks it Removed.
func (c *Controller) Remove(ctx context.Context, serviceName string, opts RemoveOptions, _ VerbosityLevel) error {
	entry, ok := c.registry.Find(serviceName)
	if !ok {
		return fleeterrors.ErrNotFound
	}

	if entry.Status == types.StatusRunning {
		if _, err := c.supervisor.GetProcessPID(ctx, entry.AntnodePath); err == nil {
			return fleeterrors.ErrRunningServiceCannotBeRemoved
		}
		return fleeterrors.ErrStatusNotAsExpected
	}

	if err := c.supervisor.Uninstall(ctx, entry.ServiceName, entry.UserMode); err != nil {
		return fleeterrors.SupervisorIO("uninstall", err)
	}

	if !opts.KeepDirectories {
		if err := os.RemoveAll(entry.DataDirPath); err != nil {
			return fmt.Errorf("remove data directory %s: %w", entry.DataDirPath, err)
		}
		if err := os.RemoveAll(entry.LogDirPath); err != nil {
			return fmt.Errorf("remove log directory %s: %w", entry.LogDirPath, err)
		}
	}

	return c.registry.Mutate(serviceName, func(e *types.NodeEntry) error {
		e.Status = types.StatusRemoved
		return nil
	})
}

func copyBinaryInPlace(srcPath, destPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read upgrade binary %s: %w", srcPath, err)
	}
	if err := os.WriteFile(destPath, data, 0o755); err != nil {
		return fmt.Errorf("write upgraded binary %s: %w", destPath, err)
	}
	return nil
}

func envMap(vars []types.EnvVar) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Key] = v.Value
	}
	return out
}
