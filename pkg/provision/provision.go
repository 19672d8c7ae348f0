// Package provision implements the Provisioner: add_node and
// add_daemon create new registry entries, allocate ports, stage
// binaries into per-service directories, build the install context,
// and ask the Supervisor to register the service, as a use-case object
// wrapping a store and an external side-effecting dependency behind
// one constructor.
package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/ports"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/types"
)

const binaryPermissions = 0o755

// Provisioner creates new node/daemon services against a Registry and
// a Supervisor.
type Provisioner struct {
	registry   *registry.Registry
	supervisor supervisor.Supervisor
}

// New constructs a Provisioner.
func New(reg *registry.Registry, sup supervisor.Supervisor) *Provisioner {
	return &Provisioner{registry: reg, supervisor: sup}
}

// ctxProber adapts supervisor.Supervisor.GetAvailablePort (which takes
// a context) to ports.Prober (which does not), binding one request's
// context for the lifetime of a single AddNode call.
type ctxProber struct {
	ctx context.Context
	sup supervisor.Supervisor
}

func (p ctxProber) GetAvailablePort() (uint16, error) {
	return p.sup.GetAvailablePort(p.ctx)
}

// AddNode provisions opts.Count (default 1) new node services.
func (p *Provisioner) AddNode(ctx context.Context, opts AddNodeServiceOptions) error {
	count := opts.Count
	if count == 0 {
		count = 1
	}

	if opts.InitialPeersConfig.First {
		if count > 1 {
			return fleeterrors.ErrGenesisMustBeOne
		}
		if p.registry.HasGenesis() {
			return fleeterrors.ErrGenesisAlreadyExists
		}
	}

	claimed := p.registry.ClaimedPorts()
	allocator := ports.New(ctxProber{ctx: ctx, sup: p.supervisor})

	rpcPorts, err := allocator.Allocate(opts.RPCPortRange, count, claimed)
	if err != nil {
		return err
	}
	markClaimed(claimed, rpcPorts)

	var metricsPorts []uint16
	if !opts.SuppressMetrics {
		metricsPorts, err = allocator.Allocate(opts.MetricsPortRange, count, claimed)
		if err != nil {
			return err
		}
		markClaimed(claimed, metricsPorts)
	}

	var nodePorts []uint16
	if opts.NodePortRange != nil {
		if opts.NodePortRange.Size() != count {
			return fleeterrors.CountMismatch(count, opts.NodePortRange.Size())
		}
		nodePorts = opts.NodePortRange.Ports()
		for _, port := range nodePorts {
			if _, taken := claimed[port]; taken {
				return fleeterrors.PortInUse(port)
			}
		}
		markClaimed(claimed, nodePorts)
	}

	envVars := envMap(p.registry.EnvironmentVariables())
	natStatus := p.registry.NatStatus()

	for k := 0; k < count; k++ {
		last := k == count-1
		if err := p.addOneNode(ctx, opts, k, rpcPorts, metricsPorts, nodePorts, envVars, natStatus, last); err != nil {
			return err
		}
	}

	return nil
}

func markClaimed(claimed map[uint16]struct{}, ports []uint16) {
	for _, port := range ports {
		claimed[port] = struct{}{}
	}
}

func (p *Provisioner) addOneNode(
	ctx context.Context,
	opts AddNodeServiceOptions,
	k int,
	rpcPorts, metricsPorts, nodePorts []uint16,
	envVars map[string]string,
	natStatus types.NatStatus,
	lastOfBatch bool,
) error {
	number := p.registry.NextNumber()
	serviceName := fmt.Sprintf("antnode%d", number)

	dataDir := filepath.Join(opts.ServiceDataDirPath, serviceName)
	logDir := filepath.Join(opts.ServiceLogDirPath, serviceName)
	binaryDir := filepath.Join(opts.AntnodeDirPath, serviceName)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", logDir, err)
	}

	rpcPort := rpcPorts[k]
	var metricsPort *uint16
	if k < len(metricsPorts) {
		mp := metricsPorts[k]
		metricsPort = &mp
	}
	var nodePort *uint16
	if k < len(nodePorts) {
		np := nodePorts[k]
		nodePort = &np
	}

	binaryPath, err := stageBinary(opts.AntnodeSrcPath, binaryDir)
	if err != nil {
		return err
	}
	if opts.DeleteAntnodeSrc && lastOfBatch {
		if err := os.Remove(opts.AntnodeSrcPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove staged source binary %s: %w", opts.AntnodeSrcPath, err)
		}
	}

	entry := types.NodeEntry{
		ServiceName:          serviceName,
		Number:                number,
		User:                  opts.User,
		UserMode:              opts.UserMode,
		AntnodePath:           binaryPath,
		Version:               opts.Version,
		SchemaVersion:         registry.CurrentSchemaVersion(),
		DataDirPath:           dataDir,
		LogDirPath:            logDir,
		RPCSocketAddr:         fmt.Sprintf("127.0.0.1:%d", rpcPort),
		NodePort:              nodePort,
		MetricsPort:           metricsPort,
		NodeIP:                opts.NodeIP,
		NetworkID:             opts.NetworkID,
		InitialPeersConfig:    opts.InitialPeersConfig,
		Alpha:                 opts.Alpha,
		AutoRestart:           opts.AutoRestart,
		Relay:                 opts.Relay,
		NoUPnP:                opts.NoUPnP,
		ReachabilityCheck:     opts.ReachabilityCheck,
		WriteOlderCacheFiles:  opts.WriteOlderCacheFiles,
		LogFormat:             opts.LogFormat,
		MaxLogFiles:           opts.MaxLogFiles,
		MaxArchivedLogFiles:   opts.MaxArchivedLogFiles,
		EvmNetwork:            opts.EvmNetwork,
		RewardsAddress:        opts.RewardsAddress,
		Status:                types.StatusAdded,
	}

	if opts.AutoSetNatFlags {
		applyNatDefaults(&entry, natStatus)
	}

	installCtx := supervisor.InstallContext{
		ProgramPath:             entry.AntnodePath,
		Argv:                    BuildArgv(entry),
		Label:                   entry.ServiceName,
		Environment:             envVars,
		RunAsUser:               opts.User,
		Autostart:               opts.AutoRestart,
		DisableRestartOnFailure: true,
	}

	if err := p.supervisor.Install(ctx, installCtx, opts.UserMode); err != nil {
		return fleeterrors.SupervisorIO("install", err)
	}

	return p.registry.PushNode(entry)
}

// AddDaemon provisions the singleton management daemon.
func (p *Provisioner) AddDaemon(ctx context.Context, opts AddDaemonOptions) error {
	if _, ok := p.registry.Daemon(); ok {
		return fleeterrors.ErrDaemonAlreadyExists
	}

	binaryPath, err := stageBinary(opts.DaemonSrcPath, opts.InstallDir)
	if err != nil {
		return err
	}

	installCtx := supervisor.InstallContext{
		ProgramPath:             binaryPath,
		Argv:                    []string{"--endpoint", opts.Endpoint},
		Label:                   opts.ServiceLabel,
		RunAsUser:               opts.User,
		Autostart:               true,
		DisableRestartOnFailure: false,
	}

	if err := p.supervisor.Install(ctx, installCtx, opts.UserMode); err != nil {
		return fleeterrors.SupervisorIO("install", err)
	}

	return p.registry.InsertDaemon(types.DaemonEntry{
		DaemonPath:  binaryPath,
		Endpoint:    opts.Endpoint,
		ServiceName: opts.ServiceLabel,
		Status:      types.StatusAdded,
		Version:     opts.Version,
	})
}

// stageBinary copies srcPath into destDir, preserving the source's
// base name, and returns the new path.
func stageBinary(srcPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create binary directory %s: %w", destDir, err)
	}

	destPath := filepath.Join(destDir, filepath.Base(srcPath))

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source binary %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, binaryPermissions)
	if err != nil {
		return "", fmt.Errorf("create staged binary %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy binary to %s: %w", destPath, err)
	}
	if err := dst.Chmod(binaryPermissions); err != nil {
		return "", fmt.Errorf("chmod staged binary %s: %w", destPath, err)
	}

	return destPath, nil
}

func envMap(vars []types.EnvVar) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Key] = v.Value
	}
	return out
}
