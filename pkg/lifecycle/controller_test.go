package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/provision"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/rpcclient"
	rpcmock "github.com/marmos91/antnode-manager/pkg/rpcclient/mock"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/supervisor/mock"
	"github.com/marmos91/antnode-manager/pkg/types"
)

func newHarness(t *testing.T) (*registry.Registry, *mock.Supervisor, *rpcmock.Client, *Controller) {
	t.Helper()
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "antnode-src")
	require.NoError(t, os.WriteFile(srcPath, []byte("binary"), 0o755))

	reg := registry.New(filepath.Join(dir, "registry.json"))
	sup := mock.New()
	sup.NextPorts = []uint16{8081, 6001}

	p := provision.New(reg, sup)
	opts := provision.AddNodeServiceOptions{
		Version:            "0.96.4",
		AntnodeSrcPath:     srcPath,
		AntnodeDirPath:     filepath.Join(dir, "bin"),
		ServiceDataDirPath: filepath.Join(dir, "data"),
		ServiceLogDirPath:  filepath.Join(dir, "logs"),
		EvmNetwork:         types.ArbitrumOne(),
		RewardsAddress:     "0x03B7D090FF8b3a3cFf9eD06BF1a23CBC7C6B0c8D",
	}
	require.NoError(t, p.AddNode(context.Background(), opts))

	rpc := rpcmock.New()
	rpc.NodeInfoResp = rpcclient.NodeInfo{PID: 4242, PeerID: "peer-1"}
	rpc.NetworkInfoResp = rpcclient.NetworkInfo{
		ConnectedPeers: []string{"peer-2"},
		Listeners:      []string{"/ip4/127.0.0.1/tcp/12000"},
	}

	ctrl := New(reg, sup, rpcmock.Factory(rpc))
	return reg, sup, rpc, ctrl
}

func TestStartFreshEntryRecordsPidAndPeer(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)

	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))

	entry, ok := reg.Find("antnode1")
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, entry.Status)
	require.NotNil(t, entry.PID)
	assert.Equal(t, "peer-1", entry.PeerID)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/12000"}, entry.ListenAddr)
	assert.Equal(t, []string{"peer-2"}, entry.ConnectedPeers)

	assert.Equal(t, []string{"GetAvailablePort", "GetAvailablePort", "Install", "Start", "Wait", "GetProcessPID"}, sup.MethodsCalled())

	for _, c := range sup.Calls {
		if c.Method == "Wait" {
			assert.Equal(t, 3000, c.WaitMillis)
		}
	}
}

func TestStartIsIdempotentWhenAlreadyRunning(t *testing.T) {
	_, sup, _, ctrl := newHarness(t)

	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))
	callsBefore := len(sup.Calls)

	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))
	// idempotent path only issues one extra GetProcessPID probe, no Start/Wait
	assert.Equal(t, callsBefore+1, len(sup.Calls))
	assert.Equal(t, "GetProcessPID", sup.Calls[len(sup.Calls)-1].Method)
}

func TestStartFailsWithProcessNotFoundAfterStart(t *testing.T) {
	_, sup, _, ctrl := newHarness(t)
	sup.FailOn["GetProcessPID"] = supervisor.ErrServiceProcessNotFound

	err := ctrl.Start(context.Background(), "antnode1", VerbosityNormal)
	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterrors.ErrProcessNotFoundAfterStart)
}

func TestStopIsIdempotentOnAddedStatus(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)
	callsBefore := len(sup.Calls)

	require.NoError(t, ctrl.Stop(context.Background(), "antnode1", VerbosityNormal))
	// no supervisor call beyond those the harness's AddNode made
	assert.Len(t, sup.Calls, callsBefore)

	entry, _ := reg.Find("antnode1")
	assert.Equal(t, types.StatusAdded, entry.Status)
}

func TestStopClearsRuntimeStateButKeepsPeerID(t *testing.T) {
	reg, _, _, ctrl := newHarness(t)
	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))

	require.NoError(t, ctrl.Stop(context.Background(), "antnode1", VerbosityNormal))

	entry, _ := reg.Find("antnode1")
	assert.Equal(t, types.StatusStopped, entry.Status)
	assert.Nil(t, entry.PID)
	assert.Nil(t, entry.ConnectedPeers)
	assert.Equal(t, "peer-1", entry.PeerID)
}

func TestUpgradeNotRequiredWithoutForce(t *testing.T) {
	_, _, _, ctrl := newHarness(t)

	result, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetVersion: "0.96.4",
		StartService:  true,
	}, VerbosityNormal)

	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterrors.ErrUpgradeNotRequired)
	assert.Equal(t, types.UpgradeOutcomeNotRequired, result.Kind)
}

func TestUpgradeSwapsVersionAndRestarts(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)

	dir := t.TempDir()
	targetBin := filepath.Join(dir, "antnode-new")
	require.NoError(t, os.WriteFile(targetBin, []byte("new binary"), 0o755))

	result, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetBinPath: targetBin,
		TargetVersion: "0.97.0",
		StartService:  true,
		AutoRestart:   true,
	}, VerbosityNormal)

	require.NoError(t, err)
	assert.Equal(t, types.UpgradeOutcomeUpgraded, result.Kind)
	assert.Equal(t, "0.96.4", result.OldVersion)
	assert.Equal(t, "0.97.0", result.NewVersion)

	entry, _ := reg.Find("antnode1")
	assert.Equal(t, "0.97.0", entry.Version)
	assert.Equal(t, types.StatusRunning, entry.Status)
	require.NotNil(t, entry.PID)

	// binary content replaced in place
	data, err := os.ReadFile(entry.AntnodePath)
	require.NoError(t, err)
	assert.Equal(t, "new binary", string(data))

	assert.Contains(t, sup.MethodsCalled(), "Uninstall")

	var reinstall mock.Call
	for _, c := range sup.Calls {
		if c.Method == "Install" {
			reinstall = c
		}
	}
	require.Equal(t, "Install", reinstall.Method)
	assert.Equal(t, []string{
		"--rpc", entry.RPCSocketAddr,
		"--root-dir", entry.DataDirPath,
		"--log-output-dest", entry.LogDirPath,
		"--metrics-server-port", "6001",
		"--rewards-address", "0x03B7D090FF8b3a3cFf9eD06BF1a23CBC7C6B0c8D",
		"evm-arbitrum-one",
	}, reinstall.InstallCtx.Argv)
}

func TestUpgradePreservesFullArgv(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)

	require.NoError(t, reg.Mutate("antnode1", func(e *types.NodeEntry) error {
		e.InitialPeersConfig.Addrs = []string{"/ip4/10.0.0.1/tcp/12000/p2p/peer-a", "/ip4/10.0.0.2/tcp/12000/p2p/peer-b"}
		e.InitialPeersConfig.NetworkContactsURL = []string{"https://contacts.example/a", "https://contacts.example/b"}
		e.InitialPeersConfig.Local = true
		return nil
	}))

	dir := t.TempDir()
	targetBin := filepath.Join(dir, "antnode-new")
	require.NoError(t, os.WriteFile(targetBin, []byte("new binary"), 0o755))

	_, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetBinPath: targetBin,
		TargetVersion: "0.97.0",
		StartService:  true,
		AutoRestart:   true,
	}, VerbosityNormal)
	require.NoError(t, err)

	entry, _ := reg.Find("antnode1")

	var reinstall mock.Call
	for _, c := range sup.Calls {
		if c.Method == "Install" {
			reinstall = c
		}
	}
	require.Equal(t, "Install", reinstall.Method)
	assert.Equal(t, []string{
		"--rpc", entry.RPCSocketAddr,
		"--root-dir", entry.DataDirPath,
		"--log-output-dest", entry.LogDirPath,
		"--peer", "/ip4/10.0.0.1/tcp/12000/p2p/peer-a",
		"--peer", "/ip4/10.0.0.2/tcp/12000/p2p/peer-b",
		"--network-contacts-url", "https://contacts.example/a,https://contacts.example/b",
		"--local",
		"--metrics-server-port", "6001",
		"--rewards-address", "0x03B7D090FF8b3a3cFf9eD06BF1a23CBC7C6B0c8D",
		"evm-arbitrum-one",
	}, reinstall.InstallCtx.Argv)
}

func TestUpgradeWithoutStartServiceLeavesStopped(t *testing.T) {
	reg, _, _, ctrl := newHarness(t)

	dir := t.TempDir()
	targetBin := filepath.Join(dir, "antnode-new")
	require.NoError(t, os.WriteFile(targetBin, []byte("new binary"), 0o755))

	result, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetBinPath: targetBin,
		TargetVersion: "0.97.0",
		StartService:  false,
	}, VerbosityNormal)

	require.NoError(t, err)
	assert.Equal(t, types.UpgradeOutcomeUpgraded, result.Kind)

	entry, _ := reg.Find("antnode1")
	assert.Equal(t, types.StatusStopped, entry.Status)
	assert.Nil(t, entry.PID)
}

func TestUpgradeStopsRunningServiceFirst(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)
	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))

	dir := t.TempDir()
	targetBin := filepath.Join(dir, "antnode-new")
	require.NoError(t, os.WriteFile(targetBin, []byte("new binary"), 0o755))

	result, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetBinPath: targetBin,
		TargetVersion: "0.97.0",
		StartService:  true,
		AutoRestart:   true,
	}, VerbosityNormal)

	require.NoError(t, err)
	assert.Equal(t, types.UpgradeOutcomeUpgraded, result.Kind)

	entry, _ := reg.Find("antnode1")
	assert.Equal(t, types.StatusRunning, entry.Status)
	require.NotNil(t, entry.PID)

	calls := sup.MethodsCalled()
	require.Contains(t, calls, "Stop")
	require.Contains(t, calls, "Uninstall")
}

func TestUpgradeReturnsUpgradedButNotStartedWhenProbeFails(t *testing.T) {
	reg, sup, _, ctrl := newHarness(t)

	dir := t.TempDir()
	targetBin := filepath.Join(dir, "antnode-new")
	require.NoError(t, os.WriteFile(targetBin, []byte("new binary"), 0o755))
	sup.FailOn["GetProcessPID"] = supervisor.ErrServiceProcessNotFound

	result, err := ctrl.Upgrade(context.Background(), "antnode1", UpgradeOptions{
		TargetBinPath: targetBin,
		TargetVersion: "0.97.0",
		StartService:  true,
	}, VerbosityNormal)

	require.NoError(t, err)
	assert.Equal(t, types.UpgradeOutcomeUpgradedButNotStarted, result.Kind)
	assert.NotEmpty(t, result.Reason)

	// version is already recorded even though start did not succeed
	entry, _ := reg.Find("antnode1")
	assert.Equal(t, "0.97.0", entry.Version)
}

func TestRemoveRunningServiceWithLivePidFails(t *testing.T) {
	_, _, _, ctrl := newHarness(t)
	require.NoError(t, ctrl.Start(context.Background(), "antnode1", VerbosityNormal))

	err := ctrl.Remove(context.Background(), "antnode1", RemoveOptions{}, VerbosityNormal)
	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterrors.ErrRunningServiceCannotBeRemoved)
}

func TestRemoveDeletesDirectoriesUnlessKept(t *testing.T) {
	reg, _, _, ctrl := newHarness(t)

	entry, _ := reg.Find("antnode1")
	require.NoError(t, ctrl.Remove(context.Background(), "antnode1", RemoveOptions{}, VerbosityNormal))

	_, err := os.Stat(entry.DataDirPath)
	assert.True(t, os.IsNotExist(err))

	updated, _ := reg.Find("antnode1")
	assert.Equal(t, types.StatusRemoved, updated.Status)
}

func TestRemoveKeepsDirectoriesWhenRequested(t *testing.T) {
	reg, _, _, ctrl := newHarness(t)

	entry, _ := reg.Find("antnode1")
	require.NoError(t, ctrl.Remove(context.Background(), "antnode1", RemoveOptions{KeepDirectories: true}, VerbosityNormal))

	_, err := os.Stat(entry.DataDirPath)
	assert.NoError(t, err)
}
