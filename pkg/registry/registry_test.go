package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/types"
)

func testEntry(name string, number uint32) types.NodeEntry {
	return types.NodeEntry{
		ServiceName:   name,
		Number:        number,
		AntnodePath:   "/data/" + name + "/antnode",
		Version:       "0.96.4",
		SchemaVersion: currentSchemaVersion,
		DataDirPath:   "/data/" + name,
		LogDirPath:    "/log/" + name,
		RPCSocketAddr: "127.0.0.1:8081",
		Status:        types.StatusAdded,
	}
}

func TestNewRegistryIsEmpty(t *testing.T) {
	r := New("/tmp/does-not-matter.json")
	assert.Empty(t, r.Nodes())
	assert.Equal(t, uint32(1), r.NextNumber())
	assert.False(t, r.HasGenesis())
}

func TestLoadMissingFileReturnsEmptyRegistry(t *testing.T) {
	dir := t.TempDir()
	r, err := Load(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)
	assert.Empty(t, r.Nodes())
}

func TestPushNodeThenSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")

	r := New(path)
	entry := testEntry("antnode1", 1)
	entry.InitialPeersConfig.First = true

	require.NoError(t, r.PushNode(entry))

	loaded, err := Load(path)
	require.NoError(t, err)

	nodes := loaded.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "antnode1", nodes[0].ServiceName)
	assert.True(t, nodes[0].InitialPeersConfig.First)
	assert.True(t, loaded.HasGenesis())
}

func TestPushNodeRejectsDuplicateServiceName(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.PushNode(testEntry("antnode1", 1)))

	err := r.PushNode(testEntry("antnode1", 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrDuplicateEntry))
}

func TestPushNodeRejectsDuplicateNumber(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.PushNode(testEntry("antnode1", 1)))

	err := r.PushNode(testEntry("antnode2", 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrDuplicateEntry))
}

func TestPushNodeRejectsSecondGenesis(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	first := testEntry("antnode1", 1)
	first.InitialPeersConfig.First = true
	require.NoError(t, r.PushNode(first))

	second := testEntry("antnode2", 2)
	second.InitialPeersConfig.First = true
	err := r.PushNode(second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrGenesisAlreadyExists))
}

func TestPushNodeRejectsOverlappingDirectories(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.PushNode(testEntry("antnode1", 1)))

	dup := testEntry("antnode2", 2)
	dup.DataDirPath = "/data/antnode1"
	err := r.PushNode(dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrDirectoryInUse))
}

func TestNextNumberIsMaxPlusOne(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.PushNode(testEntry("antnode1", 1)))
	require.NoError(t, r.PushNode(testEntry("antnode5", 5)))
	assert.Equal(t, uint32(6), r.NextNumber())
}

func TestClaimedPortsCollectsRPCNodeAndMetrics(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	entry := testEntry("antnode1", 1)
	nodePort := uint16(12000)
	metricsPort := uint16(6001)
	entry.NodePort = &nodePort
	entry.MetricsPort = &metricsPort
	require.NoError(t, r.PushNode(entry))

	claimed := r.ClaimedPorts()
	assert.Contains(t, claimed, uint16(8081))
	assert.Contains(t, claimed, nodePort)
	assert.Contains(t, claimed, metricsPort)
}

func TestMutateUpdatesEntryAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	r := New(path)
	require.NoError(t, r.PushNode(testEntry("antnode1", 1)))

	err := r.Mutate("antnode1", func(e *types.NodeEntry) error {
		e.Status = types.StatusRunning
		pid := uint32(4242)
		e.PID = &pid
		return nil
	})
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	entry, ok := loaded.Find("antnode1")
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, entry.Status)
	require.NotNil(t, entry.PID)
	assert.Equal(t, uint32(4242), *entry.PID)
}

func TestMutateUnknownServiceNameFails(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	err := r.Mutate("ghost", func(e *types.NodeEntry) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrNotFound))
}

func TestInsertDaemonSingleton(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.InsertDaemon(types.DaemonEntry{ServiceName: "antctld", DaemonPath: "/usr/local/bin/antctld"}))

	err := r.InsertDaemon(types.DaemonEntry{ServiceName: "antctld"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fleeterrors.ErrDaemonAlreadyExists))

	d, ok := r.Daemon()
	require.True(t, ok)
	assert.Equal(t, "antctld", d.ServiceName)
}

func TestUnknownTopLevelFieldsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")

	raw := `{"schema_version":1,"nodes":[],"daemon":null,"environment_variables":null,"nat_status":null,"bootstrap_peers":null,"future_field":{"nested":true}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, r.Save())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"future_field"`)
}
