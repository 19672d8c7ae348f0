// Package registry implements the Node Registry: a durable,
// concurrently-accessible document mapping service names to node
// configuration and observed status, using an RWMutex-guarded
// named-resource map generalised to a two-level lock: a registry-level
// lock over the entry list itself, and a per-entry lock so one
// service's mutation never blocks observation of another.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/types"
)

const filePermissions = 0o644

// nodeHandle pairs one NodeEntry with its own lock, so a lifecycle
// operation on one service never blocks a concurrent read of another.
type nodeHandle struct {
	mu    sync.RWMutex
	entry types.NodeEntry
}

// Registry is the process-wide, file-backed registry document.
type Registry struct {
	// mu guards the entries slice/index and the daemon/env/nat/peers
	// fields below it — anything that changes the *shape* of the
	// document rather than one entry's own fields.
	mu sync.RWMutex

	path string

	entries  []*nodeHandle
	byName   map[string]*nodeHandle
	byNumber map[uint32]*nodeHandle

	daemon *types.DaemonEntry

	environmentVariables []types.EnvVar
	natStatus            types.NatStatus
	bootstrapPeers       []string

	extra map[string]json.RawMessage
}

// New constructs an empty registry backed by path. Nothing is written
// to disk until the first mutation: the registry is created empty on
// first use.
func New(path string) *Registry {
	return &Registry{
		path:     path,
		byName:   make(map[string]*nodeHandle),
		byNumber: make(map[uint32]*nodeHandle),
	}
}

// Load reads the registry document at path, or returns an empty
// registry if the file does not yet exist.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	r := New(path)
	r.applyDocumentLocked(doc)
	return r, nil
}

// decodeDocument parses data into a document, rejecting a schema_version
// newer than this package writes (see DESIGN.md's "schema_version
// migration" entry).
func decodeDocument(path string, data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if doc.SchemaVersion > currentSchemaVersion {
		return document{}, fmt.Errorf("registry %s has schema_version %d, newer than supported version %d", path, doc.SchemaVersion, currentSchemaVersion)
	}
	return doc, nil
}

// applyDocumentLocked replaces the registry's in-memory state with doc.
// Callers must hold r.mu exclusively.
func (r *Registry) applyDocumentLocked(doc document) {
	entries := make([]*nodeHandle, 0, len(doc.Nodes))
	byName := make(map[string]*nodeHandle, len(doc.Nodes))
	byNumber := make(map[uint32]*nodeHandle, len(doc.Nodes))
	for _, entry := range doc.Nodes {
		h := &nodeHandle{entry: entry}
		entries = append(entries, h)
		byName[entry.ServiceName] = h
		byNumber[entry.Number] = h
	}

	r.entries = entries
	r.byName = byName
	r.byNumber = byNumber
	r.daemon = doc.Daemon
	r.environmentVariables = doc.EnvironmentVariables
	r.natStatus = doc.NatStatus
	r.bootstrapPeers = doc.BootstrapPeers
	r.extra = doc.extra
}

// Reload re-reads the registry document from disk and replaces the
// in-memory state wholesale, for external-edit reconciliation (see
// Watcher). A missing file reloads to an empty registry rather than
// erroring, matching Load's own "created empty on first use" handling.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.mu.Lock()
		r.applyDocumentLocked(document{SchemaVersion: currentSchemaVersion})
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("reload registry %s: %w", r.path, err)
	}

	doc, err := decodeDocument(r.path, data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.applyDocumentLocked(doc)
	r.mu.Unlock()
	return nil
}

// snapshotLocked builds the on-disk document from the current state.
// Callers must hold at least r.mu.RLock.
func (r *Registry) snapshotLocked() document {
	nodes := make([]types.NodeEntry, len(r.entries))
	for i, h := range r.entries {
		h.mu.RLock()
		nodes[i] = h.entry
		h.mu.RUnlock()
	}

	return document{
		SchemaVersion:        currentSchemaVersion,
		Nodes:                nodes,
		Daemon:               r.daemon,
		EnvironmentVariables: r.environmentVariables,
		NatStatus:            r.natStatus,
		BootstrapPeers:       r.bootstrapPeers,
		extra:                r.extra,
	}
}

// Save serialises the full document to r.path, writing to a temporary
// file and renaming into place so a crash mid-write never leaves a
// truncated registry.
func (r *Registry) Save() error {
	r.mu.RLock()
	doc := r.snapshotLocked()
	r.mu.RUnlock()

	return r.writeDocument(doc)
}

func (r *Registry) writeDocument(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry directory %s: %w", dir, err)
		}
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return fmt.Errorf("write registry temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename registry into place: %w", err)
	}
	return nil
}

// PushNode appends a new entry, enforcing the uniqueness and
// disjointness invariants (service_name, number, and directories),
// then persists.
func (r *Registry) PushNode(entry types.NodeEntry) error {
	r.mu.Lock()

	if _, exists := r.byName[entry.ServiceName]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: service_name %q", fleeterrors.ErrDuplicateEntry, entry.ServiceName)
	}
	if _, exists := r.byNumber[entry.Number]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: number %d", fleeterrors.ErrDuplicateEntry, entry.Number)
	}
	if entry.InitialPeersConfig.First {
		for _, h := range r.entries {
			h.mu.RLock()
			isGenesis := h.entry.InitialPeersConfig.First
			h.mu.RUnlock()
			if isGenesis {
				r.mu.Unlock()
				return fleeterrors.ErrGenesisAlreadyExists
			}
		}
	}
	for _, h := range r.entries {
		h.mu.RLock()
		dataDir, logDir := h.entry.DataDirPath, h.entry.LogDirPath
		h.mu.RUnlock()
		if dataDir == entry.DataDirPath || logDir == entry.LogDirPath {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", fleeterrors.ErrDirectoryInUse, entry.DataDirPath)
		}
	}

	h := &nodeHandle{entry: entry}
	r.entries = append(r.entries, h)
	r.byName[entry.ServiceName] = h
	r.byNumber[entry.Number] = h
	r.mu.Unlock()

	return r.Save()
}

// InsertDaemon registers the singleton daemon entry, failing if one is
// already present.
func (r *Registry) InsertDaemon(d types.DaemonEntry) error {
	r.mu.Lock()
	if r.daemon != nil {
		r.mu.Unlock()
		return fleeterrors.ErrDaemonAlreadyExists
	}
	r.daemon = &d
	r.mu.Unlock()

	return r.Save()
}

// Nodes returns a snapshot copy of every registered entry, in
// insertion order.
func (r *Registry) Nodes() []types.NodeEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.NodeEntry, len(r.entries))
	for i, h := range r.entries {
		h.mu.RLock()
		out[i] = h.entry
		h.mu.RUnlock()
	}
	return out
}

// Daemon returns a copy of the registered daemon entry, if any.
func (r *Registry) Daemon() (types.DaemonEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.daemon == nil {
		return types.DaemonEntry{}, false
	}
	return *r.daemon, true
}

// NatStatus returns the registry's recorded NAT classification.
func (r *Registry) NatStatus() types.NatStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.natStatus
}

// SetNatStatus updates the recorded NAT classification and persists.
func (r *Registry) SetNatStatus(status types.NatStatus) error {
	r.mu.Lock()
	r.natStatus = status
	r.mu.Unlock()
	return r.Save()
}

// EnvironmentVariables returns the environment applied to every
// service at install time.
func (r *Registry) EnvironmentVariables() []types.EnvVar {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.EnvVar, len(r.environmentVariables))
	copy(out, r.environmentVariables)
	return out
}

// BootstrapPeers returns the registry-wide bootstrap peer list.
func (r *Registry) BootstrapPeers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.bootstrapPeers))
	copy(out, r.bootstrapPeers)
	return out
}

// Find returns a copy of the entry registered under serviceName.
func (r *Registry) Find(serviceName string) (types.NodeEntry, bool) {
	r.mu.RLock()
	h, ok := r.byName[serviceName]
	r.mu.RUnlock()
	if !ok {
		return types.NodeEntry{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entry, true
}

// NextNumber returns max(existing numbers)+1, or 1 if the registry is
// empty.
func (r *Registry) NextNumber() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max uint32
	for n := range r.byNumber {
		if n > max {
			max = n
		}
	}
	return max + 1
}

// HasGenesis reports whether any registered entry has
// initial_peers_config.first set.
func (r *Registry) HasGenesis() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.entries {
		h.mu.RLock()
		first := h.entry.InitialPeersConfig.First
		h.mu.RUnlock()
		if first {
			return true
		}
	}
	return false
}

// ClaimedPorts returns the set of ports (rpc, node, metrics) in use
// across every entry, for the Port Allocator's collision checks.
func (r *Registry) ClaimedPorts() map[uint16]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claimed := make(map[uint16]struct{})
	for _, h := range r.entries {
		h.mu.RLock()
		if p, ok := portFromAddr(h.entry.RPCSocketAddr); ok {
			claimed[p] = struct{}{}
		}
		if h.entry.NodePort != nil {
			claimed[*h.entry.NodePort] = struct{}{}
		}
		if h.entry.MetricsPort != nil {
			claimed[*h.entry.MetricsPort] = struct{}{}
		}
		h.mu.RUnlock()
	}
	return claimed
}

// ClaimedDirectories returns the set of data/log directories in use
// across every entry, for provisioning pre-checks.
func (r *Registry) ClaimedDirectories() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claimed := make(map[string]struct{}, len(r.entries)*2)
	for _, h := range r.entries {
		h.mu.RLock()
		claimed[h.entry.DataDirPath] = struct{}{}
		claimed[h.entry.LogDirPath] = struct{}{}
		h.mu.RUnlock()
	}
	return claimed
}

// Mutate looks up serviceName, holds its entry lock exclusively for
// the duration of fn, then persists the full document. The
// registry-level lock is only held (shared) long enough to find the
// handle, so a concurrent PushNode/InsertDaemon can still proceed
// once the handle lookup completes; fn's exclusivity is scoped to the
// one entry being changed.
func (r *Registry) Mutate(serviceName string, fn func(*types.NodeEntry) error) error {
	r.mu.RLock()
	h, ok := r.byName[serviceName]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, serviceName)
	}

	h.mu.Lock()
	err := fn(&h.entry)
	h.mu.Unlock()
	if err != nil {
		return err
	}

	return r.Save()
}

// View looks up serviceName and runs fn with a read lock held, without
// persisting — for read-only inspection under concurrent mutation.
func (r *Registry) View(serviceName string, fn func(types.NodeEntry)) (bool, error) {
	r.mu.RLock()
	h, ok := r.byName[serviceName]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, serviceName)
	}

	h.mu.RLock()
	fn(h.entry)
	h.mu.RUnlock()
	return true, nil
}

func portFromAddr(addr string) (uint16, bool) {
	idx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(addr)-1 {
		return 0, false
	}
	var p uint16
	if _, err := fmt.Sscanf(addr[idx+1:], "%d", &p); err != nil {
		return 0, false
	}
	return p, true
}
