// Package mock provides a Supervisor double for tests that records
// every callout as an ordered (method, args) expectation, letting
// tests validate argv equality and call ordering without a real OS
// service manager.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/antnode-manager/pkg/supervisor"
)

// Call records one invocation of the mock Supervisor.
type Call struct {
	Method     string
	Label      string
	InstallCtx supervisor.InstallContext
	Path       string
	UserMode   bool
	WaitMillis int
}

// Supervisor is a hand-written, concurrency-safe test double. Installed
// labels and their InstallContext are kept so Start/Stop/Uninstall can
// validate state transitions the way a real supervisor would.
type Supervisor struct {
	mu sync.Mutex

	Calls []Call

	installed map[string]supervisor.InstallContext
	running   map[string]bool
	pids      map[string]uint32 // keyed by ProgramPath

	// NextPorts is drained in order by GetAvailablePort; when empty,
	// GetAvailablePort returns a "no more ports queued" error.
	NextPorts []uint16

	// FailOn, keyed by method name, forces that method to return the
	// given error on its next call.
	FailOn map[string]error
}

// New constructs an empty mock Supervisor.
func New() *Supervisor {
	return &Supervisor{
		installed: make(map[string]supervisor.InstallContext),
		running:   make(map[string]bool),
		pids:      make(map[string]uint32),
		FailOn:    make(map[string]error),
	}
}

func (m *Supervisor) record(c Call) {
	m.Calls = append(m.Calls, c)
}

func (m *Supervisor) failure(method string) error {
	if err, ok := m.FailOn[method]; ok {
		delete(m.FailOn, method)
		return err
	}
	return nil
}

// Install implements supervisor.Supervisor.
func (m *Supervisor) Install(_ context.Context, installCtx supervisor.InstallContext, userMode bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "Install", Label: installCtx.Label, InstallCtx: installCtx, UserMode: userMode})
	if err := m.failure("Install"); err != nil {
		return err
	}
	if _, exists := m.installed[installCtx.Label]; exists {
		return supervisor.ErrAlreadyInstalled
	}
	m.installed[installCtx.Label] = installCtx
	return nil
}

// Start implements supervisor.Supervisor.
func (m *Supervisor) Start(_ context.Context, label string, userMode bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "Start", Label: label, UserMode: userMode})
	if err := m.failure("Start"); err != nil {
		return err
	}
	installCtx, ok := m.installed[label]
	if !ok {
		return supervisor.ErrNotInstalled
	}
	m.running[label] = true
	m.pids[installCtx.ProgramPath] = uint32(1000 + len(m.Calls))
	return nil
}

// Stop implements supervisor.Supervisor.
func (m *Supervisor) Stop(_ context.Context, label string, userMode bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "Stop", Label: label, UserMode: userMode})
	if err := m.failure("Stop"); err != nil {
		return err
	}
	if !m.running[label] {
		return supervisor.ErrNotRunning
	}
	delete(m.running, label)
	if installCtx, ok := m.installed[label]; ok {
		delete(m.pids, installCtx.ProgramPath)
	}
	return nil
}

// Uninstall implements supervisor.Supervisor.
func (m *Supervisor) Uninstall(_ context.Context, label string, userMode bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "Uninstall", Label: label, UserMode: userMode})
	if err := m.failure("Uninstall"); err != nil {
		return err
	}
	installCtx, ok := m.installed[label]
	if !ok {
		return supervisor.ErrNotInstalled
	}
	delete(m.installed, label)
	delete(m.running, label)
	delete(m.pids, installCtx.ProgramPath)
	return nil
}

// GetProcessPID implements supervisor.Supervisor.
func (m *Supervisor) GetProcessPID(_ context.Context, path string) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "GetProcessPID", Path: path})
	if err := m.failure("GetProcessPID"); err != nil {
		return 0, err
	}
	pid, ok := m.pids[path]
	if !ok {
		return 0, supervisor.ErrServiceProcessNotFound
	}
	return pid, nil
}

// GetAvailablePort implements supervisor.Supervisor.
func (m *Supervisor) GetAvailablePort(_ context.Context) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "GetAvailablePort"})
	if err := m.failure("GetAvailablePort"); err != nil {
		return 0, err
	}
	if len(m.NextPorts) == 0 {
		return 0, fmt.Errorf("mock supervisor: no more ports queued")
	}
	p := m.NextPorts[0]
	m.NextPorts = m.NextPorts[1:]
	return p, nil
}

// Wait implements supervisor.Supervisor. It does not actually sleep;
// tests assert ordering, not wall-clock delay.
func (m *Supervisor) Wait(_ context.Context, ms int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "Wait", WaitMillis: ms})
	return m.failure("Wait")
}

// CreateServiceUser implements supervisor.Supervisor.
func (m *Supervisor) CreateServiceUser(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Method: "CreateServiceUser", Label: username})
	return m.failure("CreateServiceUser")
}

// MethodsCalled returns the ordered list of method names invoked, for
// tests asserting call ordering.
func (m *Supervisor) MethodsCalled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = c.Method
	}
	return names
}

// InstalledLabels returns the currently installed labels in sorted order.
func (m *Supervisor) InstalledLabels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	labels := make([]string, 0, len(m.installed))
	for label := range m.installed {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// IsRunning reports whether label is currently started.
func (m *Supervisor) IsRunning(label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[label]
}

// InstallContextFor returns the InstallContext most recently installed
// for label, for argv-equality assertions.
func (m *Supervisor) InstallContextFor(label string) (supervisor.InstallContext, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ic, ok := m.installed[label]
	return ic, ok
}
