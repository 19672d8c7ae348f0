// Package supervisor defines the abstract façade over the host OS
// service supervisor: install, start, stop, uninstall,
// probe-pid, get-available-port, sleep. Concrete implementations live
// in subpackages — pkg/supervisor/systemd for Linux, pkg/supervisor/mock
// for tests — so the lifecycle controller and provisioner never branch
// on OS directly.
package supervisor

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyInstalled is returned by Install when the service label is already registered.
	ErrAlreadyInstalled = errors.New("service already installed")
	// ErrNotInstalled is returned by Start/Stop/Uninstall when the label is unknown to the supervisor.
	ErrNotInstalled = errors.New("service not installed")
	// ErrNotRunning is returned by Stop when the service is not currently running.
	ErrNotRunning = errors.New("service not running")
	// ErrServiceProcessNotFound is returned by GetProcessPID when no process is found at path.
	ErrServiceProcessNotFound = errors.New("service process not found")
)

// InstallContext is the bundle of information the supervisor needs to
// register a new service unit.
type InstallContext struct {
	// ProgramPath is the absolute path to the executable to invoke.
	ProgramPath string
	// Argv is the full ordered argument list, excluding argv[0].
	Argv []string
	// Label is the service name the supervisor registers the unit under.
	Label string
	// Environment is the set of environment variables to export to the process.
	Environment map[string]string
	// RunAsUser is the OS account the service runs as in system mode; empty in user mode.
	RunAsUser string
	// Autostart enables the service to start at boot; restart after a
	// crash is governed by DisableRestartOnFailure.
	Autostart bool
	// DisableRestartOnFailure suppresses automatic restart after a crash.
	DisableRestartOnFailure bool
}

// Supervisor is the capability set the core consumes.
// Every method threads user_mode verbatim to the host
// supervisor's per-user vs system-wide namespace. Implementations are
// not expected to be transactional: a failed call leaves no side
// effect the core can assume away.
type Supervisor interface {
	// Install registers a new service unit. Returns ErrAlreadyInstalled
	// if ctx.Label is already registered.
	Install(ctx context.Context, installCtx InstallContext, userMode bool) error
	// Start starts an installed service. Returns ErrNotInstalled if label is unknown.
	Start(ctx context.Context, label string, userMode bool) error
	// Stop stops a running service. Returns ErrNotRunning if it is not running.
	Stop(ctx context.Context, label string, userMode bool) error
	// Uninstall removes a service unit. Returns ErrNotInstalled if label is unknown.
	Uninstall(ctx context.Context, label string, userMode bool) error
	// GetProcessPID probes for a running process at path. Returns
	// ErrServiceProcessNotFound if none is found.
	GetProcessPID(ctx context.Context, path string) (uint32, error)
	// GetAvailablePort asks the host for an unused TCP port.
	GetAvailablePort(ctx context.Context) (uint16, error)
	// Wait blocks for the given duration in milliseconds.
	Wait(ctx context.Context, ms int) error
	// CreateServiceUser is exposed for the CLI layer to invoke; account
	// creation itself is out of scope for the core.
	CreateServiceUser(ctx context.Context, username string) error
}
