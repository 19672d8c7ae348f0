// Package systemd implements supervisor.Supervisor on top of systemd:
// jobs are submitted over dbus (StartUnit/StopUnit with "replace") and
// a buffered channel is drained for job completion. Unit files are
// rendered from unitTemplate and written under the unit directory
// before the daemon is reloaded and the unit started.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	systemddbus "github.com/coreos/go-systemd/v22/dbus"

	"github.com/marmos91/antnode-manager/pkg/supervisor"
)

const (
	systemUnitDir = "/etc/systemd/system"
	userUnitDirFn = ".config/systemd/user"

	jobWaitTimeout = 10 * time.Second
)

// Supervisor is the Linux systemd-backed supervisor.Supervisor.
// Each call opens its own dbus connection scoped to the requested
// mode (system or user bus), rather than holding a long-lived
// package-global handle that would need separate system/user variants.
type Supervisor struct {
	// HomeDir overrides os.UserHomeDir for user-mode unit placement; left
	// empty in production, set by tests.
	HomeDir string
}

// New constructs a Supervisor using the live systemd dbus connection.
func New() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) connect(ctx context.Context, userMode bool) (*systemddbus.Conn, error) {
	if userMode {
		return systemddbus.NewUserConnectionContext(ctx)
	}
	return systemddbus.NewSystemConnectionContext(ctx)
}

func (s *Supervisor) unitDir(userMode bool) (string, error) {
	if !userMode {
		return systemUnitDir, nil
	}
	home := s.HomeDir
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
	}
	return filepath.Join(home, userUnitDirFn), nil
}

func unitName(label string) string {
	if strings.HasSuffix(label, ".service") {
		return label
	}
	return label + ".service"
}

// Install renders and writes the unit file, then reloads the systemd
// daemon so the new unit is visible to subsequent Start calls.
func (s *Supervisor) Install(ctx context.Context, installCtx supervisor.InstallContext, userMode bool) error {
	dir, err := s.unitDir(userMode)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, unitName(installCtx.Label))
	if _, err := os.Stat(path); err == nil {
		return supervisor.ErrAlreadyInstalled
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create unit directory %s: %w", dir, err)
	}

	data := unitTemplateData{
		Label:                   installCtx.Label,
		ProgramPath:             installCtx.ProgramPath,
		Argv:                    installCtx.Argv,
		Environment:             installCtx.Environment,
		RunAsUser:               installCtx.RunAsUser,
		DisableRestartOnFailure: installCtx.DisableRestartOnFailure,
		UserMode:                userMode,
	}

	var buf strings.Builder
	if err := unitTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render unit file: %w", err)
	}

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("write unit file %s: %w", path, err)
	}

	conn, err := s.connect(ctx, userMode)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("reload systemd daemon: %w", err)
	}

	if installCtx.Autostart {
		if _, _, err := conn.EnableUnitFilesContext(ctx, []string{path}, userMode, true); err != nil {
			return fmt.Errorf("enable unit %s: %w", installCtx.Label, err)
		}
	}

	return nil
}

// Start starts an installed unit and waits for the submitted job to
// settle.
func (s *Supervisor) Start(ctx context.Context, label string, userMode bool) error {
	conn, err := s.connect(ctx, userMode)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	return s.runJob(ctx, conn, func(ch chan<- string) (int, error) {
		return conn.StartUnitContext(ctx, unitName(label), "replace", ch)
	})
}

// Stop stops a running unit.
func (s *Supervisor) Stop(ctx context.Context, label string, userMode bool) error {
	conn, err := s.connect(ctx, userMode)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	return s.runJob(ctx, conn, func(ch chan<- string) (int, error) {
		return conn.StopUnitContext(ctx, unitName(label), "replace", ch)
	})
}

func (s *Supervisor) runJob(ctx context.Context, conn *systemddbus.Conn, submit func(ch chan<- string) (int, error)) error {
	ch := make(chan string, 1)
	if _, err := submit(ch); err != nil {
		return fmt.Errorf("submit systemd job: %w", err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("systemd job finished with result %q", result)
		}
		return nil
	case <-time.After(jobWaitTimeout):
		return fmt.Errorf("timed out waiting for systemd job")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Uninstall stops (best-effort), disables, and removes the unit file.
func (s *Supervisor) Uninstall(ctx context.Context, label string, userMode bool) error {
	dir, err := s.unitDir(userMode)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, unitName(label))

	if _, err := os.Stat(path); err != nil {
		return supervisor.ErrNotInstalled
	}

	conn, err := s.connect(ctx, userMode)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	_, _ = conn.DisableUnitFilesContext(ctx, []string{path}, userMode)

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove unit file %s: %w", path, err)
	}

	return conn.ReloadContext(ctx)
}

// GetProcessPID probes for a live process executing the binary at
// path. Every service owns a private binary copy, so matching on the
// executable path identifies exactly one service's process.
func (s *Supervisor) GetProcessPID(ctx context.Context, path string) (uint32, error) {
	return findPIDByExecutable(ctx, path)
}

// GetAvailablePort binds an ephemeral TCP listener and releases it
// immediately, reporting the kernel-assigned port back to the caller.
func (s *Supervisor) GetAvailablePort(ctx context.Context) (uint16, error) {
	return probeEphemeralPort(ctx)
}

// Wait blocks for ms milliseconds or until ctx is cancelled.
func (s *Supervisor) Wait(ctx context.Context, ms int) error {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateServiceUser provisions a system account for running services
// without login shell access, deferred to useradd since systemd itself
// exposes no dbus call for account management.
func (s *Supervisor) CreateServiceUser(ctx context.Context, username string) error {
	return createSystemUser(ctx, username)
}
