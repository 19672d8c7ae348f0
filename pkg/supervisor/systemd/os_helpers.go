package systemd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/marmos91/antnode-manager/pkg/supervisor"
)

// probeEphemeralPort asks the kernel for an unused TCP port by binding
// to port 0 and reading back the assigned address, then releasing it.
// There is an inherent race between release and the caller's own bind,
// which the provisioner narrows by allocating the whole batch before
// any service install begins.
func probeEphemeralPort(ctx context.Context) (uint16, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("probe available port: %w", err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("probe available port: unexpected listener address type")
	}
	return uint16(addr.Port), nil
}

// findPIDByExecutable walks /proc looking for a process whose exe link
// resolves to path. Each service owns a private copy of its binary, so
// at most one live process can match.
func findPIDByExecutable(ctx context.Context, path string) (uint32, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, fmt.Errorf("read /proc: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		pid, err := strconv.ParseUint(entry.Name(), 10, 32)
		if err != nil {
			continue
		}
		exe, err := os.Readlink(filepath.Join("/proc", entry.Name(), "exe"))
		if err != nil {
			// Not ours to inspect, or the process exited mid-walk.
			continue
		}
		if exe == path {
			return uint32(pid), nil
		}
	}
	return 0, supervisor.ErrServiceProcessNotFound
}

// createSystemUser provisions a login-disabled system account via
// useradd, the mechanism systemd itself deliberately leaves outside its
// dbus surface.
func createSystemUser(ctx context.Context, username string) error {
	cmd := exec.CommandContext(ctx, "useradd", "--system", "--no-create-home", "--shell", "/usr/sbin/nologin", username)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("create service user %s: %w: %s", username, err, trimOutput(out))
	}
	return nil
}

func trimOutput(out []byte) string {
	const max = 256
	if len(out) > max {
		out = out[:max]
	}
	return string(out)
}
