// Package fleeterrors defines the typed error kinds surfaced by the
// fleet manager core. Every exported sentinel is meant to be tested
// with errors.Is; the handful that carry payload (PortInUse,
// CountMismatch) wrap a sentinel so errors.Is still matches through
// fmt.Errorf's %w chain.
package fleeterrors

import (
	"errors"
	"fmt"
)

var (
	// ErrGenesisAlreadyExists is returned by add_node(first=true) when a
	// genesis node is already registered.
	ErrGenesisAlreadyExists = errors.New("genesis node already exists")

	// ErrGenesisMustBeOne is returned by add_node(first=true, count>1).
	ErrGenesisMustBeOne = errors.New("genesis batch must have count=1")

	// ErrPortInUse is the sentinel wrapped by PortInUse.
	ErrPortInUse = errors.New("port already in use")

	// ErrCountMismatch is the sentinel wrapped by CountMismatch.
	ErrCountMismatch = errors.New("port range cardinality does not match requested count")

	// ErrDaemonAlreadyExists is returned by add_daemon when one is already registered.
	ErrDaemonAlreadyExists = errors.New("daemon already registered")

	// ErrProcessNotFoundAfterStart is returned when the post-start pid probe fails.
	ErrProcessNotFoundAfterStart = errors.New("process not found after start")

	// ErrRunningServiceCannotBeRemoved is returned by remove on a Running entry with a live pid.
	ErrRunningServiceCannotBeRemoved = errors.New("running service cannot be removed")

	// ErrStatusNotAsExpected is returned when registry status disagrees with OS state.
	ErrStatusNotAsExpected = errors.New("registry status does not match observed OS state")

	// ErrUpgradeNotRequired is returned when the target version is not newer and force is false.
	ErrUpgradeNotRequired = errors.New("upgrade not required")

	// ErrSupervisorIO wraps a failed supervisor callout.
	ErrSupervisorIO = errors.New("supervisor io error")

	// ErrRPCUnavailable is returned when the post-start RPC probe fails.
	ErrRPCUnavailable = errors.New("rpc unavailable")

	// ErrNotFound is returned when a lookup by service name misses.
	ErrNotFound = errors.New("entry not found")

	// ErrDuplicateEntry is a registry-level safety net: push_node should
	// never see a colliding service_name/number in practice, since the
	// provisioner derives both from the registry it is about to write
	// to, but the invariant is enforced here too rather than trusted.
	ErrDuplicateEntry = errors.New("service_name or number already registered")

	// ErrDirectoryInUse is the registry-level safety net for invariant 3
	// (disjoint data/log directories across entries).
	ErrDirectoryInUse = errors.New("directory already in use by another entry")
)

// PortInUse reports that the candidate port p collides with a port
// already claimed by another registry entry.
func PortInUse(p uint16) error {
	return fmt.Errorf("%w: %d", ErrPortInUse, p)
}

// CountMismatch reports that a supplied port range of size rangeSize
// does not agree with the requested batch count n.
func CountMismatch(n, rangeSize int) error {
	return fmt.Errorf("%w: requested %d, range has %d", ErrCountMismatch, n, rangeSize)
}

// SupervisorIO wraps an underlying supervisor callout failure.
func SupervisorIO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSupervisorIO, op, err)
}

// RPCUnavailable wraps an underlying RPC probe failure.
func RPCUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRPCUnavailable, err)
}
