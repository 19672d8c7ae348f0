// Package ports implements the Port Allocator: given an optional
// user-supplied PortRange and the set of ports already claimed by the
// registry, it assigns non-colliding ports for a batch of new services.
package ports

import (
	"sync"

	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/types"
)

// Prober asks the host for a single available port when no PortRange
// was supplied. It is satisfied by the supervisor's get-available-port
// callout.
type Prober interface {
	GetAvailablePort() (uint16, error)
}

// Allocator assigns ports for new service batches, guarding against
// collisions with a caller-supplied "already claimed" set.
type Allocator struct {
	mu     sync.Mutex
	prober Prober
}

// New constructs an Allocator that falls back to prober.GetAvailablePort
// when a PortRange is not supplied.
func New(prober Prober) *Allocator {
	return &Allocator{prober: prober}
}

// Allocate assigns count ports, honouring an optional PortRange and
// rejecting any candidate already present in claimed. When rangeOpt is
// nil, every port is probed from the Prober. The returned slice
// preserves batch order: the i-th service receives the i-th port of
// the user-supplied range, or the i-th probed port otherwise.
func (a *Allocator) Allocate(rangeOpt *types.PortRange, count int, claimed map[uint16]struct{}) ([]uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rangeOpt != nil {
		return a.allocateFromRange(*rangeOpt, count, claimed)
	}
	return a.allocateProbed(count, claimed)
}

func (a *Allocator) allocateFromRange(r types.PortRange, count int, claimed map[uint16]struct{}) ([]uint16, error) {
	if r.Size() != count {
		return nil, fleeterrors.CountMismatch(count, r.Size())
	}

	candidates := r.Ports()
	for _, p := range candidates {
		if _, taken := claimed[p]; taken {
			return nil, fleeterrors.PortInUse(p)
		}
	}
	return candidates, nil
}

func (a *Allocator) allocateProbed(count int, claimed map[uint16]struct{}) ([]uint16, error) {
	result := make([]uint16, 0, count)
	// local view of ports claimed during this batch, so the i-th probe
	// in a multi-service batch never collides with the (i-1)-th.
	seen := make(map[uint16]struct{}, len(claimed)+count)
	for p := range claimed {
		seen[p] = struct{}{}
	}

	for i := 0; i < count; i++ {
		p, err := a.prober.GetAvailablePort()
		if err != nil {
			return nil, err
		}
		if _, taken := seen[p]; taken {
			return nil, fleeterrors.PortInUse(p)
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result, nil
}
