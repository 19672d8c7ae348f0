package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marmos91/antnode-manager/pkg/types"
)

// parsePortRangeFlag parses a "--foo-port-range" flag value into a
// *types.PortRange. Empty input means "no range supplied" (the
// allocator probes the supervisor instead). A bare number is a
// single port; "lo-hi" is an inclusive span.
func parsePortRangeFlag(raw string) (*types.PortRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if lo, hi, ok := strings.Cut(raw, "-"); ok {
		loPort, err := parsePort(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", raw, err)
		}
		hiPort, err := parsePort(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", raw, err)
		}
		pr := types.NewPortSpan(loPort, hiPort)
		return &pr, nil
	}

	p, err := parsePort(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", raw, err)
	}
	pr := types.NewSinglePort(p)
	return &pr, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
