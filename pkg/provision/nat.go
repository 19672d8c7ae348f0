package provision

import "github.com/marmos91/antnode-manager/pkg/types"

// applyNatDefaults forces no_upnp/relay per the host's observed NAT
// classification, preserving any other user-provided flag. AddNode
// calls it only when AutoSetNatFlags is set.
func applyNatDefaults(entry *types.NodeEntry, natStatus types.NatStatus) {
	switch natStatus {
	case types.NatPublic:
		entry.NoUPnP = true
		entry.Relay = false
	case types.NatUPnP:
		entry.Relay = false
	case types.NatPrivate, types.NatUnknown:
		entry.NoUPnP = true
		entry.Relay = true
	}
}
