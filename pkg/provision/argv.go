package provision

import (
	"strconv"
	"strings"

	"github.com/marmos91/antnode-manager/pkg/types"
)

// BuildArgv materialises the antnode invocation argv for entry, in a
// fixed flag order. It is exported so the lifecycle controller's
// upgrade procedure can re-materialise the same argv from a mutated
// entry, giving provisioning and upgrade one shared recipe instead of
// two separately templated invocations.
func BuildArgv(entry types.NodeEntry) []string {
	var argv []string

	push := func(flag string, args ...string) {
		argv = append(argv, flag)
		argv = append(argv, args...)
	}

	push("--rpc", entry.RPCSocketAddr)
	push("--root-dir", entry.DataDirPath)
	push("--log-output-dest", entry.LogDirPath)

	if entry.InitialPeersConfig.First {
		argv = append(argv, "--first")
	}
	for _, addr := range entry.InitialPeersConfig.Addrs {
		push("--peer", addr)
	}
	if len(entry.InitialPeersConfig.NetworkContactsURL) > 0 {
		push("--network-contacts-url", strings.Join(entry.InitialPeersConfig.NetworkContactsURL, ","))
	}
	if entry.InitialPeersConfig.Local {
		argv = append(argv, "--local")
	}
	if entry.InitialPeersConfig.IgnoreCache {
		argv = append(argv, "--ignore-cache")
	}
	if entry.InitialPeersConfig.BootstrapCacheDir != "" {
		push("--bootstrap-cache-dir", entry.InitialPeersConfig.BootstrapCacheDir)
	}

	if entry.NetworkID != nil {
		push("--network-id", strconv.Itoa(int(*entry.NetworkID)))
	}
	if entry.NodeIP != "" {
		push("--ip", entry.NodeIP)
	}
	if entry.NodePort != nil {
		push("--port", strconv.Itoa(int(*entry.NodePort)))
	}
	if entry.NoUPnP {
		argv = append(argv, "--no-upnp")
	}
	if entry.Relay {
		argv = append(argv, "--relay")
	}
	if entry.ReachabilityCheck {
		argv = append(argv, "--reachability-check")
	}
	if entry.LogFormat != "" {
		push("--log-format", string(entry.LogFormat))
	}
	if entry.MetricsPort != nil {
		push("--metrics-server-port", strconv.Itoa(int(*entry.MetricsPort)))
	}
	if entry.MaxArchivedLogFiles != nil {
		push("--max-archived-log-files", strconv.Itoa(*entry.MaxArchivedLogFiles))
	}
	if entry.MaxLogFiles != nil {
		push("--max-log-files", strconv.Itoa(*entry.MaxLogFiles))
	}
	if entry.Alpha {
		argv = append(argv, "--alpha")
	}
	if entry.RewardsAddress != "" {
		push("--rewards-address", entry.RewardsAddress)
	}
	if entry.WriteOlderCacheFiles {
		argv = append(argv, "--write-older-cache-files")
	}

	argv = append(argv, evmSubcommand(entry.EvmNetwork)...)

	return argv
}

func evmSubcommand(n types.EvmNetwork) []string {
	switch n.Kind {
	case types.EvmArbitrumOne:
		return []string{"evm-arbitrum-one"}
	case types.EvmArbitrumSepolia:
		return []string{"evm-arbitrum-sepolia"}
	case types.EvmCustom:
		return []string{
			"evm-custom",
			"--rpc-url", n.RPCURL,
			"--payment-token-address", n.PaymentTokenAddress,
			"--data-payments-address", n.DataPaymentsAddress,
		}
	default:
		return nil
	}
}
