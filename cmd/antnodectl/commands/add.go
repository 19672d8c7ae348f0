package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/pkg/provision"
	"github.com/marmos91/antnode-manager/pkg/types"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision new node or daemon services",
}

func init() {
	addCmd.AddCommand(addNodeCmd, addDaemonCmd)
}

var addNodeFlags struct {
	count          int
	userMode       bool
	user           string
	version        string
	evmNetwork     string
	evmRPCURL      string
	evmPayToken    string
	evmDataPayment string
	rewardsAddress string

	alpha                bool
	autoRestart          bool
	relay                bool
	noUPnP               bool
	reachabilityCheck    bool
	writeOlderCacheFiles bool
	autoSetNatFlags      bool

	logFormat   string
	maxLogFiles int

	rpcPortRange     string
	nodePortRange    string
	metricsPortRange string
	suppressMetrics  bool

	nodeIP    string
	networkID int

	peersFirst       bool
	peersAddrs       string
	peersContactsURL string
	peersLocal       bool
	peersIgnoreCache bool

	antnodeSrcPath     string
	antnodeDirPath     string
	serviceDataDirPath string
	serviceLogDirPath  string
	deleteAntnodeSrc   bool
}

var addNodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Provision one or more new node services (add_node)",
	Long: `Provision count new antnode services: allocate a unique name and
number, claim ports, stage a private binary copy per service, and
register each with the host supervisor.`,
	RunE: runAddNode,
}

func init() {
	f := addNodeCmd.Flags()
	f.IntVar(&addNodeFlags.count, "count", 1, "Number of services to provision in this batch")
	f.BoolVar(&addNodeFlags.userMode, "user-mode", false, "Install as a per-user service instead of system-wide")
	f.StringVar(&addNodeFlags.user, "user", "", "OS account the service runs as (system mode only)")
	f.StringVar(&addNodeFlags.version, "version", "", "Version string recorded on the new entries")

	f.StringVar(&addNodeFlags.evmNetwork, "evm-network", "arbitrum-one", "Payment network: arbitrum-one|arbitrum-sepolia|custom")
	f.StringVar(&addNodeFlags.evmRPCURL, "evm-rpc-url", "", "Custom EVM RPC URL (evm-network=custom only)")
	f.StringVar(&addNodeFlags.evmPayToken, "evm-payment-token-address", "", "Custom payment token address (evm-network=custom only)")
	f.StringVar(&addNodeFlags.evmDataPayment, "evm-data-payments-address", "", "Custom data payments address (evm-network=custom only)")
	f.StringVar(&addNodeFlags.rewardsAddress, "rewards-address", "", "20-byte EVM rewards address")

	f.BoolVar(&addNodeFlags.alpha, "alpha", false, "Enable alpha features")
	f.BoolVar(&addNodeFlags.autoRestart, "auto-restart", true, "Restart automatically when the service exits")
	f.BoolVar(&addNodeFlags.relay, "relay", false, "Enable relay mode")
	f.BoolVar(&addNodeFlags.noUPnP, "no-upnp", false, "Disable UPnP port mapping")
	f.BoolVar(&addNodeFlags.reachabilityCheck, "reachability-check", false, "Enable reachability checking")
	f.BoolVar(&addNodeFlags.writeOlderCacheFiles, "write-older-cache-files", false, "Write cache files in the older format")
	f.BoolVar(&addNodeFlags.autoSetNatFlags, "auto-set-nat-flags", false, "Derive no-upnp/relay from the registry's recorded NAT status")

	f.StringVar(&addNodeFlags.logFormat, "log-format", "", "Structured log format: json (default: plain text)")
	f.IntVar(&addNodeFlags.maxLogFiles, "max-log-files", 0, "Maximum rotated log files to retain (0: unset)")

	f.StringVar(&addNodeFlags.rpcPortRange, "rpc-port-range", "", "RPC port: single port or lo-hi span across the batch")
	f.StringVar(&addNodeFlags.nodePortRange, "node-port-range", "", "Listen port: single port or lo-hi span across the batch")
	f.StringVar(&addNodeFlags.metricsPortRange, "metrics-port-range", "", "Metrics port: single port or lo-hi span across the batch")
	f.BoolVar(&addNodeFlags.suppressMetrics, "suppress-metrics", false, "Do not allocate a metrics port")

	f.StringVar(&addNodeFlags.nodeIP, "node-ip", "", "Bind IPv4 address")
	f.IntVar(&addNodeFlags.networkID, "network-id", 0, "Network id (0: unset)")

	f.BoolVar(&addNodeFlags.peersFirst, "first", false, "Mark this node as the network's genesis node (count must be 1)")
	f.StringVar(&addNodeFlags.peersAddrs, "peer", "", "Comma-separated bootstrap multiaddrs")
	f.StringVar(&addNodeFlags.peersContactsURL, "network-contacts-url", "", "Comma-separated network contacts URLs")
	f.BoolVar(&addNodeFlags.peersLocal, "local", false, "Use local peer discovery")
	f.BoolVar(&addNodeFlags.peersIgnoreCache, "ignore-cache", false, "Ignore the bootstrap peer cache")

	f.StringVar(&addNodeFlags.antnodeSrcPath, "antnode-src-path", "", "Path to the downloaded antnode binary (required)")
	f.StringVar(&addNodeFlags.antnodeDirPath, "antnode-dir-path", "", "Root directory each service's private binary copy is staged under (required)")
	f.StringVar(&addNodeFlags.serviceDataDirPath, "data-dir-path", "", "Root directory each service's data directory is created under (required)")
	f.StringVar(&addNodeFlags.serviceLogDirPath, "log-dir-path", "", "Root directory each service's log directory is created under (required)")
	f.BoolVar(&addNodeFlags.deleteAntnodeSrc, "delete-antnode-src", false, "Delete antnode-src-path once the whole batch has been staged")

	_ = addNodeCmd.MarkFlagRequired("antnode-src-path")
	_ = addNodeCmd.MarkFlagRequired("antnode-dir-path")
	_ = addNodeCmd.MarkFlagRequired("data-dir-path")
	_ = addNodeCmd.MarkFlagRequired("log-dir-path")
}

func parseEvmNetwork() (types.EvmNetwork, error) {
	switch strings.ToLower(addNodeFlags.evmNetwork) {
	case "arbitrum-one", "":
		return types.ArbitrumOne(), nil
	case "arbitrum-sepolia":
		return types.ArbitrumSepolia(), nil
	case "custom":
		return types.CustomEvm(addNodeFlags.evmRPCURL, addNodeFlags.evmPayToken, addNodeFlags.evmDataPayment), nil
	default:
		return types.EvmNetwork{}, fmt.Errorf("unknown evm-network %q", addNodeFlags.evmNetwork)
	}
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runAddNode(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	evmNetwork, err := parseEvmNetwork()
	if err != nil {
		return err
	}

	opts := provision.AddNodeServiceOptions{
		Count:                addNodeFlags.count,
		UserMode:             addNodeFlags.userMode,
		User:                 addNodeFlags.user,
		Version:              addNodeFlags.version,
		EvmNetwork:           evmNetwork,
		RewardsAddress:       addNodeFlags.rewardsAddress,
		Alpha:                addNodeFlags.alpha,
		AutoRestart:          addNodeFlags.autoRestart,
		Relay:                addNodeFlags.relay,
		NoUPnP:               addNodeFlags.noUPnP,
		ReachabilityCheck:    addNodeFlags.reachabilityCheck,
		WriteOlderCacheFiles: addNodeFlags.writeOlderCacheFiles,
		AutoSetNatFlags:      addNodeFlags.autoSetNatFlags,
		SuppressMetrics:      addNodeFlags.suppressMetrics,
		NodeIP:               addNodeFlags.nodeIP,
		InitialPeersConfig: types.InitialPeersConfig{
			First:              addNodeFlags.peersFirst,
			Addrs:              splitCommaList(addNodeFlags.peersAddrs),
			NetworkContactsURL: splitCommaList(addNodeFlags.peersContactsURL),
			Local:              addNodeFlags.peersLocal,
			IgnoreCache:        addNodeFlags.peersIgnoreCache,
		},
		AntnodeSrcPath:     addNodeFlags.antnodeSrcPath,
		AntnodeDirPath:     addNodeFlags.antnodeDirPath,
		ServiceDataDirPath: addNodeFlags.serviceDataDirPath,
		ServiceLogDirPath:  addNodeFlags.serviceLogDirPath,
		DeleteAntnodeSrc:   addNodeFlags.deleteAntnodeSrc,
	}

	if addNodeFlags.logFormat != "" {
		opts.LogFormat = types.LogFormat(addNodeFlags.logFormat)
	}
	if addNodeFlags.maxLogFiles > 0 {
		opts.MaxLogFiles = &addNodeFlags.maxLogFiles
	}
	if addNodeFlags.networkID > 0 {
		id := uint8(addNodeFlags.networkID)
		opts.NetworkID = &id
	}
	if pr, err := parsePortRangeFlag(addNodeFlags.rpcPortRange); err != nil {
		return err
	} else if pr != nil {
		opts.RPCPortRange = pr
	}
	if pr, err := parsePortRangeFlag(addNodeFlags.nodePortRange); err != nil {
		return err
	} else if pr != nil {
		opts.NodePortRange = pr
	}
	if pr, err := parsePortRangeFlag(addNodeFlags.metricsPortRange); err != nil {
		return err
	} else if pr != nil {
		opts.MetricsPortRange = pr
	}

	ctx := cmd.Context()
	err = d.provision.AddNode(ctx, opts)
	d.record(ctx, "(batch)", "add", err)
	if err != nil {
		return err
	}

	cmdutil.PrintSuccess(fmt.Sprintf("provisioned %d node service(s)", countOrDefault(addNodeFlags.count)))
	return nil
}

func countOrDefault(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

var addDaemonFlags struct {
	daemonSrcPath string
	installDir    string
	endpoint      string
	version       string
	serviceLabel  string
	userMode      bool
	user          string
}

var addDaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Provision the singleton management daemon (add_daemon)",
	Long: `Register the local management daemon with the host supervisor.
Only one daemon may be registered per registry (DaemonAlreadyExists
otherwise).`,
	RunE: runAddDaemon,
}

func init() {
	f := addDaemonCmd.Flags()
	f.StringVar(&addDaemonFlags.daemonSrcPath, "daemon-src-path", "", "Path to the antnoded binary (required)")
	f.StringVar(&addDaemonFlags.installDir, "install-dir", "", "Directory the daemon binary is staged into (required)")
	f.StringVar(&addDaemonFlags.endpoint, "endpoint", "127.0.0.1:12500", "Daemon status-API endpoint")
	f.StringVar(&addDaemonFlags.version, "version", "", "Version string recorded on the daemon entry")
	f.StringVar(&addDaemonFlags.serviceLabel, "service-label", "antnoded", "Service label the supervisor registers the daemon under")
	f.BoolVar(&addDaemonFlags.userMode, "user-mode", false, "Install as a per-user service instead of system-wide")
	f.StringVar(&addDaemonFlags.user, "user", "", "OS account the daemon runs as (system mode only)")

	_ = addDaemonCmd.MarkFlagRequired("daemon-src-path")
	_ = addDaemonCmd.MarkFlagRequired("install-dir")
}

func runAddDaemon(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	ctx := cmd.Context()
	err = d.provision.AddDaemon(ctx, provision.AddDaemonOptions{
		DaemonSrcPath: addDaemonFlags.daemonSrcPath,
		InstallDir:    addDaemonFlags.installDir,
		Endpoint:      addDaemonFlags.endpoint,
		Version:       addDaemonFlags.version,
		ServiceLabel:  addDaemonFlags.serviceLabel,
		UserMode:      addDaemonFlags.userMode,
		User:          addDaemonFlags.user,
	})
	d.record(ctx, addDaemonFlags.serviceLabel, "add", err)
	if err != nil {
		return err
	}

	cmdutil.PrintSuccess("provisioned management daemon")
	return nil
}
