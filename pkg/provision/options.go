package provision

import "github.com/marmos91/antnode-manager/pkg/types"

// AddNodeServiceOptions is the input to AddNode. Per-service
// directory roots are supplied once and service_name is appended to
// each of them per iteration.
type AddNodeServiceOptions struct {
	// Count is the batch size; defaults to 1 when zero.
	Count int

	UserMode bool
	User     string
	Version  string

	EvmNetwork     types.EvmNetwork
	RewardsAddress string

	Alpha                bool
	AutoRestart          bool
	Relay                bool
	NoUPnP               bool
	ReachabilityCheck    bool
	WriteOlderCacheFiles bool

	LogFormat           types.LogFormat
	MaxLogFiles         *int
	MaxArchivedLogFiles *int

	RPCPortRange     *types.PortRange
	NodePortRange    *types.PortRange
	MetricsPortRange *types.PortRange
	SuppressMetrics  bool

	NodeIP    string
	NetworkID *uint8

	InitialPeersConfig types.InitialPeersConfig

	// AntnodeSrcPath is the downloaded binary staged by the caller.
	AntnodeSrcPath string
	// AntnodeDirPath is the root directory under which each service
	// gets its own private binary copy (antnode_dir_path/service_name).
	AntnodeDirPath string
	// ServiceDataDirPath and ServiceLogDirPath are the roots each
	// service's data/log directory is created under.
	ServiceDataDirPath string
	ServiceLogDirPath  string
	// DeleteAntnodeSrc consumes AntnodeSrcPath once the whole batch has
	// been staged (deferred to the last iteration, see DESIGN.md).
	DeleteAntnodeSrc bool

	// AutoSetNatFlags enables the NAT-derived no_upnp/relay defaulting.
	AutoSetNatFlags bool
}

// AddDaemonOptions is the input to AddDaemon.
type AddDaemonOptions struct {
	DaemonSrcPath string
	InstallDir    string
	Endpoint      string
	Version       string
	ServiceLabel  string
	UserMode      bool
	User          string
}
