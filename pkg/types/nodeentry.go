package types

// LogFormat is the optional structured-log output format a node
// service may be started with.
type LogFormat string

const (
	LogFormatDefault LogFormat = ""
	LogFormatJSON    LogFormat = "json"
)

// NodeEntry is one registered node service. There is deliberately no
// behaviour attached to this type beyond plain field access — the
// registry is the only thing allowed to mutate it, under its own
// per-entry lock.
type NodeEntry struct {
	// Identity
	ServiceName string `json:"service_name"`
	Number      uint32 `json:"number"`
	User        string `json:"user,omitempty"`
	UserMode    bool   `json:"user_mode"`

	// Binary
	AntnodePath   string `json:"antnode_path"`
	Version       string `json:"version"`
	SchemaVersion int    `json:"schema_version"`

	// Directories
	DataDirPath string `json:"data_dir_path"`
	LogDirPath  string `json:"log_dir_path"`

	// Network parameters
	RPCSocketAddr      string             `json:"rpc_socket_addr"`
	NodePort           *uint16            `json:"node_port,omitempty"`
	MetricsPort        *uint16            `json:"metrics_port,omitempty"`
	NodeIP             string             `json:"node_ip,omitempty"`
	NetworkID          *uint8             `json:"network_id,omitempty"`
	InitialPeersConfig InitialPeersConfig `json:"initial_peers_config"`

	// Feature flags
	Alpha                bool `json:"alpha"`
	AutoRestart          bool `json:"auto_restart"`
	Relay                bool `json:"relay"`
	NoUPnP               bool `json:"no_upnp"`
	ReachabilityCheck    bool `json:"reachability_check"`
	WriteOlderCacheFiles bool `json:"write_older_cache_files"`

	// Logging
	LogFormat           LogFormat `json:"log_format,omitempty"`
	MaxLogFiles         *int      `json:"max_log_files,omitempty"`
	MaxArchivedLogFiles *int      `json:"max_archived_log_files,omitempty"`

	// Payment
	EvmNetwork     EvmNetwork `json:"evm_network"`
	RewardsAddress string     `json:"rewards_address"`

	// Runtime
	Status         ServiceStatus `json:"status"`
	PID            *uint32       `json:"pid,omitempty"`
	PeerID         string        `json:"peer_id,omitempty"`
	ConnectedPeers []string      `json:"connected_peers,omitempty"`
	ListenAddr     []string      `json:"listen_addr,omitempty"`
	RewardBalance  *string       `json:"reward_balance,omitempty"`
}

// DaemonEntry is the optional singleton local management daemon.
type DaemonEntry struct {
	DaemonPath  string        `json:"daemon_path"`
	Endpoint    string        `json:"endpoint"`
	PID         *uint32       `json:"pid,omitempty"`
	ServiceName string        `json:"service_name"`
	Status      ServiceStatus `json:"status"`
	Version     string        `json:"version"`
}

