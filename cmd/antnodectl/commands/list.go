package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/pkg/types"
)

var listFlags struct {
	includeRemoved bool
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered node and daemon services",
	Long: `List every entry in the registry. Removed entries are retained for
audit but filtered out of the listing by default unless --all is given.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFlags.includeRemoved, "all", false, "Include Removed entries")
}

type nodeTable struct {
	nodes  []types.NodeEntry
	daemon *types.DaemonEntry
}

func (t nodeTable) Headers() []string {
	return []string{"SERVICE", "NUMBER", "STATUS", "VERSION", "RPC", "PID", "PEER ID"}
}

func (t nodeTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.nodes)+1)
	for _, n := range t.nodes {
		pid := "-"
		if n.PID != nil {
			pid = strconv.FormatUint(uint64(*n.PID), 10)
		}
		rows = append(rows, []string{
			n.ServiceName,
			strconv.FormatUint(uint64(n.Number), 10),
			n.Status.String(),
			cmdutil.EmptyOr(n.Version, "-"),
			n.RPCSocketAddr,
			pid,
			cmdutil.EmptyOr(n.PeerID, "-"),
		})
	}
	if t.daemon != nil {
		pid := "-"
		if t.daemon.PID != nil {
			pid = strconv.FormatUint(uint64(*t.daemon.PID), 10)
		}
		rows = append(rows, []string{
			t.daemon.ServiceName,
			"-",
			t.daemon.Status.String(),
			cmdutil.EmptyOr(t.daemon.Version, "-"),
			t.daemon.Endpoint,
			pid,
			"-",
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	all := d.registry.Nodes()
	nodes := make([]types.NodeEntry, 0, len(all))
	for _, n := range all {
		if n.Status == types.StatusRemoved && !listFlags.includeRemoved {
			continue
		}
		nodes = append(nodes, n)
	}

	var daemon *types.DaemonEntry
	if dEntry, ok := d.registry.Daemon(); ok {
		daemon = &dEntry
	}

	table := nodeTable{nodes: nodes, daemon: daemon}
	isEmpty := len(nodes) == 0 && daemon == nil

	return cmdutil.PrintOutput(os.Stdout, struct {
		Nodes  []types.NodeEntry `json:"nodes"`
		Daemon *types.DaemonEntry `json:"daemon,omitempty"`
	}{Nodes: nodes, Daemon: daemon}, isEmpty, "no services registered", table)
}
