package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/pkg/fleeterrors"
	"github.com/marmos91/antnode-manager/pkg/metricsclient"
)

var statusFlags struct {
	nodeMetrics bool
}

var statusCmd = &cobra.Command{
	Use:   "status <service-name>",
	Short: "Show a single service's registered state and live pid",
	Long: `Print the registry's recorded state for one service, plus whether
the supervisor currently reports a live process at its antnode_path —
the same reconciliation check start/remove perform internally, exposed
here for read-only inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.nodeMetrics, "node-metrics", false, "Also scrape the node's own metrics endpoint (requires a metrics_port)")
}

type statusTable struct {
	pairs [][2]string
}

func (t statusTable) Headers() []string { return []string{"FIELD", "VALUE"} }

func (t statusTable) Rows() [][]string {
	rows := make([][]string, len(t.pairs))
	for i, p := range t.pairs {
		rows[i] = []string{p[0], p[1]}
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	serviceName := args[0]

	d, closeDeps, err := loadDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	entry, ok := d.registry.Find(serviceName)
	if !ok {
		return fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, serviceName)
	}

	ctx := cmd.Context()
	livePID, probeErr := d.supervisor.GetProcessPID(ctx, entry.AntnodePath)
	live := "no"
	if probeErr == nil {
		live = fmt.Sprintf("yes (pid %d)", livePID)
	}

	pid := "-"
	if entry.PID != nil {
		pid = strconv.FormatUint(uint64(*entry.PID), 10)
	}

	pairs := [][2]string{
		{"service_name", entry.ServiceName},
		{"number", strconv.FormatUint(uint64(entry.Number), 10)},
		{"status", entry.Status.String()},
		{"version", cmdutil.EmptyOr(entry.Version, "-")},
		{"rpc_socket_addr", entry.RPCSocketAddr},
		{"recorded_pid", pid},
		{"live_process", live},
		{"peer_id", cmdutil.EmptyOr(entry.PeerID, "-")},
		{"data_dir_path", entry.DataDirPath},
		{"log_dir_path", entry.LogDirPath},
		{"antnode_path", entry.AntnodePath},
	}

	if statusFlags.nodeMetrics {
		if entry.MetricsPort == nil {
			return fmt.Errorf("%s has no metrics_port; provision with --metrics-port-range to enable scraping", serviceName)
		}
		mc := metricsclient.NewHTTPClient(fmt.Sprintf("127.0.0.1:%d", *entry.MetricsPort))
		nodeMetrics, err := mc.GetNodeMetrics(ctx)
		if err != nil {
			return fmt.Errorf("scrape node metrics: %w", err)
		}
		keys := make([]string, 0, len(nodeMetrics))
		for k := range nodeMetrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = append(pairs, [2]string{"metric:" + k, strconv.FormatFloat(nodeMetrics[k], 'f', -1, 64)})
		}
	}

	return cmdutil.PrintResource(os.Stdout, entry, statusTable{pairs: pairs})
}
