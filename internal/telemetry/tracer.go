package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for fleet-manager operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Service identity attributes
	// ========================================================================
	AttrServiceName = "antnode.service_name"
	AttrNumber      = "antnode.number"
	AttrUserMode    = "antnode.user_mode"
	AttrUser        = "antnode.user"

	// ========================================================================
	// Lifecycle attributes
	// ========================================================================
	AttrOperation     = "antnode.operation" // add_node, start, stop, upgrade, remove
	AttrStatus        = "antnode.status"
	AttrPID           = "antnode.pid"
	AttrPeerID        = "antnode.peer_id"
	AttrVersion       = "antnode.version"
	AttrTargetVersion = "antnode.target_version"

	// ========================================================================
	// Port / network attributes
	// ========================================================================
	AttrRPCPort     = "antnode.rpc_port"
	AttrNodePort    = "antnode.node_port"
	AttrMetricsPort = "antnode.metrics_port"
	AttrNetworkID   = "antnode.network_id"

	// ========================================================================
	// Supervisor callout attributes
	// ========================================================================
	AttrSupervisorMethod = "supervisor.method"
	AttrSupervisorLabel  = "supervisor.label"

	// ========================================================================
	// Registry attributes
	// ========================================================================
	AttrRegistryPath = "registry.path"
	AttrEntryCount   = "registry.entry_count"
)

// Span names for operations. Format: <component>.<operation>.
const (
	SpanProvisionAddNode   = "provision.add_node"
	SpanProvisionAddDaemon = "provision.add_daemon"

	SpanLifecycleStart   = "lifecycle.start"
	SpanLifecycleStop    = "lifecycle.stop"
	SpanLifecycleUpgrade = "lifecycle.upgrade"
	SpanLifecycleRemove  = "lifecycle.remove"

	SpanSupervisorInstall   = "supervisor.install"
	SpanSupervisorStart     = "supervisor.start"
	SpanSupervisorStop      = "supervisor.stop"
	SpanSupervisorUninstall = "supervisor.uninstall"
	SpanSupervisorProbePID  = "supervisor.probe_pid"

	SpanRegistrySave = "registry.save"

	SpanRPCNodeInfo    = "rpc.node_info"
	SpanRPCNetworkInfo = "rpc.network_info"
)

// ServiceName returns an attribute for the target service name.
func ServiceName(name string) attribute.KeyValue {
	return attribute.String(AttrServiceName, name)
}

// Number returns an attribute for the service number.
func Number(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrNumber, int64(n))
}

// UserMode returns an attribute for the user-mode flag.
func UserMode(userMode bool) attribute.KeyValue {
	return attribute.Bool(AttrUserMode, userMode)
}

// Operation returns an attribute for the lifecycle operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Status returns an attribute for the registry status.
func Status(status string) attribute.KeyValue {
	return attribute.String(AttrStatus, status)
}

// PID returns an attribute for a process id.
func PID(pid uint32) attribute.KeyValue {
	return attribute.Int64(AttrPID, int64(pid))
}

// PeerID returns an attribute for a peer identifier.
func PeerID(id string) attribute.KeyValue {
	return attribute.String(AttrPeerID, id)
}

// Version returns an attribute for a service version.
func Version(v string) attribute.KeyValue {
	return attribute.String(AttrVersion, v)
}

// TargetVersion returns an attribute for an upgrade target version.
func TargetVersion(v string) attribute.KeyValue {
	return attribute.String(AttrTargetVersion, v)
}

// RPCPort returns an attribute for the RPC port.
func RPCPort(port uint16) attribute.KeyValue {
	return attribute.Int64(AttrRPCPort, int64(port))
}

// NodePort returns an attribute for the node listen port.
func NodePort(port uint16) attribute.KeyValue {
	return attribute.Int64(AttrNodePort, int64(port))
}

// MetricsPort returns an attribute for the metrics port.
func MetricsPort(port uint16) attribute.KeyValue {
	return attribute.Int64(AttrMetricsPort, int64(port))
}

// SupervisorMethod returns an attribute for the supervisor callout method.
func SupervisorMethod(method string) attribute.KeyValue {
	return attribute.String(AttrSupervisorMethod, method)
}

// SupervisorLabel returns an attribute for the service label passed to the supervisor.
func SupervisorLabel(label string) attribute.KeyValue {
	return attribute.String(AttrSupervisorLabel, label)
}

// RegistryPath returns an attribute for the registry document path.
func RegistryPath(path string) attribute.KeyValue {
	return attribute.String(AttrRegistryPath, path)
}

// EntryCount returns an attribute for the number of entries in the registry.
func EntryCount(n int) attribute.KeyValue {
	return attribute.Int(AttrEntryCount, n)
}

// StartLifecycleSpan starts a span for a lifecycle operation against a
// named service (start/stop/upgrade/remove).
func StartLifecycleSpan(ctx context.Context, spanName, serviceName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{ServiceName(serviceName)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartSupervisorSpan starts a span around a single supervisor callout.
func StartSupervisorSpan(ctx context.Context, method, label string, userMode bool, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SupervisorMethod(method),
		SupervisorLabel(label),
		UserMode(userMode),
	}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, "supervisor."+method, trace.WithAttributes(allAttrs...))
}

// StartRegistrySpan starts a span for a registry document operation.
func StartRegistrySpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, spanName, trace.WithAttributes(attrs...))
}
