package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the fleet manager.
// Use these keys consistently so operation logs can be aggregated and
// queried by service name, number, or lifecycle transition.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID       = "trace_id"       // OpenTelemetry trace ID for request correlation
	KeySpanID        = "span_id"        // OpenTelemetry span ID for operation tracking
	KeyCorrelationID = "correlation_id" // Per-operation correlation ID (google/uuid)

	// ========================================================================
	// Service Identity
	// ========================================================================
	KeyServiceName = "service_name" // e.g. antnode1
	KeyNumber      = "number"       // monotone service number
	KeyUserMode    = "user_mode"    // per-user vs system-wide supervisor namespace
	KeyUser        = "user"         // run-as OS account

	// ========================================================================
	// Lifecycle & Status
	// ========================================================================
	KeyOperation = "operation" // add_node, start, stop, upgrade, remove
	KeyStatus    = "status"    // Added, Running, Stopped, Removed
	KeyPID       = "pid"
	KeyPeerID    = "peer_id"
	KeyVersion   = "version"
	KeyTargetVer = "target_version"

	// ========================================================================
	// Ports & Network
	// ========================================================================
	KeyRPCPort     = "rpc_port"
	KeyNodePort    = "node_port"
	KeyMetricsPort = "metrics_port"
	KeyNetworkID   = "network_id"

	// ========================================================================
	// Paths
	// ========================================================================
	KeyDataDir    = "data_dir_path"
	KeyLogDir     = "log_dir_path"
	KeyBinaryPath = "antnode_path"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAttempt    = "attempt"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// CorrelationID returns a slog.Attr for the per-operation correlation ID.
func CorrelationID(id string) slog.Attr {
	return slog.String(KeyCorrelationID, id)
}

// ServiceName returns a slog.Attr for the service name.
func ServiceName(name string) slog.Attr {
	return slog.String(KeyServiceName, name)
}

// Number returns a slog.Attr for the service number.
func Number(n uint64) slog.Attr {
	return slog.Uint64(KeyNumber, n)
}

// UserMode returns a slog.Attr for the user-mode flag.
func UserMode(userMode bool) slog.Attr {
	return slog.Bool(KeyUserMode, userMode)
}

// User returns a slog.Attr for the run-as account.
func User(name string) slog.Attr {
	return slog.String(KeyUser, name)
}

// Operation returns a slog.Attr for the lifecycle operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Status returns a slog.Attr for the registry status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// PID returns a slog.Attr for a process id.
func PID(pid uint32) slog.Attr {
	return slog.Uint64(KeyPID, uint64(pid))
}

// PeerID returns a slog.Attr for a peer identifier.
func PeerID(id string) slog.Attr {
	return slog.String(KeyPeerID, id)
}

// Version returns a slog.Attr for a service version.
func Version(v string) slog.Attr {
	return slog.String(KeyVersion, v)
}

// TargetVersion returns a slog.Attr for an upgrade target version.
func TargetVersion(v string) slog.Attr {
	return slog.String(KeyTargetVer, v)
}

// RPCPort returns a slog.Attr for the RPC port.
func RPCPort(port uint16) slog.Attr {
	return slog.Uint64(KeyRPCPort, uint64(port))
}

// NodePort returns a slog.Attr for the node listen port.
func NodePort(port uint16) slog.Attr {
	return slog.Uint64(KeyNodePort, uint64(port))
}

// MetricsPort returns a slog.Attr for the metrics port.
func MetricsPort(port uint16) slog.Attr {
	return slog.Uint64(KeyMetricsPort, uint64(port))
}

// NetworkID returns a slog.Attr for the network id.
func NetworkID(id uint8) slog.Attr {
	return slog.Uint64(KeyNetworkID, uint64(id))
}

// DataDir returns a slog.Attr for the service data directory.
func DataDir(path string) slog.Attr {
	return slog.String(KeyDataDir, path)
}

// LogDir returns a slog.Attr for the service log directory.
func LogDir(path string) slog.Attr {
	return slog.String(KeyLogDir, path)
}

// BinaryPath returns a slog.Attr for the per-service binary path.
func BinaryPath(path string) slog.Attr {
	return slog.String(KeyBinaryPath, path)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr for a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
