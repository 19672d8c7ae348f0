package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills in zero-valued fields after a config file/env
// unmarshal. Explicit values are always preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyRegistryDefaults(&cfg.Registry)
	applySupervisorDefaults(&cfg.Supervisor)
	applyProvisioningDefaults(&cfg.Provisioning)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	applyAuditDefaults(&cfg.Audit)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyRegistryDefaults(cfg *RegistryConfig) {
	if cfg.Path == "" {
		cfg.Path = defaultRegistryPath()
	}
}

func defaultRegistryPath() string {
	return getConfigDir() + "/registry.json"
}

func applySupervisorDefaults(cfg *SupervisorConfig) {
	// UserMode defaults to false (system-wide units); DefaultUser has
	// no sensible default and is left empty, meaning "the user running
	// antnoded".
}

func applyProvisioningDefaults(cfg *ProvisioningConfig) {
	if cfg.PostStartProbeDelay == 0 {
		cfg.PostStartProbeDelay = 3 * time.Second
	}
	// AutoSetNatFlags defaults to false: an operator opts in explicitly.
	// Port range defaults stay empty, meaning "probe an ephemeral port".
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8700
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Path == "" {
		cfg.Path = getConfigDir() + "/audit.db"
	}
}

// GetDefaultConfig returns a Config with every default applied — used
// when no config file exists and for `antnodectl config init`.
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: APIConfig{
			Enabled: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
