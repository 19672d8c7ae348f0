// Package config loads antnode-manager's daemon/CLI settings:
// viper-backed, with DITFLEET_-prefixed environment overrides taking
// precedence over a YAML file at
// $XDG_CONFIG_HOME/antnode-manager/config.yaml, which in turn
// overrides the built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is antnode-manager's static configuration. Nothing about a
// single NodeEntry lives here — that is the registry's job; this
// struct only holds host-level daemon/CLI settings.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry" yaml:"telemetry"`
	Registry     RegistryConfig     `mapstructure:"registry" yaml:"registry"`
	Supervisor   SupervisorConfig   `mapstructure:"supervisor" yaml:"supervisor"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning" yaml:"provisioning"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	API          APIConfig          `mapstructure:"api" yaml:"api"`
	Audit        AuditConfig        `mapstructure:"audit" yaml:"audit"`
}

// LoggingConfig controls internal/logger's behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and, nested, Pyroscope
// continuous profiling — both opt-in.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// RegistryConfig locates the durable JSON registry document.
type RegistryConfig struct {
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// SupervisorConfig holds the host supervisor's defaults. Neither field
// is read by any command: `antnodectl add` takes user mode and the
// run-as user from its own flags only.
type SupervisorConfig struct {
	// UserMode is the stored user-mode default (systemd --user units
	// over system units).
	UserMode bool `mapstructure:"user_mode" yaml:"user_mode"`
	// DefaultUser is the stored default run-as account.
	DefaultUser string `mapstructure:"default_user" yaml:"default_user"`
}

// ProvisioningConfig holds add_node/add_daemon defaults. cmd/antnodectl
// reads only PostStartProbeDelay; the port-range and AutoSetNatFlags
// fields are not read by any command, and `antnodectl add` takes those
// settings from its own flags.
type ProvisioningConfig struct {
	// DefaultNodePortRange, DefaultRPCPortRange and DefaultMetricsPortRange
	// are "lo-hi" or "port" strings parsed into a types.PortRange; empty
	// means "probe an ephemeral port".
	DefaultNodePortRange    string `mapstructure:"default_node_port_range" yaml:"default_node_port_range"`
	DefaultRPCPortRange     string `mapstructure:"default_rpc_port_range" yaml:"default_rpc_port_range"`
	DefaultMetricsPortRange string `mapstructure:"default_metrics_port_range" yaml:"default_metrics_port_range"`

	// PostStartProbeDelay is the unconditional settle time between
	// supervisor.Start and the first pid probe.
	PostStartProbeDelay time.Duration `mapstructure:"post_start_probe_delay" validate:"gt=0" yaml:"post_start_probe_delay"`

	// AutoSetNatFlags is the stored default for the NAT-derived
	// no_upnp/relay defaulting.
	AutoSetNatFlags bool `mapstructure:"auto_set_nat_flags" yaml:"auto_set_nat_flags"`
}

// MetricsConfig configures the Prometheus self-metrics endpoint
// exposed alongside antnoded's status API.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// APIConfig configures antnoded's read-only status HTTP API.
type APIConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AuditConfig configures the gorm/sqlite operation-history store.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Load loads configuration from file, environment and defaults.
//
// Precedence (highest to lowest): environment variables (DITFLEET_*),
// configuration file, built-in defaults. An environment variable only
// overrides a key that appears in the file; when no file is found, the
// built-in defaults are returned and the environment is not consulted.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning an operator-friendly error
// when no config file exists at the requested (or default) location.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"initialize one first:\n"+
				"  antnodectl config init\n\n"+
				"or point at a custom file:\n"+
				"  antnoded --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories
// as needed.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("DITFLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook lets config files and env overrides express
// durations as "30s", "5m" etc. rather than raw nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/antnode-manager, falling back
// to ~/.config/antnode-manager, or "." if the home directory can't be
// determined.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "antnode-manager")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "antnode-manager")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir is exposed for the `antnodectl config` commands.
func GetConfigDir() string {
	return getConfigDir()
}
