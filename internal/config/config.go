// Package config loads connectord's process configuration with viper,
// grounded on ipiton-alert-history-service's internal/config/config.go
// (SetDefault block + mapstructure Config struct + Validate), generalized
// from that service's storage/webhook/LLM settings to the scheduler and
// gateway settings a connector-service daemon needs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is connectord's full process configuration.
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Gateway      GatewayConfig      `mapstructure:"gateway"`
	Log          LogConfig          `mapstructure:"log"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// OrchestratorConfig drives internal/core/services.OrchestratorConfig.
type OrchestratorConfig struct {
	TickInterval             time.Duration     `mapstructure:"tick_interval"`
	HeartbeatIntervalSeconds int               `mapstructure:"heartbeat_interval_seconds"`
	WorkerHostname           string            `mapstructure:"worker_hostname"`
	NativeServiceTypes       []string          `mapstructure:"native_service_types"`
	ConfiguredConnectorIDs   []string          `mapstructure:"configured_connector_ids"`
	ConnectorServiceTypes    map[string]string `mapstructure:"connector_service_types"`
	UpdateCountsEvery        int               `mapstructure:"update_counts_every"`
}

// GatewayConfig selects and configures the IndexGateway backend.
type GatewayConfig struct {
	// Backend is "memory" or "sqlite".
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LogConfig configures internal/logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the Prometheus HTTP exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("orchestrator.tick_interval", "1m")
	v.SetDefault("orchestrator.heartbeat_interval_seconds", 60)
	v.SetDefault("orchestrator.worker_hostname", "connectord")
	v.SetDefault("orchestrator.native_service_types", []string{"jira", "filesystem"})
	v.SetDefault("orchestrator.configured_connector_ids", []string{})
	v.SetDefault("orchestrator.update_counts_every", 50)

	v.SetDefault("gateway.backend", "memory")
	v.SetDefault("gateway.sqlite_path", "connectord.db")

	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from configPath (if non-empty) and environment
// variables (CONNECTORD_ prefix, dots mapped to underscores), applying
// defaults for anything unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("connectord")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Watch re-reads configPath on every fsnotify-driven change viper detects
// and invokes onChange with the freshly loaded Config. Reload failures are
// reported through onReloadError rather than crashing the watch loop.
func Watch(configPath string, onChange func(*Config), onReloadError func(error)) error {
	if configPath == "" {
		return nil
	}
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			onReloadError(fmt.Errorf("unmarshal reloaded config: %w", err))
			return
		}
		if err := cfg.Validate(); err != nil {
			onReloadError(fmt.Errorf("reloaded config validation failed: %w", err))
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
	return nil
}

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Gateway.Backend != "memory" && c.Gateway.Backend != "sqlite" {
		return fmt.Errorf("gateway.backend must be 'memory' or 'sqlite', got %q", c.Gateway.Backend)
	}
	if c.Gateway.Backend == "sqlite" && c.Gateway.SQLitePath == "" {
		return fmt.Errorf("gateway.sqlite_path is required when gateway.backend is 'sqlite'")
	}
	if c.Orchestrator.TickInterval <= 0 {
		return fmt.Errorf("orchestrator.tick_interval must be positive")
	}
	if c.Orchestrator.WorkerHostname == "" {
		return fmt.Errorf("orchestrator.worker_hostname cannot be empty")
	}
	if c.Log.Level == "" {
		return fmt.Errorf("log.level cannot be empty")
	}
	return nil
}
