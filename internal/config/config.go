package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ramses-rf/virtualrf/internal/gateway"
	"github.com/ramses-rf/virtualrf/internal/pool"
)

// Config describes a virtual RF network: how many ports to create, which
// gateways sit on them, and the diagnostics settings.
type Config struct {
	Ports          int             `yaml:"ports"`
	LogSize        int             `yaml:"logSize"`
	PollIntervalUs int             `yaml:"pollIntervalUs"`
	Trace          TraceConfig     `yaml:"trace"`
	Gateways       []GatewayConfig `yaml:"gateways"`
}

// TraceConfig holds the frame trace file settings.
type TraceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// GatewayConfig attaches a gateway to a port by creation index.
type GatewayConfig struct {
	Port     int    `yaml:"port"` // 0-based index into the pool
	DeviceID string `yaml:"deviceId"`
	Firmware string `yaml:"firmware"` // "evofw3" or "hgi80"
}

// PollInterval returns the idle yield duration of the relay loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalUs) * time.Microsecond
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Ports:          3,
		LogSize:        100,
		PollIntervalUs: 100,
		Trace: TraceConfig{
			File:       "virtualrf-trace.jsonl",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load merges defaults, an optional YAML file and VRF_* environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// applyEnvOverrides applies VRF_* environment variables on top of the
// current values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("VRF_PORTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Ports = n
		}
	}
	if val := os.Getenv("VRF_LOG_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.LogSize = n
		}
	}
	if val := os.Getenv("VRF_POLL_INTERVAL_US"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.PollIntervalUs = n
		}
	}
	if val := os.Getenv("VRF_TRACE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Trace.Enabled = b
		}
	}
	if val := os.Getenv("VRF_TRACE_FILE"); val != "" {
		cfg.Trace.File = val
	}
}

// Validate checks the configuration against the pool and gateway rules,
// so a bad file fails setup instead of surfacing mid-run.
func (c *Config) Validate() error {
	if c.Ports < 1 || c.Ports > pool.MaxPorts {
		return fmt.Errorf("ports: %d: %w (want 1..%d)", c.Ports, pool.ErrBadPortCount, pool.MaxPorts)
	}
	if c.LogSize < 1 {
		return fmt.Errorf("logSize must be positive, got %d", c.LogSize)
	}
	if c.PollIntervalUs < 1 {
		return fmt.Errorf("pollIntervalUs must be positive, got %d", c.PollIntervalUs)
	}
	if c.Trace.Enabled && c.Trace.File == "" {
		return fmt.Errorf("trace enabled without a file")
	}

	seen := make(map[string]bool)
	for i, gw := range c.Gateways {
		if gw.Port < 0 || gw.Port >= c.Ports {
			return fmt.Errorf("gateways[%d]: port index %d outside 0..%d", i, gw.Port, c.Ports-1)
		}
		if err := gateway.ValidateDeviceID(gw.DeviceID); err != nil {
			return fmt.Errorf("gateways[%d]: %w", i, err)
		}
		if seen[gw.DeviceID] {
			return fmt.Errorf("gateways[%d]: %q: %w", i, gw.DeviceID, gateway.ErrDuplicateDeviceID)
		}
		seen[gw.DeviceID] = true
		if _, err := gateway.ParseFwType(gw.Firmware); err != nil {
			return fmt.Errorf("gateways[%d]: %w", i, err)
		}
	}
	return nil
}
