// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Devices []DeviceConfig `yaml:"devices"`
	Log     LogConfig      `yaml:"log"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`

	// TopicPrefix roots the bridge's own topics (state, commands).
	TopicPrefix string `yaml:"topic_prefix"`

	// DiscoveryPrefix roots Home Assistant discovery configs.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID       string `yaml:"id"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`

	PollIntervalMs int   `yaml:"poll_interval_ms"`
	TimeoutMs      int   `yaml:"timeout_ms"`
	Zones          []int `yaml:"zones"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads and parses a YAML config file.
// It performs no validation; call Validate, then Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
