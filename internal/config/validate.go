// internal/config/validate.go
package config

import (
	"fmt"
	"regexp"
	"strings"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Bridge.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	if len(cfg.Bridge.Devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}

	switch cfg.Bridge.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug/info/warn/error", cfg.Bridge.Log.Level)
	}

	ids := make(map[string]struct{})
	addrs := make(map[string]struct{})

	for _, d := range cfg.Bridge.Devices {
		if d.ID == "" {
			return fmt.Errorf("device id is required")
		}
		if strings.ContainsAny(d.ID, "/+#") {
			return fmt.Errorf("device %q: id must not contain MQTT topic characters", d.ID)
		}
		if _, dup := ids[d.ID]; dup {
			return fmt.Errorf("device id %q is used twice", d.ID)
		}
		ids[d.ID] = struct{}{}

		if d.Address == "" {
			return fmt.Errorf("device %q: address is required", d.ID)
		}
		if !macPattern.MatchString(d.Address) {
			return fmt.Errorf("device %q: address %q is not a MAC address", d.ID, d.Address)
		}
		key := strings.ToUpper(d.Address)
		if _, dup := addrs[key]; dup {
			return fmt.Errorf("device address %q is used twice", d.Address)
		}
		addrs[key] = struct{}{}

		if d.PollIntervalMs < 0 {
			return fmt.Errorf("device %q: poll_interval_ms must be >= 0", d.ID)
		}
		if d.TimeoutMs < 0 {
			return fmt.Errorf("device %q: timeout_ms must be >= 0", d.ID)
		}

		for _, z := range d.Zones {
			if z < 0 {
				return fmt.Errorf("device %q: zone index %d must be >= 0", d.ID, z)
			}
		}
	}

	return nil
}
