// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultTopicPrefix     = "easytouch"
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultPollIntervalMs  = 30000
	DefaultTimeoutMs       = 10000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	m := &cfg.Bridge.MQTT
	if m.TopicPrefix == "" {
		m.TopicPrefix = DefaultTopicPrefix
	}
	if m.DiscoveryPrefix == "" {
		m.DiscoveryPrefix = DefaultDiscoveryPrefix
	}
	m.TopicPrefix = strings.TrimSuffix(m.TopicPrefix, "/")
	m.DiscoveryPrefix = strings.TrimSuffix(m.DiscoveryPrefix, "/")

	if cfg.Bridge.Log.Level == "" {
		cfg.Bridge.Log.Level = "info"
	}

	for di := range cfg.Bridge.Devices {
		d := &cfg.Bridge.Devices[di]

		d.Address = strings.ToUpper(d.Address)

		if d.PollIntervalMs == 0 {
			d.PollIntervalMs = DefaultPollIntervalMs
		}
		if d.TimeoutMs == 0 {
			d.TimeoutMs = DefaultTimeoutMs
		}

		// Hardware known so far exposes zone 0 only.
		if len(d.Zones) == 0 {
			d.Zones = []int{0}
		}
	}
}
