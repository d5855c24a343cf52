// internal/bridge/topics.go
package bridge

import "fmt"

// topicSet builds every topic the bridge uses for one device.
type topicSet struct {
	prefix string
	id     string
}

// Availability payloads.
const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// BridgeAvailabilityTopic is the process-level availability topic; the
// MQTT last will marks it offline when the bridge drops off the broker.
func BridgeAvailabilityTopic(prefix string) string {
	return prefix + "/bridge/availability"
}

func (t topicSet) availability() string {
	return fmt.Sprintf("%s/%s/availability", t.prefix, t.id)
}

func (t topicSet) zoneState(zone int) string {
	return fmt.Sprintf("%s/%s/zone/%d/state", t.prefix, t.id, zone)
}

// zoneCommand builds a command topic; what is one of mode, fan, temp,
// temp_high, temp_low.
func (t topicSet) zoneCommand(zone int, what string) string {
	return fmt.Sprintf("%s/%s/zone/%d/%s/set", t.prefix, t.id, zone, what)
}

func (t topicSet) locationSet() string {
	return fmt.Sprintf("%s/%s/location/set", t.prefix, t.id)
}

func (t topicSet) querySet() string {
	return fmt.Sprintf("%s/%s/query/set", t.prefix, t.id)
}

func (t topicSet) raw() string {
	return fmt.Sprintf("%s/%s/raw", t.prefix, t.id)
}

// discovery builds a Home Assistant discovery config topic:
// <discovery_prefix>/<component>/<node>/<object>/config.
func (t topicSet) discovery(discoveryPrefix, component, object string) string {
	return fmt.Sprintf("%s/%s/easytouch_%s/%s/config", discoveryPrefix, component, t.id, object)
}
