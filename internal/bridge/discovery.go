// internal/bridge/discovery.go
package bridge

import (
	"fmt"

	"github.com/rvhome/easytouch-bridge/internal/hass"
)

// EasyTouch setpoint range in degrees Fahrenheit.
const (
	minSetpoint = 45
	maxSetpoint = 95
)

// PublishDiscovery publishes retained Home Assistant discovery configs
// for every configured zone: one climate entity plus the diagnostic
// sensors. Call it from the MQTT on-connect hook.
func (b *Bridge) PublishDiscovery() {
	device := &hass.Device{
		Identifiers:  []string{"easytouch_" + b.opt.DeviceID},
		Connections:  [][2]string{{"mac", b.opt.Address}},
		Name:         "EasyTouch " + b.opt.DeviceID,
		Manufacturer: "Micro-Air",
		Model:        "EasyTouch Thermostat",
	}
	availability := []hass.Availability{
		{Topic: BridgeAvailabilityTopic(b.opt.TopicPrefix)},
		{Topic: b.topics.availability()},
	}

	for _, zone := range b.opt.Zones {
		b.publishClimateConfig(zone, device, availability)
		for _, s := range b.zoneSensors(zone, device, availability) {
			b.publishJSON(
				b.topics.discovery(b.opt.DiscoveryPrefix, "sensor", s.ObjectID),
				true, s,
			)
		}
	}
}

func (b *Bridge) publishClimateConfig(zone int, device *hass.Device, availability []hass.Availability) {
	state := b.topics.zoneState(zone)

	c := hass.Climate{
		Name:         fmt.Sprintf("Zone %d Climate", zone),
		UniqueID:     b.uniqueID(zone, "climate"),
		ObjectID:     b.uniqueID(zone, "climate"),
		Device:       device,
		Availability: availability,

		Modes:    hvacModes,
		FanModes: fanModes,

		ModeStateTopic:    state,
		ModeStateTemplate: "{{ value_json.mode }}",
		ModeCommandTopic:  b.topics.zoneCommand(zone, "mode"),

		FanModeStateTopic:    state,
		FanModeStateTemplate: "{{ value_json.fan_mode }}",
		FanModeCommandTopic:  b.topics.zoneCommand(zone, "fan"),

		TemperatureStateTopic:    state,
		TemperatureStateTemplate: "{{ value_json.target_temperature }}",
		TemperatureCommandTopic:  b.topics.zoneCommand(zone, "temp"),

		TemperatureHighStateTopic:    state,
		TemperatureHighStateTemplate: "{{ value_json.target_temp_high }}",
		TemperatureHighCommandTopic:  b.topics.zoneCommand(zone, "temp_high"),

		TemperatureLowStateTopic:    state,
		TemperatureLowStateTemplate: "{{ value_json.target_temp_low }}",
		TemperatureLowCommandTopic:  b.topics.zoneCommand(zone, "temp_low"),

		CurrentTemperatureTopic:    state,
		CurrentTemperatureTemplate: "{{ value_json.current_temperature }}",

		ActionTopic:    state,
		ActionTemplate: "{{ value_json.action }}",

		TemperatureUnit: "F",
		MinTemp:         minSetpoint,
		MaxTemp:         maxSetpoint,
		TempStep:        1,
	}

	b.publishJSON(
		b.topics.discovery(b.opt.DiscoveryPrefix, "climate", c.ObjectID),
		true, c,
	)
}

func (b *Bridge) zoneSensors(zone int, device *hass.Device, availability []hass.Availability) []hass.Sensor {
	state := b.topics.zoneState(zone)

	base := func(name, object string) hass.Sensor {
		return hass.Sensor{
			Name:         name,
			UniqueID:     b.uniqueID(zone, object),
			ObjectID:     b.uniqueID(zone, object),
			Device:       device,
			Availability: availability,
			StateTopic:   state,
		}
	}

	temperature := base(fmt.Sprintf("Zone %d Temperature", zone), "temperature")
	temperature.ValueTemplate = "{{ value_json.current_temperature }}"
	temperature.DeviceClass = "temperature"
	temperature.StateClass = "measurement"
	temperature.UnitOfMeasurement = "°F"

	currentMode := base(fmt.Sprintf("Zone %d Current Mode", zone), "current_mode")
	currentMode.ValueTemplate = "{{ value_json.device_mode }}"
	currentMode.EntityCategory = "diagnostic"
	currentMode.Icon = "mdi:hvac"

	currentFan := base(fmt.Sprintf("Zone %d Current Fan Mode", zone), "current_fan_mode")
	currentFan.ValueTemplate = "{{ value_json.device_fan }}"
	currentFan.EntityCategory = "diagnostic"
	currentFan.Icon = "mdi:fan"

	serial := base("Serial Number", "serial_number")
	serial.ValueTemplate = "{{ value_json.serial_number }}"
	serial.EntityCategory = "diagnostic"
	serial.Icon = "mdi:identifier"

	rawInfo := base(fmt.Sprintf("Zone %d Raw Info Array", zone), "raw_info_array")
	rawInfo.ValueTemplate = "{{ value_json.raw | tojson }}"
	rawInfo.EntityCategory = "diagnostic"
	rawInfo.Icon = "mdi:code-array"

	params := base("Parameters", "parameters")
	params.ValueTemplate = "{{ value_json.params | tojson }}"
	params.EntityCategory = "diagnostic"
	params.Icon = "mdi:tune"

	return []hass.Sensor{temperature, currentMode, currentFan, serial, rawInfo, params}
}

func (b *Bridge) uniqueID(zone int, object string) string {
	return fmt.Sprintf("easytouch_%s_zone%d_%s", b.opt.DeviceID, zone, object)
}
