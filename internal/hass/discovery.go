// internal/hass/discovery.go

// Package hass holds the MQTT discovery payload models Home Assistant
// expects. Field names follow the discovery schema abbreviation-free
// form; models are pure data with no behavior.
package hass

// Device identifies the physical device that discovered entities
// attach to. Entities sharing identifiers group under one device.
type Device struct {
	Identifiers  []string    `json:"identifiers"`
	Connections  [][2]string `json:"connections,omitempty"`
	Name         string      `json:"name,omitempty"`
	Manufacturer string      `json:"manufacturer,omitempty"`
	Model        string      `json:"model,omitempty"`
	SWVersion    string      `json:"sw_version,omitempty"`
}

// Availability points at a topic carrying online/offline payloads.
type Availability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available,omitempty"`
	PayloadNotAvailable string `json:"payload_not_available,omitempty"`
}

// Climate is the discovery config for an MQTT climate entity.
type Climate struct {
	Name         string         `json:"name"`
	UniqueID     string         `json:"unique_id"`
	ObjectID     string         `json:"object_id,omitempty"`
	Device       *Device        `json:"device,omitempty"`
	Availability []Availability `json:"availability,omitempty"`

	Modes    []string `json:"modes,omitempty"`
	FanModes []string `json:"fan_modes,omitempty"`

	ModeStateTopic    string `json:"mode_state_topic,omitempty"`
	ModeStateTemplate string `json:"mode_state_template,omitempty"`
	ModeCommandTopic  string `json:"mode_command_topic,omitempty"`

	FanModeStateTopic    string `json:"fan_mode_state_topic,omitempty"`
	FanModeStateTemplate string `json:"fan_mode_state_template,omitempty"`
	FanModeCommandTopic  string `json:"fan_mode_command_topic,omitempty"`

	TemperatureStateTopic    string `json:"temperature_state_topic,omitempty"`
	TemperatureStateTemplate string `json:"temperature_state_template,omitempty"`
	TemperatureCommandTopic  string `json:"temperature_command_topic,omitempty"`

	TemperatureHighStateTopic    string `json:"temperature_high_state_topic,omitempty"`
	TemperatureHighStateTemplate string `json:"temperature_high_state_template,omitempty"`
	TemperatureHighCommandTopic  string `json:"temperature_high_command_topic,omitempty"`

	TemperatureLowStateTopic    string `json:"temperature_low_state_topic,omitempty"`
	TemperatureLowStateTemplate string `json:"temperature_low_state_template,omitempty"`
	TemperatureLowCommandTopic  string `json:"temperature_low_command_topic,omitempty"`

	CurrentTemperatureTopic    string `json:"current_temperature_topic,omitempty"`
	CurrentTemperatureTemplate string `json:"current_temperature_template,omitempty"`

	ActionTopic    string `json:"action_topic,omitempty"`
	ActionTemplate string `json:"action_template,omitempty"`

	TemperatureUnit string  `json:"temperature_unit,omitempty"`
	MinTemp         float64 `json:"min_temp,omitempty"`
	MaxTemp         float64 `json:"max_temp,omitempty"`
	TempStep        float64 `json:"temp_step,omitempty"`
}

// Sensor is the discovery config for an MQTT sensor entity.
type Sensor struct {
	Name         string         `json:"name"`
	UniqueID     string         `json:"unique_id"`
	ObjectID     string         `json:"object_id,omitempty"`
	Device       *Device        `json:"device,omitempty"`
	Availability []Availability `json:"availability,omitempty"`

	StateTopic        string `json:"state_topic"`
	ValueTemplate     string `json:"value_template,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	EntityCategory    string `json:"entity_category,omitempty"`
	Icon              string `json:"icon,omitempty"`
}
