// internal/easytouch/modes.go
package easytouch

// Mode is an EasyTouch operating mode number as reported in the zone
// status array: index 10 carries the setpoint mode, index 15 the
// current (running) mode. CoolOn and HeatOn appear at index 15 only,
// while the compressor or heat source is active.
type Mode int

const (
	ModeOff     Mode = 0
	ModeFanOnly Mode = 1
	ModeCool    Mode = 2
	ModeCoolOn  Mode = 3
	ModeHeat    Mode = 4
	ModeHeatOn  Mode = 5
	ModeDry     Mode = 6
	ModeAuto    Mode = 11
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeFanOnly:
		return "fan"
	case ModeCool:
		return "cool"
	case ModeCoolOn:
		return "cool_on"
	case ModeHeat:
		return "heat"
	case ModeHeatOn:
		return "heat_on"
	case ModeDry:
		return "dry"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Setpoint collapses a running mode onto the setpoint mode it serves.
func (m Mode) Setpoint() Mode {
	switch m {
	case ModeCoolOn:
		return ModeCool
	case ModeHeatOn:
		return ModeHeat
	default:
		return m
	}
}

// FanSpeed is an EasyTouch fan selection value. The cycled variants
// run the fan intermittently; FullAuto lets the thermostat choose.
type FanSpeed int

const (
	FanOff        FanSpeed = 0
	FanManualLow  FanSpeed = 1
	FanManualHigh FanSpeed = 2
	FanCycledLow  FanSpeed = 65
	FanCycledHigh FanSpeed = 66
	FanFullAuto   FanSpeed = 128
)

func (f FanSpeed) String() string {
	switch f {
	case FanOff:
		return "off"
	case FanManualLow:
		return "manual low"
	case FanManualHigh:
		return "manual high"
	case FanCycledLow:
		return "cycled low"
	case FanCycledHigh:
		return "cycled high"
	case FanFullAuto:
		return "full auto"
	default:
		return "unknown"
	}
}

func (f FanSpeed) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
