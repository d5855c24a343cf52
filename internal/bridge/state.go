// internal/bridge/state.go
package bridge

import "github.com/rvhome/easytouch-bridge/internal/easytouch"

// ZoneState is the retained per-zone state document the discovery
// templates read from. Climate fields use the HA vocabulary; the
// device_* fields keep the raw EasyTouch selections for diagnostics.
type ZoneState struct {
	Mode               string  `json:"mode"`
	Action             string  `json:"action"`
	FanMode            string  `json:"fan_mode"`
	CurrentTemperature float64 `json:"current_temperature"`

	TargetTemperature *int `json:"target_temperature,omitempty"`
	TargetTempHigh    *int `json:"target_temp_high,omitempty"`
	TargetTempLow     *int `json:"target_temp_low,omitempty"`

	DeviceMode string    `json:"device_mode"`
	DeviceFan  string    `json:"device_fan"`
	Raw        []float64 `json:"raw"`

	// serial_number and params back discovery sensor templates, so
	// the keys must be present even when the payload carries no SN or
	// PRM block.
	SerialNumber string `json:"serial_number"`
	Params       []int  `json:"params"`
	Power        *bool  `json:"power,omitempty"`
}

func newZoneState(st *easytouch.Status, z *easytouch.ZoneStatus) ZoneState {
	s := ZoneState{
		Mode:               hvacMode(z.Mode),
		Action:             hvacAction(z),
		FanMode:            hvacFanMode(z.Fan()),
		CurrentTemperature: z.FaceplateTemperature,

		DeviceMode: z.CurrentMode.String(),
		DeviceFan:  z.Fan().String(),
		Raw:        z.Raw,

		SerialNumber: st.SerialNumber,
		Params:       st.Params,
	}
	if s.Params == nil {
		s.Params = []int{}
	}

	if t, ok := z.TargetTemperature(); ok {
		s.TargetTemperature = &t
	}
	if z.Mode.Setpoint() == easytouch.ModeAuto {
		high, low := z.AutoCoolSetpoint, z.AutoHeatSetpoint
		s.TargetTempHigh = &high
		s.TargetTempLow = &low
	}

	if on, ok := st.PowerIndicated(); ok {
		s.Power = &on
	}

	return s
}
