// internal/easytouch/status.go
package easytouch

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Zone status array indices. The layout is fixed by the device
// firmware. Indices 8, 13 and 14 are undocumented and are carried
// through Raw only.
const (
	idxAutoHeatSetpoint = 0
	idxAutoCoolSetpoint = 1
	idxCoolSetpoint     = 2
	idxHeatSetpoint     = 3
	idxDrySetpoint      = 4
	idxDryFan           = 5
	idxFanOnlyFan       = 6
	idxCoolFan          = 7
	idxAutoFan          = 9
	idxMode             = 10
	idxHeatFan          = 11
	idxFaceplateTemp    = 12
	idxCurrentMode      = 15

	// zoneStatusLen is the minimum array length the decoder accepts.
	// Firmware may append elements past index 15; those stay in Raw.
	zoneStatusLen = 16
)

// PRM markers for the faceplate power indication.
const (
	ParamPowerOff = 7
	ParamPowerOn  = 15
)

// ZoneStatus is the decoded status array of one zone.
// All temperatures are in degrees Fahrenheit.
type ZoneStatus struct {
	Zone int

	AutoHeatSetpoint int
	AutoCoolSetpoint int
	CoolSetpoint     int
	HeatSetpoint     int
	DrySetpoint      int

	DryFan     FanSpeed
	FanOnlyFan FanSpeed
	CoolFan    FanSpeed
	AutoFan    FanSpeed
	HeatFan    FanSpeed

	Mode        Mode // setpoint mode
	CurrentMode Mode // running mode

	FaceplateTemperature float64

	// Raw is the full status array as received, including
	// undocumented indices.
	Raw []float64
}

// Fan reports the fan selection that applies to the zone's setpoint mode.
func (z *ZoneStatus) Fan() FanSpeed {
	switch z.Mode.Setpoint() {
	case ModeFanOnly:
		return z.FanOnlyFan
	case ModeCool:
		return z.CoolFan
	case ModeHeat:
		return z.HeatFan
	case ModeDry:
		return z.DryFan
	case ModeAuto:
		return z.AutoFan
	default:
		return FanOff
	}
}

// TargetTemperature reports the active single setpoint, if the zone is
// in a single-setpoint mode. Auto mode uses the range setpoints instead.
func (z *ZoneStatus) TargetTemperature() (int, bool) {
	switch z.Mode.Setpoint() {
	case ModeCool:
		return z.CoolSetpoint, true
	case ModeHeat:
		return z.HeatSetpoint, true
	case ModeDry:
		return z.DrySetpoint, true
	default:
		return 0, false
	}
}

// Status is one decoded device status payload.
type Status struct {
	// Zones holds the decoded status arrays keyed by zone index.
	// Hardware known so far only populates zone 0.
	Zones map[int]*ZoneStatus

	// Params is the PRM parameter list, uninterpreted except for the
	// power markers (see PowerIndicated).
	Params []int

	SerialNumber string
}

// Zone returns the status of one zone, or nil if the payload did not
// include it.
func (s *Status) Zone(n int) *ZoneStatus {
	return s.Zones[n]
}

// PowerIndicated reports the faceplate power state from the PRM list.
// ok is false when the list carries neither marker.
func (s *Status) PowerIndicated() (on, ok bool) {
	for _, p := range s.Params {
		switch p {
		case ParamPowerOn:
			return true, true
		case ParamPowerOff:
			return false, true
		}
	}
	return false, false
}

// DecodeStatus parses a status notification payload.
func DecodeStatus(payload []byte) (*Status, error) {
	var doc struct {
		ZSts map[string][]float64 `json:"Z_sts"`
		PRM  []float64            `json:"PRM"`
		SN   json.RawMessage      `json:"SN"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("easytouch: invalid status payload: %w", err)
	}
	if doc.ZSts == nil {
		return nil, fmt.Errorf("easytouch: status payload has no Z_sts key")
	}

	st := &Status{Zones: make(map[int]*ZoneStatus, len(doc.ZSts))}

	for key, arr := range doc.ZSts {
		zone, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("easytouch: Z_sts zone key %q is not an integer", key)
		}
		zs, err := decodeZone(zone, arr)
		if err != nil {
			return nil, err
		}
		st.Zones[zone] = zs
	}

	for _, p := range doc.PRM {
		st.Params = append(st.Params, int(p))
	}

	if len(doc.SN) > 0 && string(doc.SN) != "null" {
		var s string
		if err := json.Unmarshal(doc.SN, &s); err == nil {
			st.SerialNumber = s
		} else {
			// Some firmware reports the serial as a bare number.
			st.SerialNumber = string(doc.SN)
		}
	}

	return st, nil
}

func decodeZone(zone int, arr []float64) (*ZoneStatus, error) {
	if len(arr) < zoneStatusLen {
		return nil, fmt.Errorf(
			"easytouch: zone %d status array has %d elements, want at least %d",
			zone, len(arr), zoneStatusLen,
		)
	}

	raw := make([]float64, len(arr))
	copy(raw, arr)

	return &ZoneStatus{
		Zone: zone,

		AutoHeatSetpoint: int(arr[idxAutoHeatSetpoint]),
		AutoCoolSetpoint: int(arr[idxAutoCoolSetpoint]),
		CoolSetpoint:     int(arr[idxCoolSetpoint]),
		HeatSetpoint:     int(arr[idxHeatSetpoint]),
		DrySetpoint:      int(arr[idxDrySetpoint]),

		DryFan:     FanSpeed(arr[idxDryFan]),
		FanOnlyFan: FanSpeed(arr[idxFanOnlyFan]),
		CoolFan:    FanSpeed(arr[idxCoolFan]),
		AutoFan:    FanSpeed(arr[idxAutoFan]),
		HeatFan:    FanSpeed(arr[idxHeatFan]),

		Mode:        Mode(arr[idxMode]),
		CurrentMode: Mode(arr[idxCurrentMode]),

		FaceplateTemperature: arr[idxFaceplateTemp],

		Raw: raw,
	}, nil
}
