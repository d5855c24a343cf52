// internal/bridge/hvac.go
package bridge

import "github.com/rvhome/easytouch-bridge/internal/easytouch"

// Home Assistant climate vocabulary.
const (
	hvacOff     = "off"
	hvacFanOnly = "fan_only"
	hvacCool    = "cool"
	hvacHeat    = "heat"
	hvacDry     = "dry"
	hvacAuto    = "auto"

	actionOff     = "off"
	actionFan     = "fan"
	actionCooling = "cooling"
	actionHeating = "heating"
	actionDrying  = "drying"
	actionIdle    = "idle"

	fanOff  = "off"
	fanLow  = "low"
	fanHigh = "high"
	fanAuto = "auto"
)

// hvacModes and fanModes are the values advertised in discovery.
var (
	hvacModes = []string{hvacOff, hvacFanOnly, hvacCool, hvacHeat, hvacDry, hvacAuto}
	fanModes  = []string{fanOff, fanLow, fanHigh, fanAuto}
)

// hvacMode maps a device mode onto the HA mode vocabulary. Running
// modes collapse onto the mode they serve.
func hvacMode(m easytouch.Mode) string {
	switch m.Setpoint() {
	case easytouch.ModeOff:
		return hvacOff
	case easytouch.ModeFanOnly:
		return hvacFanOnly
	case easytouch.ModeCool:
		return hvacCool
	case easytouch.ModeHeat:
		return hvacHeat
	case easytouch.ModeDry:
		return hvacDry
	case easytouch.ModeAuto:
		return hvacAuto
	default:
		return hvacOff
	}
}

// deviceMode maps an HA mode command onto the device mode number.
func deviceMode(name string) (easytouch.Mode, bool) {
	switch name {
	case hvacOff:
		return easytouch.ModeOff, true
	case hvacFanOnly:
		return easytouch.ModeFanOnly, true
	case hvacCool:
		return easytouch.ModeCool, true
	case hvacHeat:
		return easytouch.ModeHeat, true
	case hvacDry:
		return easytouch.ModeDry, true
	case hvacAuto:
		return easytouch.ModeAuto, true
	default:
		return 0, false
	}
}

// hvacFanMode collapses the device fan selection onto the HA fan
// vocabulary: manual and cycled variants of the same speed read the
// same in HA.
func hvacFanMode(f easytouch.FanSpeed) string {
	switch f {
	case easytouch.FanOff:
		return fanOff
	case easytouch.FanManualLow, easytouch.FanCycledLow:
		return fanLow
	case easytouch.FanManualHigh, easytouch.FanCycledHigh:
		return fanHigh
	default:
		return fanAuto
	}
}

// fanSpeed maps an HA fan command onto a device fan value. Fan-only
// mode has no auto selection; every other mode accepts all four.
func fanSpeed(mode easytouch.Mode, name string) (easytouch.FanSpeed, bool) {
	fanOnly := mode.Setpoint() == easytouch.ModeFanOnly
	switch name {
	case fanOff:
		return easytouch.FanOff, true
	case fanLow:
		return easytouch.FanManualLow, true
	case fanHigh:
		return easytouch.FanManualHigh, true
	case fanAuto:
		if fanOnly {
			return 0, false
		}
		return easytouch.FanFullAuto, true
	default:
		return 0, false
	}
}

// hvacAction derives what the unit is doing right now. Auto mode has
// no running-mode report, so the action comes from comparing the
// faceplate temperature against the auto range.
func hvacAction(z *easytouch.ZoneStatus) string {
	if z.Mode.Setpoint() == easytouch.ModeOff {
		return actionOff
	}

	switch z.CurrentMode {
	case easytouch.ModeFanOnly:
		return actionFan
	case easytouch.ModeCool, easytouch.ModeCoolOn:
		return actionCooling
	case easytouch.ModeHeat, easytouch.ModeHeatOn:
		return actionHeating
	case easytouch.ModeDry:
		return actionDrying
	case easytouch.ModeAuto:
		if z.FaceplateTemperature < float64(z.AutoHeatSetpoint) {
			return actionHeating
		}
		if z.FaceplateTemperature > float64(z.AutoCoolSetpoint) {
			return actionCooling
		}
		return actionIdle
	default:
		return actionIdle
	}
}
