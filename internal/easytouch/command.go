// internal/easytouch/command.go
package easytouch

import (
	"encoding/json"
	"fmt"
	"time"
)

// Command is anything that encodes itself into a payload for the
// device's JSON command characteristic.
type Command interface {
	Encode() ([]byte, error)
}

// ChangeCommand accumulates setting changes for one zone and encodes
// them as a {"Type":"Change","Changes":{...}} document. Only fields
// that were explicitly set are emitted; zone is always present.
type ChangeCommand struct {
	zone    int
	changes map[string]int
}

// NewChange starts a change command for the given zone.
func NewChange(zone int) *ChangeCommand {
	return &ChangeCommand{zone: zone, changes: make(map[string]int)}
}

// Power sets the zone power flag. Mode and setpoint changes must carry
// power=1 or the device ignores them.
func (c *ChangeCommand) Power(on bool) *ChangeCommand {
	v := 0
	if on {
		v = 1
	}
	c.changes["power"] = v
	return c
}

// Mode sets the zone operating mode.
func (c *ChangeCommand) Mode(m Mode) *ChangeCommand {
	c.changes["mode"] = int(m)
	return c
}

// CoolSetpoint sets the cool setpoint in degrees Fahrenheit.
func (c *ChangeCommand) CoolSetpoint(f int) *ChangeCommand {
	c.changes["cool_sp"] = f
	return c
}

// HeatSetpoint sets the heat setpoint in degrees Fahrenheit.
func (c *ChangeCommand) HeatSetpoint(f int) *ChangeCommand {
	c.changes["heat_sp"] = f
	return c
}

// DrySetpoint sets the dry (dehumidify) setpoint in degrees Fahrenheit.
func (c *ChangeCommand) DrySetpoint(f int) *ChangeCommand {
	c.changes["dry_sp"] = f
	return c
}

// AutoHeatSetpoint sets the low end of the auto range.
func (c *ChangeCommand) AutoHeatSetpoint(f int) *ChangeCommand {
	c.changes["autoHeat_sp"] = f
	return c
}

// AutoCoolSetpoint sets the high end of the auto range.
func (c *ChangeCommand) AutoCoolSetpoint(f int) *ChangeCommand {
	c.changes["autoCool_sp"] = f
	return c
}

// FanOnlyFan sets the fan selection used while in fan-only mode.
// The device accepts only Off, ManualLow and ManualHigh here.
func (c *ChangeCommand) FanOnlyFan(f FanSpeed) *ChangeCommand {
	c.changes["fanOnly"] = int(f)
	return c
}

// CoolFan sets the fan selection used while in cool mode.
func (c *ChangeCommand) CoolFan(f FanSpeed) *ChangeCommand {
	c.changes["coolFan"] = int(f)
	return c
}

// HeatFan sets the fan selection used while in heat mode.
func (c *ChangeCommand) HeatFan(f FanSpeed) *ChangeCommand {
	c.changes["heatFan"] = int(f)
	return c
}

// AutoFan sets the fan selection used while in auto mode.
func (c *ChangeCommand) AutoFan(f FanSpeed) *ChangeCommand {
	c.changes["autoFan"] = int(f)
	return c
}

// DryFan sets the fan selection used while in dry mode.
func (c *ChangeCommand) DryFan(f FanSpeed) *ChangeCommand {
	c.changes["dryFan"] = int(f)
	return c
}

// Empty reports whether no change fields were set.
func (c *ChangeCommand) Empty() bool {
	return len(c.changes) == 0
}

func (c *ChangeCommand) Encode() ([]byte, error) {
	if c.Empty() {
		return nil, fmt.Errorf("easytouch: change command for zone %d has no changes", c.zone)
	}
	changes := make(map[string]int, len(c.changes)+1)
	for k, v := range c.changes {
		changes[k] = v
	}
	changes["zone"] = c.zone
	return json.Marshal(map[string]any{
		"Type":    "Change",
		"Changes": changes,
	})
}

// StatusRequest encodes a Get Status command. The device answers with
// a full status notification. Email is optional; the device records it
// for its owner registry when present.
type StatusRequest struct {
	Zone  int
	Email string
}

func (r StatusRequest) Encode() ([]byte, error) {
	doc := map[string]any{
		"Type": "Get Status",
		"Zone": r.Zone,
		"TM":   time.Now().Unix(),
	}
	if r.Email != "" {
		doc["EM"] = r.Email
	}
	return json.Marshal(doc)
}

// LocationRequest encodes a Get Status command carrying coordinates.
// The device uses them for sunrise-based backlight dimming.
type LocationRequest struct {
	Zone      int
	Latitude  float64
	Longitude float64
}

func (r LocationRequest) Encode() ([]byte, error) {
	if r.Latitude < -90 || r.Latitude > 90 {
		return nil, fmt.Errorf("easytouch: latitude %v out of range", r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return nil, fmt.Errorf("easytouch: longitude %v out of range", r.Longitude)
	}
	return json.Marshal(map[string]any{
		"Type": "Get Status",
		"Zone": r.Zone,
		"LAT":  fmt.Sprintf("%.5f", r.Latitude),
		"LON":  fmt.Sprintf("%.5f", r.Longitude),
		"TM":   time.Now().Unix(),
	})
}
