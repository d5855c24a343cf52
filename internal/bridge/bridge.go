// internal/bridge/bridge.go

// Package bridge delivers decoded thermostat state to Home Assistant
// over MQTT and relays HA climate commands back to the device.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rvhome/easytouch-bridge/internal/easytouch"
	"github.com/rvhome/easytouch-bridge/internal/poller"
)

// Sender is the command path back to the device.
type Sender interface {
	Send(ctx context.Context, cmd easytouch.Command) error
}

// Options configures one device bridge.
type Options struct {
	DeviceID string
	Address  string // device MAC, used in discovery identifiers
	Zones    []int

	TopicPrefix     string
	DiscoveryPrefix string

	Log *slog.Logger
}

// Bridge publishes one device's state and consumes its command topics.
type Bridge struct {
	cli     mqtt.Client
	opt     Options
	topics  topicSet
	sender  Sender
	refresh chan<- struct{}
	log     *slog.Logger

	mu      sync.Mutex
	online  bool
	seen    bool // a result has been handled at least once
	last    map[int]*easytouch.ZoneStatus
	wantRaw bool
}

// sendTimeout bounds one command delivery including a re-dial.
const sendTimeout = 30 * time.Second

// New wires a bridge to an MQTT session and a command sender. A signal
// on refresh asks the poller for an immediate extra cycle.
func New(cli mqtt.Client, opt Options, sender Sender, refresh chan<- struct{}) *Bridge {
	log := opt.Log
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		cli:     cli,
		opt:     opt,
		topics:  topicSet{prefix: opt.TopicPrefix, id: opt.DeviceID},
		sender:  sender,
		refresh: refresh,
		log:     log.With("device", opt.DeviceID),
		last:    make(map[int]*easytouch.ZoneStatus),
	}
}

// HandleResult publishes one poll outcome: availability transitions on
// health changes, and a retained state document per configured zone on
// success.
func (b *Bridge) HandleResult(res poller.PollResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res.Err != nil {
		b.log.Warn("poll failed", "err", res.Err)
		if !b.seen || b.online {
			b.publish(b.topics.availability(), true, payloadOffline)
		}
		b.online = false
		b.seen = true
		return
	}

	if !b.seen || !b.online {
		b.publish(b.topics.availability(), true, payloadOnline)
	}
	b.online = true
	b.seen = true

	for _, zone := range b.opt.Zones {
		z := res.Status.Zone(zone)
		if z == nil {
			b.log.Debug("zone missing from status payload", "zone", zone)
			continue
		}
		b.last[zone] = z
		b.publishJSON(b.topics.zoneState(zone), true, newZoneState(res.Status, z))
	}

	if b.wantRaw {
		b.wantRaw = false
		b.publish(b.topics.raw(), false, string(res.Raw))
	}
}

// PublishAvailability re-asserts the device availability topic with
// the current health. Call it from the MQTT on-connect hook: a
// transition published while the session was down is lost, and
// HandleResult only publishes on transitions, so without re-assertion
// the topic would stay empty until the next health change.
func (b *Bridge) PublishAvailability() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.seen {
		// No poll outcome yet; nothing to assert.
		return
	}
	payload := payloadOffline
	if b.online {
		payload = payloadOnline
	}
	b.publish(b.topics.availability(), true, payload)
}

// Subscribe registers all command topic handlers. Call it from the
// MQTT on-connect hook so subscriptions survive reconnects.
func (b *Bridge) Subscribe() error {
	handlers := map[string]mqtt.MessageHandler{
		b.topics.locationSet(): b.handleLocation,
		b.topics.querySet():    b.handleQuery,
	}
	for _, zone := range b.opt.Zones {
		zone := zone
		handlers[b.topics.zoneCommand(zone, "mode")] = func(_ mqtt.Client, m mqtt.Message) {
			b.handleModeSet(zone, m.Payload())
		}
		handlers[b.topics.zoneCommand(zone, "fan")] = func(_ mqtt.Client, m mqtt.Message) {
			b.handleFanSet(zone, m.Payload())
		}
		handlers[b.topics.zoneCommand(zone, "temp")] = func(_ mqtt.Client, m mqtt.Message) {
			b.handleTempSet(zone, m.Payload())
		}
		handlers[b.topics.zoneCommand(zone, "temp_high")] = func(_ mqtt.Client, m mqtt.Message) {
			b.handleTempRangeSet(zone, m.Payload(), true)
		}
		handlers[b.topics.zoneCommand(zone, "temp_low")] = func(_ mqtt.Client, m mqtt.Message) {
			b.handleTempRangeSet(zone, m.Payload(), false)
		}
	}

	for topic, h := range handlers {
		if token := b.cli.Subscribe(topic, 0, h); token.Wait() && token.Error() != nil {
			return fmt.Errorf("bridge: subscribe %s: %w", topic, token.Error())
		}
	}
	return nil
}

// ---- command handlers ----

func (b *Bridge) handleModeSet(zone int, payload []byte) {
	name := strings.TrimSpace(string(payload))
	mode, ok := deviceMode(name)
	if !ok {
		b.log.Warn("unknown hvac mode", "zone", zone, "mode", name)
		return
	}

	cmd := easytouch.NewChange(zone).
		Power(mode != easytouch.ModeOff).
		Mode(mode)
	b.send(cmd)
}

func (b *Bridge) handleFanSet(zone int, payload []byte) {
	name := strings.TrimSpace(string(payload))

	z := b.lastZone(zone)
	if z == nil {
		b.log.Warn("fan command before first status", "zone", zone)
		return
	}

	speed, ok := fanSpeed(z.Mode, name)
	if !ok {
		b.log.Warn("fan mode not valid for current mode",
			"zone", zone, "fan", name, "mode", z.Mode.String())
		return
	}

	cmd := easytouch.NewChange(zone)
	switch z.Mode.Setpoint() {
	case easytouch.ModeFanOnly:
		cmd.FanOnlyFan(speed)
	case easytouch.ModeCool:
		cmd.CoolFan(speed)
	case easytouch.ModeHeat:
		cmd.HeatFan(speed)
	case easytouch.ModeAuto:
		cmd.AutoFan(speed)
	case easytouch.ModeDry:
		cmd.DryFan(speed)
	default:
		b.log.Warn("fan command while off", "zone", zone)
		return
	}
	b.send(cmd)
}

func (b *Bridge) handleTempSet(zone int, payload []byte) {
	temp, err := parseTemperature(payload)
	if err != nil {
		b.log.Warn("bad temperature payload", "zone", zone, "err", err)
		return
	}

	z := b.lastZone(zone)
	if z == nil {
		b.log.Warn("temperature command before first status", "zone", zone)
		return
	}

	cmd := easytouch.NewChange(zone).Power(true)
	switch z.Mode.Setpoint() {
	case easytouch.ModeCool:
		cmd.CoolSetpoint(temp)
	case easytouch.ModeHeat:
		cmd.HeatSetpoint(temp)
	case easytouch.ModeDry:
		cmd.DrySetpoint(temp)
	default:
		b.log.Warn("temperature command needs a single-setpoint mode",
			"zone", zone, "mode", z.Mode.String())
		return
	}
	b.send(cmd)
}

func (b *Bridge) handleTempRangeSet(zone int, payload []byte, high bool) {
	temp, err := parseTemperature(payload)
	if err != nil {
		b.log.Warn("bad temperature payload", "zone", zone, "err", err)
		return
	}

	cmd := easytouch.NewChange(zone).Power(true)
	if high {
		cmd.AutoCoolSetpoint(temp)
	} else {
		cmd.AutoHeatSetpoint(temp)
	}
	b.send(cmd)
}

func (b *Bridge) handleLocation(_ mqtt.Client, m mqtt.Message) {
	var loc struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(m.Payload(), &loc); err != nil {
		b.log.Warn("bad location payload", "err", err)
		return
	}
	b.send(easytouch.LocationRequest{
		Zone:      0,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
}

// handleQuery publishes the next successful poll's raw payload.
func (b *Bridge) handleQuery(_ mqtt.Client, _ mqtt.Message) {
	b.mu.Lock()
	b.wantRaw = true
	b.mu.Unlock()
	b.requestRefresh()
}

// ---- helpers ----

func (b *Bridge) lastZone(zone int) *easytouch.ZoneStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[zone]
}

func (b *Bridge) send(cmd easytouch.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := b.sender.Send(ctx, cmd); err != nil {
		b.log.Error("command send failed", "err", err)
		return
	}
	b.requestRefresh()
}

func (b *Bridge) requestRefresh() {
	select {
	case b.refresh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

func (b *Bridge) publish(topic string, retained bool, payload string) {
	if token := b.cli.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		b.log.Error("publish failed", "topic", topic, "err", token.Error())
	}
}

func (b *Bridge) publishJSON(topic string, retained bool, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		b.log.Error("marshal failed", "topic", topic, "err", err)
		return
	}
	if token := b.cli.Publish(topic, 0, retained, raw); token.Wait() && token.Error() != nil {
		b.log.Error("publish failed", "topic", topic, "err", token.Error())
	}
}

func parseTemperature(payload []byte) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
