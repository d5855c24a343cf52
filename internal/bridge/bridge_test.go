// internal/bridge/bridge_test.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rvhome/easytouch-bridge/internal/easytouch"
	"github.com/rvhome/easytouch-bridge/internal/poller"
)

// coolingPayload: zone 0 cooling to 72F, compressor running, fan
// cycled high, faceplate power on.
const coolingPayload = `{"Z_sts":{"0":[66,78,72,68,75,128,1,66,0,128,2,128,74.5,0,0,3]},"PRM":[15],"SN":"ET-1024"}`

// ---- fakes ----

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool { return true }

func (t fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t fakeToken) Error() error { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publication struct {
	topic    string
	retained bool
	payload  string
}

type fakeMQTT struct {
	published []publication
	subs      map[string]mqtt.MessageHandler

	// down simulates a broker session that is not up yet: publishes
	// fail and nothing is delivered.
	down bool
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{subs: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	if f.down {
		return fakeToken{err: errors.New("not connected")}
	}
	var s string
	switch p := payload.(type) {
	case string:
		s = p
	case []byte:
		s = string(p)
	}
	f.published = append(f.published, publication{topic: topic, retained: retained, payload: s})
	return fakeToken{}
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, h mqtt.MessageHandler) mqtt.Token {
	f.subs[topic] = h
	return fakeToken{}
}

func (f *fakeMQTT) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (f *fakeMQTT) Unsubscribe(...string) mqtt.Token { return fakeToken{} }

func (f *fakeMQTT) Connect() mqtt.Token { return fakeToken{} }

func (f *fakeMQTT) Disconnect(uint) {}

func (f *fakeMQTT) IsConnected() bool { return true }

func (f *fakeMQTT) IsConnectionOpen() bool { return true }

func (f *fakeMQTT) AddRoute(string, mqtt.MessageHandler) {}

func (f *fakeMQTT) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func (f *fakeMQTT) find(t *testing.T, topic string) publication {
	t.Helper()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].topic == topic {
			return f.published[i]
		}
	}
	t.Fatalf("nothing published on %s", topic)
	return publication{}
}

func (f *fakeMQTT) count(topic string) int {
	n := 0
	for _, p := range f.published {
		if p.topic == topic {
			n++
		}
	}
	return n
}

type fakeSender struct {
	cmds []easytouch.Command
	err  error
}

func (f *fakeSender) Send(_ context.Context, cmd easytouch.Command) error {
	f.cmds = append(f.cmds, cmd)
	return f.err
}

func (f *fakeSender) lastChanges(t *testing.T) map[string]any {
	t.Helper()
	if len(f.cmds) == 0 {
		t.Fatal("no command sent")
	}
	raw, err := f.cmds[len(f.cmds)-1].Encode()
	if err != nil {
		t.Fatalf("Encode err=%v", err)
	}
	var doc struct {
		Type    string         `json:"Type"`
		Changes map[string]any `json:"Changes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("command not JSON: %v", err)
	}
	if doc.Type != "Change" {
		t.Fatalf("Type=%q want Change", doc.Type)
	}
	return doc.Changes
}

// ---- setup ----

func newTestBridge(t *testing.T) (*Bridge, *fakeMQTT, *fakeSender, chan struct{}) {
	t.Helper()
	cli := newFakeMQTT()
	sender := &fakeSender{}
	refresh := make(chan struct{}, 1)
	b := New(cli, Options{
		DeviceID:        "rv-front",
		Address:         "AA:BB:CC:DD:EE:FF",
		Zones:           []int{0},
		TopicPrefix:     "easytouch",
		DiscoveryPrefix: "homeassistant",
	}, sender, refresh)
	return b, cli, sender, refresh
}

func okResult(t *testing.T) poller.PollResult {
	t.Helper()
	st, err := easytouch.DecodeStatus([]byte(coolingPayload))
	if err != nil {
		t.Fatalf("DecodeStatus err=%v", err)
	}
	return poller.PollResult{
		DeviceID: "rv-front",
		At:       time.Now(),
		Status:   st,
		Raw:      []byte(coolingPayload),
	}
}

// ---- tests ----

func TestHandleResult_PublishesState(t *testing.T) {
	b, cli, _, _ := newTestBridge(t)
	b.HandleResult(okResult(t))

	avail := cli.find(t, "easytouch/rv-front/availability")
	if avail.payload != "online" || !avail.retained {
		t.Errorf("availability=%+v", avail)
	}

	state := cli.find(t, "easytouch/rv-front/zone/0/state")
	if !state.retained {
		t.Error("state must be retained")
	}
	var doc ZoneState
	if err := json.Unmarshal([]byte(state.payload), &doc); err != nil {
		t.Fatalf("state not JSON: %v", err)
	}
	if doc.Mode != "cool" {
		t.Errorf("mode=%q want cool", doc.Mode)
	}
	if doc.Action != "cooling" {
		t.Errorf("action=%q want cooling", doc.Action)
	}
	if doc.FanMode != "high" {
		t.Errorf("fan_mode=%q want high (cycled high collapses)", doc.FanMode)
	}
	if doc.CurrentTemperature != 74.5 {
		t.Errorf("current_temperature=%v", doc.CurrentTemperature)
	}
	if doc.TargetTemperature == nil || *doc.TargetTemperature != 72 {
		t.Errorf("target_temperature=%v want 72", doc.TargetTemperature)
	}
	if doc.TargetTempHigh != nil {
		t.Error("target_temp_high must be omitted outside auto mode")
	}
	if doc.DeviceMode != "cool_on" {
		t.Errorf("device_mode=%q", doc.DeviceMode)
	}
	if doc.SerialNumber != "ET-1024" {
		t.Errorf("serial_number=%q", doc.SerialNumber)
	}
	if doc.Power == nil || !*doc.Power {
		t.Errorf("power=%v want true", doc.Power)
	}
}

func TestHandleResult_StateKeepsDiagnosticKeysWithoutSNAndPRM(t *testing.T) {
	b, cli, _, _ := newTestBridge(t)
	payload := `{"Z_sts":{"0":[66,78,72,68,75,128,1,66,0,128,2,128,74.5,0,0,3]}}`
	st, err := easytouch.DecodeStatus([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeStatus err=%v", err)
	}
	b.HandleResult(poller.PollResult{DeviceID: "rv-front", At: time.Now(), Status: st, Raw: []byte(payload)})

	state := cli.find(t, "easytouch/rv-front/zone/0/state")
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(state.payload), &doc); err != nil {
		t.Fatalf("state not JSON: %v", err)
	}
	// The discovery sensor templates index these keys, so they must
	// exist even when the status carried no SN or PRM block.
	if got, ok := doc["serial_number"]; !ok || string(got) != `""` {
		t.Errorf("serial_number=%s ok=%v want empty string present", got, ok)
	}
	if got, ok := doc["params"]; !ok || string(got) != `[]` {
		t.Errorf("params=%s ok=%v want empty array present", got, ok)
	}
}

func TestHandleResult_AvailabilityTransitions(t *testing.T) {
	b, cli, _, _ := newTestBridge(t)
	availTopic := "easytouch/rv-front/availability"

	b.HandleResult(poller.PollResult{DeviceID: "rv-front", Err: errors.New("gatt died")})
	if got := cli.find(t, availTopic); got.payload != "offline" {
		t.Errorf("availability=%q want offline", got.payload)
	}

	// Repeated failures must not spam the topic.
	b.HandleResult(poller.PollResult{DeviceID: "rv-front", Err: errors.New("still dead")})
	if n := cli.count(availTopic); n != 1 {
		t.Errorf("availability publishes=%d want 1", n)
	}

	// Recovery flips back to online.
	b.HandleResult(okResult(t))
	if got := cli.find(t, availTopic); got.payload != "online" {
		t.Errorf("availability=%q want online", got.payload)
	}
	if n := cli.count(availTopic); n != 2 {
		t.Errorf("availability publishes=%d want 2", n)
	}
}

func TestPublishAvailability_RestoresTransitionLostWhileDown(t *testing.T) {
	b, cli, _, _ := newTestBridge(t)
	availTopic := "easytouch/rv-front/availability"

	// First successful poll lands before the broker session is up;
	// the online transition goes nowhere.
	cli.down = true
	b.HandleResult(okResult(t))

	// Healthy polls after the session comes up publish no transition,
	// so the topic would stay empty forever on its own.
	cli.down = false
	for i := 0; i < 5; i++ {
		b.HandleResult(okResult(t))
	}
	if n := cli.count(availTopic); n != 0 {
		t.Fatalf("availability publishes=%d want 0 before re-assertion", n)
	}

	// The on-connect hook re-asserts the current health.
	b.PublishAvailability()
	got := cli.find(t, availTopic)
	if got.payload != "online" || !got.retained {
		t.Errorf("availability=%+v want retained online", got)
	}
}

func TestPublishAvailability_BeforeFirstResult(t *testing.T) {
	b, cli, _, _ := newTestBridge(t)
	b.PublishAvailability()
	if n := cli.count("easytouch/rv-front/availability"); n != 0 {
		t.Errorf("availability publishes=%d want 0 with no poll outcome yet", n)
	}
}

func TestHandleModeSet(t *testing.T) {
	b, _, sender, refresh := newTestBridge(t)

	b.handleModeSet(0, []byte("heat"))

	changes := sender.lastChanges(t)
	if changes["mode"] != float64(easytouch.ModeHeat) {
		t.Errorf("mode=%v want %d", changes["mode"], easytouch.ModeHeat)
	}
	if changes["power"] != float64(1) {
		t.Errorf("power=%v want 1", changes["power"])
	}

	select {
	case <-refresh:
	default:
		t.Error("command must request a refresh poll")
	}
}

func TestHandleModeSet_Off(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)

	b.handleModeSet(0, []byte("off"))

	changes := sender.lastChanges(t)
	if changes["power"] != float64(0) {
		t.Errorf("power=%v want 0", changes["power"])
	}
	if changes["mode"] != float64(easytouch.ModeOff) {
		t.Errorf("mode=%v want 0", changes["mode"])
	}
}

func TestHandleModeSet_Unknown(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)
	b.handleModeSet(0, []byte("turbo"))
	if len(sender.cmds) != 0 {
		t.Error("unknown mode must not send a command")
	}
}

func TestHandleFanSet_UsesCurrentMode(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)
	b.HandleResult(okResult(t)) // zone 0 in cool mode

	b.handleFanSet(0, []byte("auto"))

	changes := sender.lastChanges(t)
	if changes["coolFan"] != float64(easytouch.FanFullAuto) {
		t.Errorf("coolFan=%v want 128", changes["coolFan"])
	}
	if _, present := changes["fanOnly"]; present {
		t.Error("cool mode must not touch fanOnly")
	}
}

func TestHandleFanSet_BeforeFirstStatus(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)
	b.handleFanSet(0, []byte("low"))
	if len(sender.cmds) != 0 {
		t.Error("fan command without status must not send")
	}
}

func TestHandleTempSet_CoolMode(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)
	b.HandleResult(okResult(t))

	b.handleTempSet(0, []byte("70.0"))

	changes := sender.lastChanges(t)
	if changes["cool_sp"] != float64(70) {
		t.Errorf("cool_sp=%v want 70", changes["cool_sp"])
	}
	if changes["power"] != float64(1) {
		t.Errorf("power=%v want 1", changes["power"])
	}
}

func TestHandleTempRangeSet(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)

	b.handleTempRangeSet(0, []byte("78"), true)
	changes := sender.lastChanges(t)
	if changes["autoCool_sp"] != float64(78) {
		t.Errorf("autoCool_sp=%v want 78", changes["autoCool_sp"])
	}

	b.handleTempRangeSet(0, []byte("66"), false)
	changes = sender.lastChanges(t)
	if changes["autoHeat_sp"] != float64(66) {
		t.Errorf("autoHeat_sp=%v want 66", changes["autoHeat_sp"])
	}
}

func TestHandleQuery_PublishesRawOnce(t *testing.T) {
	b, cli, _, refresh := newTestBridge(t)
	rawTopic := "easytouch/rv-front/raw"

	b.handleQuery(nil, nil)
	select {
	case <-refresh:
	default:
		t.Fatal("query must request a refresh poll")
	}

	b.HandleResult(okResult(t))
	raw := cli.find(t, rawTopic)
	if raw.retained {
		t.Error("raw payload must not be retained")
	}
	if raw.payload != coolingPayload {
		t.Errorf("raw=%q", raw.payload)
	}

	// Only the queried poll publishes raw.
	b.HandleResult(okResult(t))
	if n := cli.count(rawTopic); n != 1 {
		t.Errorf("raw publishes=%d want 1", n)
	}
}

func TestSubscribe_RegistersCommandTopics(t *testing.T) {
	b, cli, sender, _ := newTestBridge(t)
	if err := b.Subscribe(); err != nil {
		t.Fatalf("Subscribe err=%v", err)
	}

	want := []string{
		"easytouch/rv-front/zone/0/mode/set",
		"easytouch/rv-front/zone/0/fan/set",
		"easytouch/rv-front/zone/0/temp/set",
		"easytouch/rv-front/zone/0/temp_high/set",
		"easytouch/rv-front/zone/0/temp_low/set",
		"easytouch/rv-front/location/set",
		"easytouch/rv-front/query/set",
	}
	for _, topic := range want {
		if _, ok := cli.subs[topic]; !ok {
			t.Errorf("missing subscription for %s", topic)
		}
	}

	// Routed mode command reaches the device.
	cli.subs["easytouch/rv-front/zone/0/mode/set"](nil, &fakeMessage{payload: []byte("dry")})
	changes := sender.lastChanges(t)
	if changes["mode"] != float64(easytouch.ModeDry) {
		t.Errorf("mode=%v want %d", changes["mode"], easytouch.ModeDry)
	}
}

func TestHandleLocation(t *testing.T) {
	b, _, sender, _ := newTestBridge(t)

	b.handleLocation(nil, &fakeMessage{payload: []byte(`{"latitude":44.05,"longitude":-121.3153}`)})

	if len(sender.cmds) != 1 {
		t.Fatalf("cmds=%d want 1", len(sender.cmds))
	}
	raw, err := sender.cmds[0].Encode()
	if err != nil {
		t.Fatalf("Encode err=%v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if doc["LAT"] != "44.05000" || doc["LON"] != "-121.31530" {
		t.Errorf("LAT=%v LON=%v", doc["LAT"], doc["LON"])
	}
}

// fakeMessage implements mqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool { return false }

func (m *fakeMessage) Qos() byte { return 0 }

func (m *fakeMessage) Retained() bool { return false }

func (m *fakeMessage) Topic() string { return m.topic }

func (m *fakeMessage) MessageID() uint16 { return 0 }

func (m *fakeMessage) Payload() []byte { return m.payload }

func (m *fakeMessage) Ack() {}
