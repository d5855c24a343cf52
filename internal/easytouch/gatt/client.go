// internal/easytouch/gatt/client.go
package gatt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// EasyTouch GATT layout. Fixed by the device firmware.
var (
	serviceUUID  = mustUUID("000000ff-0000-1000-8000-00805f9b34fb")
	passwordUUID = mustUUID("0000dd01-0000-1000-8000-00805f9b34fb")
	commandUUID  = mustUUID("0000ee01-0000-1000-8000-00805f9b34fb")
	returnUUID   = mustUUID("0000ff01-0000-1000-8000-00805f9b34fb")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

var (
	// ErrNotFound means the device did not show up in a scan.
	ErrNotFound = errors.New("device not found in scan")

	// ErrTimeout means the device accepted a command but never
	// delivered a status notification.
	ErrTimeout = errors.New("response timeout")
)

// The host adapter is process-wide and may only be enabled once.
var (
	adapterOnce sync.Once
	adapterErr  error
)

func enableAdapter() (*bluetooth.Adapter, error) {
	a := bluetooth.DefaultAdapter
	adapterOnce.Do(func() {
		adapterErr = a.Enable()
	})
	if adapterErr != nil {
		return nil, fmt.Errorf("gatt: enable adapter: %w", adapterErr)
	}
	return a, nil
}

// Config is minimal transport config.
type Config struct {
	// Address is the device MAC, e.g. "AA:BB:CC:DD:EE:FF".
	Address string

	// Password is written to the password characteristic right after
	// connecting; the device rejects commands until it is set.
	Password string

	// Timeout bounds the scan, and each command/response exchange.
	Timeout time.Duration
}

// Client is a connected EasyTouch GATT session. It allows a single
// outstanding exchange: the device correlates nothing, so the next
// notification on the return characteristic answers the last write.
type Client struct {
	cfg     Config
	device  bluetooth.Device
	command bluetooth.DeviceCharacteristic
	ret     bluetooth.DeviceCharacteristic

	mu sync.Mutex // serializes exchanges

	notifyMu sync.Mutex
	buf      []byte
	waiter   chan []byte
}

// Dial scans for the device, connects, authenticates and subscribes to
// status notifications. Cancelling ctx aborts the scan; the connect
// itself is bounded by cfg.Timeout.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("gatt: address required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("gatt: timeout must be > 0")
	}

	adapter, err := enableAdapter()
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	result, err := findDevice(scanCtx, adapter, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("gatt: %s: %w", cfg.Address, err)
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(cfg.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("gatt: %s: connect: %w", cfg.Address, err)
	}

	c := &Client{cfg: cfg, device: device}
	if err := c.setup(); err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("gatt: %s: %w", cfg.Address, err)
	}
	return c, nil
}

// findDevice scans until the address shows up or ctx ends. Scan blocks
// until StopScan, so cancellation fires from a goroutine. bluez allows
// one scan session per adapter: a second device dialling concurrently
// gets a scan error here and retries on its next poll tick.
func findDevice(ctx context.Context, adapter *bluetooth.Adapter, address string) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = adapter.StopScan()
		case <-done:
		}
	}()

	err := adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
		if !strings.EqualFold(res.Address.String(), address) {
			return
		}
		select {
		case found <- res:
		default:
		}
		_ = a.StopScan()
	})
	if err != nil {
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	select {
	case res := <-found:
		return res, nil
	default:
		if errors.Is(ctx.Err(), context.Canceled) {
			return bluetooth.ScanResult{}, ctx.Err()
		}
		// Scan window elapsed without a sighting.
		return bluetooth.ScanResult{}, ErrNotFound
	}
}

func (c *Client) setup() error {
	services, err := c.device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return fmt.Errorf("discover service: %w", err)
	}
	if len(services) == 0 {
		return errors.New("easytouch service not present")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{
		passwordUUID, commandUUID, returnUUID,
	})
	if err != nil {
		return fmt.Errorf("discover characteristics: %w", err)
	}

	var password bluetooth.DeviceCharacteristic
	var havePassword, haveCommand, haveReturn bool
	for _, ch := range chars {
		switch ch.UUID() {
		case passwordUUID:
			password, havePassword = ch, true
		case commandUUID:
			c.command, haveCommand = ch, true
		case returnUUID:
			c.ret, haveReturn = ch, true
		}
	}
	if !havePassword || !haveCommand || !haveReturn {
		return errors.New("easytouch characteristics not present")
	}

	if c.cfg.Password != "" {
		if _, err := password.WriteWithoutResponse([]byte(c.cfg.Password)); err != nil {
			return fmt.Errorf("write password: %w", err)
		}
	}

	if err := c.ret.EnableNotifications(c.handleNotify); err != nil {
		return fmt.Errorf("subscribe status notifications: %w", err)
	}
	return nil
}

// handleNotify reassembles fragmented notifications. A payload is
// complete once the accumulated bytes parse as JSON.
func (c *Client) handleNotify(frag []byte) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if c.waiter == nil {
		// Unsolicited notification, nobody waiting.
		return
	}

	c.buf = append(c.buf, frag...)
	if !json.Valid(c.buf) {
		return
	}

	payload := make([]byte, len(c.buf))
	copy(payload, c.buf)
	c.waiter <- payload
	c.waiter = nil
	c.buf = nil
}

func (c *Client) arm() chan []byte {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	ready := make(chan []byte, 1)
	c.waiter = ready
	c.buf = nil
	return ready
}

func (c *Client) disarm() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.waiter = nil
	c.buf = nil
}

// RoundTrip writes a command and waits for the next status
// notification.
func (c *Client) RoundTrip(ctx context.Context, cmd []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ready := c.arm()
	defer c.disarm()

	if _, err := c.command.WriteWithoutResponse(cmd); err != nil {
		return nil, fmt.Errorf("gatt: %s: write command: %w", c.cfg.Address, err)
	}

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case payload := <-ready:
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("gatt: %s: %w", c.cfg.Address, ErrTimeout)
	}
}

// Write sends a command without waiting for a notification. Change
// commands are fire-and-forget; callers refresh with a status poll.
func (c *Client) Write(ctx context.Context, cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.command.WriteWithoutResponse(cmd); err != nil {
		return fmt.Errorf("gatt: %s: write command: %w", c.cfg.Address, err)
	}
	return nil
}

// Close unsubscribes and disconnects.
func (c *Client) Close() error {
	c.disarm()
	_ = c.ret.EnableNotifications(nil)
	return c.device.Disconnect()
}
