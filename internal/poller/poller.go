// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rvhome/easytouch-bridge/internal/easytouch"
)

// Transport abstracts the BLE exchange the poller needs.
// The poller depends on the request/response shape only.
type Transport interface {
	// RoundTrip writes a command and waits for the status notification.
	RoundTrip(ctx context.Context, cmd []byte) ([]byte, error)
	// Write sends a command without waiting for a notification.
	Write(ctx context.Context, cmd []byte) error
	Close() error
}

// DialFunc establishes a transport session. ONE attempt per call;
// cancelling ctx aborts the attempt.
type DialFunc func(ctx context.Context) (Transport, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID string
	Email    string
	Zone     int // zone used in status requests
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader. The transport session is
// reused while healthy; on transport death the poller discards it and
// re-dials on a future tick. No retries, no loops, no semantics.
type Poller struct {
	cfg  Config
	dial DialFunc

	mu        sync.Mutex
	transport Transport
}

// New creates a poller with immutable config. The transport is dialed
// lazily on the first poll: BLE peripherals come and go, so startup
// must not depend on the device being in range.
func New(cfg Config, dial DialFunc) (*Poller, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if dial == nil {
		return nil, errors.New("poller: dial func required")
	}
	return &Poller{cfg: cfg, dial: dial}, nil
}

func (p *Poller) session(ctx context.Context) (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport != nil {
		return p.transport, nil
	}
	tr, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	p.transport = tr
	return tr, nil
}

func (p *Poller) discard(tr Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport != tr {
		return
	}
	_ = tr.Close()
	p.transport = nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		DeviceID: p.cfg.DeviceID,
		At:       time.Now(),
	}

	tr, err := p.session(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	cmd, err := easytouch.StatusRequest{Zone: p.cfg.Zone, Email: p.cfg.Email}.Encode()
	if err != nil {
		res.Err = err
		return res
	}

	payload, err := tr.RoundTrip(ctx, cmd)
	if err != nil {
		p.discard(tr)
		res.Err = err
		return res
	}

	st, err := easytouch.DecodeStatus(payload)
	if err != nil {
		// The session delivered bytes; keep it.
		res.Err = err
		return res
	}

	res.Status = st
	res.Raw = payload
	return res
}

// Send delivers a command over the same serialized transport the polls
// use. Callers refresh with a poll afterwards; the device does not ack
// change commands.
func (p *Poller) Send(ctx context.Context, cmd easytouch.Command) error {
	raw, err := cmd.Encode()
	if err != nil {
		return err
	}

	tr, err := p.session(ctx)
	if err != nil {
		return err
	}

	if err := tr.Write(ctx, raw); err != nil {
		p.discard(tr)
		return err
	}
	return nil
}

// Close tears down the current transport session, if any.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport == nil {
		return nil
	}
	err := p.transport.Close()
	p.transport = nil
	return err
}
