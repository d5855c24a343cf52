// internal/poller/builder.go
package poller

import (
	"context"
	"time"

	cfg "github.com/rvhome/easytouch-bridge/internal/config"
	"github.com/rvhome/easytouch-bridge/internal/easytouch/gatt"
)

// Build constructs a Poller and wires the GATT session lifecycle.
// The session is reused while healthy; on transport death the Poller
// discards it and re-dials on a future tick.
func Build(d cfg.DeviceConfig) (*Poller, func() error, error) {
	dial := func(ctx context.Context) (Transport, error) {
		return gatt.Dial(ctx, gatt.Config{
			Address:  d.Address,
			Password: d.Password,
			Timeout:  time.Duration(d.TimeoutMs) * time.Millisecond,
		})
	}

	// Status requests always address zone 0; the response carries
	// every zone the device knows about.
	p, err := New(
		Config{
			DeviceID: d.ID,
			Email:    d.Email,
			Zone:     0,
			Interval: time.Duration(d.PollIntervalMs) * time.Millisecond,
		},
		dial,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, p.Close, nil
}
