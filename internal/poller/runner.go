// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits PollResult on the provided
// channel. One goroutine per device. No overlap. No retries. A signal
// on refresh forces an immediate extra cycle (used after commands).
func (p *Poller) Run(ctx context.Context, refresh <-chan struct{}, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// First cycle immediately so entities come up without waiting a
	// full interval.
	out <- p.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out <- p.PollOnce(ctx)
		case <-refresh:
			out <- p.PollOnce(ctx)
		}
	}
}
