// internal/poller/types.go
package poller

import (
	"time"

	"github.com/rvhome/easytouch-bridge/internal/easytouch"
)

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	DeviceID string
	At       time.Time

	// Status is the decoded device status. Nil when Err is set.
	Status *easytouch.Status

	// Raw is the notification payload Status was decoded from.
	Raw []byte

	Err error // non-nil means the poll cycle failed
}
