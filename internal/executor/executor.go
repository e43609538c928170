// Package executor defines the motion executor sink contract (spec §6)
// and a MockExecutor reference implementation used by tests, demos, and
// cmd/cncstream when no real stepper driver is attached.
package executor

import (
	"time"

	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

// Interface is the black-box sink the controller drains planned
// primitives into. Execute must be non-blocking; deep queueing is the
// executor's responsibility.
type Interface interface {
	Execute(p primitive.PlannedPrimitive) error
	Flush() error
}

// BufferTimer is an optional capability: remaining queued motion time,
// used by the controller for back-pressure.
type BufferTimer interface {
	BufferTime(now time.Time) float64
}

// LastFeedrater is an optional capability: the feedrate of the most
// recently executed primitive. The controller does not query it.
type LastFeedrater interface {
	LastFeedrate() (float64, bool)
}
