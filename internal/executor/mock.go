package executor

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

// MockExecutor models a downstream queue draining at wall-clock rate,
// grounded on original_source's mock_executor.py but generalized so
// BufferTime is a real accounting of queued motion instead of always
// zero — this is what makes the controller's back-pressure and draining
// paths exercisable without a real stepper driver.
type MockExecutor struct {
	clock clock.Clock

	count        int
	lastFeedrate *float64
	queueEndsAt  time.Time
	history      []primitive.PlannedPrimitive
}

// NewMock builds a MockExecutor driven by the given clock (use
// clock.New() for wall time, clock.NewMock() in deterministic tests).
func NewMock(c clock.Clock) *MockExecutor {
	return &MockExecutor{clock: c, queueEndsAt: c.Now()}
}

// Execute enqueues the primitive's planned duration against the mock
// queue's drain timeline; it never blocks.
func (m *MockExecutor) Execute(p primitive.PlannedPrimitive) error {
	now := m.clock.Now()
	start := m.queueEndsAt
	if start.Before(now) {
		start = now
	}

	dur := time.Duration(p.Duration() * float64(time.Second))
	m.queueEndsAt = start.Add(dur)

	m.count++
	if p.Primitive.HasFeedrate() {
		m.lastFeedrate = p.Primitive.Feedrate
	}
	m.history = append(m.history, p)
	return nil
}

// Flush blocks until the mock queue has fully drained, using the
// injected clock's Sleep so deterministic tests can unblock it by
// advancing a *clock.Mock.
func (m *MockExecutor) Flush() error {
	remaining := m.queueEndsAt.Sub(m.clock.Now())
	if remaining > 0 {
		m.clock.Sleep(remaining)
	}
	return nil
}

// BufferTime returns the seconds of motion still queued ahead of now.
func (m *MockExecutor) BufferTime(now time.Time) float64 {
	remaining := m.queueEndsAt.Sub(now).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LastFeedrate returns the feedrate (mm/min) of the most recently
// executed primitive, if any.
func (m *MockExecutor) LastFeedrate() (float64, bool) {
	if m.lastFeedrate == nil {
		return 0, false
	}
	return *m.lastFeedrate, true
}

// Count returns the number of primitives executed so far.
func (m *MockExecutor) Count() int { return m.count }

// History returns every primitive executed so far, in order. Intended
// for test assertions, not production use.
func (m *MockExecutor) History() []primitive.PlannedPrimitive { return m.history }

// String renders a short debug summary, mirroring the teacher's
// preference for human-readable progress text over silent structs.
func (m *MockExecutor) String() string {
	return fmt.Sprintf("MockExecutor{count=%d, queued=%s}", m.count, m.queueEndsAt)
}
