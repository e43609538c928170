package controller

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisns/cnc-motion-core/internal/executor"
	"github.com/chrisns/cnc-motion-core/internal/linesource"
	"github.com/chrisns/cnc-motion-core/internal/planner"
	"github.com/chrisns/cnc-motion-core/internal/telemetry"
)

func testConfig() Config {
	return Config{
		Planner: planner.Config{
			MaxVelocity:       100,
			MaxAccel:          1000,
			JunctionDeviation: 0.05,
			BufferTime:        0.01,
			KeepTailMoves:     1,
			MaxWindowMoves:    50,
		},
		MaxBufferedTime: 10, // effectively disables back-pressure in these tests
		ProgressEveryMM: 10,
		MaxLinesPerTick: 1, // one source line consumed per Pump call, for deterministic tests
	}
}

func newTestController(lines []string) (*Controller, *executor.MockExecutor, *clock.Mock) {
	src := linesource.NewMemory(lines)
	clk := clock.NewMock()
	exec := executor.NewMock(clk)
	log := telemetry.Nop()
	ctl := New(testConfig(), src, nil, exec, clk, log)
	return ctl, exec, clk
}

func TestController_StartRunsToCompletion(t *testing.T) {
	ctl, exec, clk := newTestController([]string{
		"G1 F6000",
		"G1 X10",
		"G1 X20",
	})

	require.NoError(t, ctl.Start())

	done := false
	var err error
	for i := 0; i < 10 && !done; i++ {
		clk.Add(time.Second)
		done, err = ctl.Pump()
		require.NoError(t, err)
	}

	assert.True(t, done)
	assert.Equal(t, Idle, ctl.State())
	// Each 10mm move at 100mm/s takes 0.1s and is split into 10 segments
	// by the default 0.01s MaxSegmentTime: 2 moves -> 20 primitives.
	assert.Equal(t, 20, exec.Count())
}

func TestController_StartTwiceIsStateError(t *testing.T) {
	ctl, _, _ := newTestController([]string{"G1 F1000", "G1 X10"})
	require.NoError(t, ctl.Start())
	err := ctl.Start()
	assert.Error(t, err)
}

func TestController_FeedHoldPausesDispatchNotRefill(t *testing.T) {
	ctl, exec, clk := newTestController([]string{
		"G1 F6000",
		"G1 X10",
		"G1 X20",
		"G1 X30",
	})
	require.NoError(t, ctl.Start())

	_, err := ctl.Pump()
	require.NoError(t, err)

	require.NoError(t, ctl.FeedHold())
	countAtHold := exec.Count()
	linesAtHold, _ := ctl.Progress()

	// Refill (read/parse/interpret/plan.Push) keeps consuming source
	// lines while on hold; only the executor dispatch step is withheld
	// (spec.md §4.5 step 2 vs step 3 — only step 3 is gated on Running).
	for i := 0; i < 3; i++ {
		done, err := ctl.Pump()
		require.NoError(t, err)
		assert.False(t, done)
	}
	linesAfterHold, _ := ctl.Progress()
	assert.Greater(t, linesAfterHold, linesAtHold)
	assert.Equal(t, countAtHold, exec.Count())

	require.NoError(t, ctl.Resume())
	done := false
	for i := 0; i < 10 && !done; i++ {
		clk.Add(time.Second)
		done, err = ctl.Pump()
		require.NoError(t, err)
	}
	assert.True(t, done)
	assert.Greater(t, exec.Count(), countAtHold)
}

func TestController_ResumeWithoutHoldIsStateError(t *testing.T) {
	ctl, _, _ := newTestController([]string{"G1 F1000", "G1 X10"})
	err := ctl.Resume()
	assert.Error(t, err)
}

func TestController_CancelThenResetReturnsToIdle(t *testing.T) {
	ctl, _, _ := newTestController([]string{
		"G1 F6000",
		"G1 X10",
		"G1 X20",
	})
	require.NoError(t, ctl.Start())
	_, err := ctl.Pump()
	require.NoError(t, err)

	require.NoError(t, ctl.Cancel())
	assert.Equal(t, Cancelled, ctl.State())

	require.NoError(t, ctl.Reset())
	assert.Equal(t, Idle, ctl.State())

	// A reset controller can start a fresh job from the same source
	// cursor (whatever the line source has left).
	assert.NoError(t, ctl.Start())
}

func TestController_CancelFromIdleIsStateError(t *testing.T) {
	ctl, _, _ := newTestController([]string{"G1 F1000"})
	err := ctl.Cancel()
	assert.Error(t, err)
}

func TestController_GeometryErrorAbortsPump(t *testing.T) {
	ctl, _, _ := newTestController([]string{
		"G1 F6000",
		"G2 X10 Y10", // no R or IJK -> geometry error
	})
	require.NoError(t, ctl.Start())

	// MaxLinesPerTick is 1: the first Pump consumes only the F line, the
	// second reaches the arc.
	_, err := ctl.Pump()
	require.NoError(t, err)
	_, err = ctl.Pump()
	assert.Error(t, err)
}
