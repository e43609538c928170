package planner

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

func vec3(x, y, z float64) mgl64.Vec3 { return mgl64.Vec3{x, y, z} }

func defaultConfig() Config {
	return Config{
		MaxVelocity:       100,
		MaxAccel:          1000,
		JunctionDeviation: 0.05,
		BufferTime:        0.25,
		KeepTailMoves:     2,
		MaxWindowMoves:    200,
	}
}

func linear(x0, y0, x1, y1, feedMMPerMin float64) primitive.MotionPrimitive {
	return primitive.NewLinear(primitive.Linear,
		vec3(x0, y0, 0), vec3(x1, y1, 0), feedMMPerMin)
}

func TestPlanner_RightAngleCornerCapsJunctionSpeed(t *testing.T) {
	p := New(defaultConfig())

	planned := p.Push(linear(0, 0, 10, 0, 6000))
	planned = append(planned, p.Push(linear(10, 0, 10, 10, 6000))...)
	planned = append(planned, p.Finish()...)

	require.Len(t, planned, 2)
	// A 90-degree corner has cosTheta = 0, so the junction speed cap is
	// finite and strictly less than either move's vmax.
	assert.Less(t, planned[0].VExit, planned[0].VPeak)
	assert.InDelta(t, planned[0].VExit, planned[1].VEntry, 1e-9)
}

func TestPlanner_CollinearJunctionDoesNotSlowDown(t *testing.T) {
	p := New(defaultConfig())

	planned := p.Push(linear(0, 0, 10, 0, 6000))
	planned = append(planned, p.Push(linear(10, 0, 20, 0, 6000))...)
	planned = append(planned, p.Finish()...)

	require.Len(t, planned, 2)
	// Collinear moves: cosTheta = -1, sinHalf = 1 -> junction cap is +Inf,
	// so the cruise speed should be unreduced (vmax for 6000mm/min = 100mm/s).
	assert.InDelta(t, 100.0, planned[0].VExit, 1e-6)
	assert.InDelta(t, 100.0, planned[1].VEntry, 1e-6)
}

func TestPlanner_180DegreeReversalForcesFullStop(t *testing.T) {
	p := New(defaultConfig())

	planned := p.Push(linear(0, 0, 10, 0, 6000))
	planned = append(planned, p.Push(linear(10, 0, 0, 0, 6000))...)
	planned = append(planned, p.Finish()...)

	require.Len(t, planned, 2)
	assert.InDelta(t, 0, planned[0].VExit, 1e-9)
	assert.InDelta(t, 0, planned[1].VEntry, 1e-9)
}

func TestPlanner_FinishAlwaysEndsAtZeroVelocity(t *testing.T) {
	p := New(defaultConfig())
	p.Push(linear(0, 0, 10, 0, 6000))
	p.Push(linear(10, 0, 20, 5, 6000))
	planned := p.Push(linear(20, 5, 20, 20, 6000))
	planned = append(planned, p.Finish()...)

	require.NotEmpty(t, planned)
	assert.InDelta(t, 0, planned[len(planned)-1].VExit, 1e-9)
}

func TestPlanner_EveryPlannedMoveRespectsItsOwnVmax(t *testing.T) {
	p := New(defaultConfig())
	var planned []primitive.PlannedPrimitive
	for i := 0; i < 10; i++ {
		planned = append(planned, p.Push(linear(float64(i)*10, 0, float64(i+1)*10, 0, 3000))...)
	}
	planned = append(planned, p.Finish()...)

	for _, pp := range planned {
		vmax := 50.0 // 3000mm/min = 50mm/s
		assert.LessOrEqual(t, pp.VPeak, vmax+1e-6)
		assert.LessOrEqual(t, pp.VEntry, pp.VPeak+1e-9)
		assert.LessOrEqual(t, pp.VExit, pp.VPeak+1e-9)
	}
}

func TestPlanner_CommitPreservesContinuityAcrossFlushes(t *testing.T) {
	cfg := defaultConfig()
	cfg.BufferTime = 0.0001 // flush aggressively
	cfg.MaxWindowMoves = 5
	p := New(cfg)

	var planned []primitive.PlannedPrimitive
	for i := 0; i < 20; i++ {
		planned = append(planned, p.Push(linear(float64(i)*10, 0, float64(i+1)*10, 0, 6000))...)
	}
	planned = append(planned, p.Finish()...)

	require.Len(t, planned, 20)
	for i := 1; i < len(planned); i++ {
		assert.InDelta(t, planned[i-1].VExit, planned[i].VEntry, 1e-6,
			"velocity continuity must be preserved across a planner flush at move %d", i)
	}
}

func TestJunctionV2_DegenerateReversalReturnsZero(t *testing.T) {
	a := moveInfo{unit: vec3(1, 0, 0), deltaV2: 2000}
	b := moveInfo{unit: vec3(-1, 0, 0), deltaV2: 2000}
	v2 := junctionV2(a, b, 0.05, 1000)
	assert.InDelta(t, 0, v2, 1e-9)
}

func TestJunctionV2_StraightLineIsUnbounded(t *testing.T) {
	a := moveInfo{unit: vec3(1, 0, 0), deltaV2: 2000}
	b := moveInfo{unit: vec3(1, 0, 0), deltaV2: 2000}
	v2 := junctionV2(a, b, 0.05, 1000)
	assert.True(t, math.IsInf(v2, 1))
}
