// Package planner implements the streaming lookahead trajectory
// planner: Klipper-style junction-deviation speed caps, backward/forward
// reachability passes in v^2 space, per-move trapezoidal timing, and a
// commit policy that flushes a safe prefix once enough time is buffered
// (spec §4.4).
package planner

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

const eps = 1e-12

// Config holds the planner's required, consistent-unit tuning
// parameters (spec §4.4).
type Config struct {
	MaxVelocity      float64  // mm/s
	MaxAccel         float64  // mm/s^2
	AxisAccels       *mgl64.Vec3 // optional per-axis accel limits, mm/s^2
	JunctionDeviation float64 // mm
	BufferTime       float64 // seconds of optimistic motion kept uncommitted
	KeepTailMoves    int     // minimum moves always kept in the window
	MaxWindowMoves   int     // hard cap that forces a flush
}

// moveInfo is the per-move precomputation the planner keeps in its
// window: everything derived from a pushed primitive that doesn't change
// across replans.
type moveInfo struct {
	prim     primitive.MotionPrimitive
	length   float64
	unit     mgl64.Vec3
	vmax     float64
	accel    float64
	minTime  float64
	deltaV2  float64
}

// Planner accepts raw MotionPrimitives one at a time and returns planned
// primitives that are safe to execute, in the same order they were
// pushed. The planner exclusively owns its window (spec §3).
type Planner struct {
	cfg Config

	window     []moveInfo
	windowTime float64
	carryInV2  float64
}

// New builds a Planner from Config.
func New(cfg Config) *Planner {
	if cfg.KeepTailMoves < 1 {
		cfg.KeepTailMoves = 1
	}
	if cfg.MaxWindowMoves < cfg.KeepTailMoves+1 {
		cfg.MaxWindowMoves = cfg.KeepTailMoves + 1
	}
	return &Planner{cfg: cfg}
}

// Reset clears all planner state, including the window and carry-in
// speed. Used by Controller.Reset (spec §4.5).
func (p *Planner) Reset() {
	p.window = nil
	p.windowTime = 0
	p.carryInV2 = 0
}

// Push adds a raw primitive to the window and returns zero or more
// PlannedPrimitives that the commit policy has decided are safe to
// execute now.
func (p *Planner) Push(prim primitive.MotionPrimitive) []primitive.PlannedPrimitive {
	mi, ok := p.makeMoveInfo(prim)
	if !ok {
		return nil
	}

	p.window = append(p.window, mi)
	p.windowTime += mi.minTime

	force := len(p.window) >= p.cfg.MaxWindowMoves
	return p.flushIfReady(force)
}

// Finish plans the entire remaining window with stop_at_end=true, emits
// every planned primitive, and clears planner state.
func (p *Planner) Finish() []primitive.PlannedPrimitive {
	if len(p.window) == 0 {
		return nil
	}
	planned := planWindow(p.window, p.cfg.JunctionDeviation, p.carryInV2, true)
	p.Reset()
	return planned
}

// WindowLen reports the current number of raw moves buffered, for
// diagnostics. The controller's refill loop does not consult it.
func (p *Planner) WindowLen() int {
	return len(p.window)
}

func (p *Planner) makeMoveInfo(prim primitive.MotionPrimitive) (moveInfo, bool) {
	length := prim.Length()
	if length < eps {
		return moveInfo{}, false
	}

	var vmax float64
	switch {
	case prim.Motion == primitive.Rapid, !prim.HasFeedrate():
		vmax = p.cfg.MaxVelocity
	default:
		vmax = math.Min(*prim.Feedrate/60.0, p.cfg.MaxVelocity)
	}

	diff := prim.End.Sub(prim.Start)
	unit := diff.Mul(1.0 / length)
	accel := p.effectiveAccel(unit)

	minTime := 0.0
	if vmax > eps {
		minTime = length / vmax
	}

	return moveInfo{
		prim:    prim,
		length:  length,
		unit:    unit,
		vmax:    vmax,
		accel:   accel,
		minTime: minTime,
		deltaV2: 2 * length * accel,
	}, true
}

func (p *Planner) effectiveAccel(unit mgl64.Vec3) float64 {
	if p.cfg.AxisAccels == nil {
		return p.cfg.MaxAccel
	}

	axis := *p.cfg.AxisAccels
	best := math.Inf(1)
	has := false
	for i := 0; i < 3; i++ {
		if math.Abs(unit[i]) > eps {
			has = true
			if v := axis[i] / math.Abs(unit[i]); v < best {
				best = v
			}
		}
	}
	if !has {
		return p.cfg.MaxAccel
	}
	return best
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// junctionV2 computes the Klipper-style junction speed cap (squared)
// between two consecutive moves (spec §4.4).
func junctionV2(prev, cur moveInfo, jd, accel float64) float64 {
	dot := clamp(prev.unit.Dot(cur.unit), -1.0, 1.0)
	cosTheta := -dot

	sinHalf := math.Sqrt(math.Max((1-cosTheta)/2, 0))
	cosHalf := math.Sqrt(math.Max((1+cosTheta)/2, 0))

	oneMinusSin := 1 - sinHalf
	if oneMinusSin <= eps || cosHalf <= eps {
		return math.Inf(1)
	}

	r := sinHalf / oneMinusSin
	v2JD := accel * jd * r

	quarterTan := 0.25 * sinHalf / cosHalf
	v2Short := math.Min(prev.deltaV2, cur.deltaV2) * quarterTan

	return math.Min(v2JD, v2Short)
}

// planWindow plans a list of moves given the known carry-in v^2 entering
// move 0 and a stop_at_end flag, following spec §4.4 step by step:
// boundary init, junction caps, backward pass, forward pass, trapezoid.
func planWindow(moves []moveInfo, jd, startV2 float64, stopAtEnd bool) []primitive.PlannedPrimitive {
	n := len(moves)
	if n == 0 {
		return nil
	}

	cap2 := make([]float64, n+1)
	for i := range cap2 {
		cap2[i] = math.Inf(1)
	}
	cap2[0] = math.Max(0, startV2)
	if stopAtEnd {
		cap2[n] = 0
	}

	for i := 0; i < n; i++ {
		vmax2 := moves[i].vmax * moves[i].vmax
		cap2[i] = math.Min(cap2[i], vmax2)
		cap2[i+1] = math.Min(cap2[i+1], vmax2)
	}

	for i := 1; i < n; i++ {
		prev, cur := moves[i-1], moves[i]
		aJunc := math.Min(prev.accel, cur.accel)
		v2 := junctionV2(prev, cur, jd, aJunc)
		v2 = math.Min(v2, math.Min(prev.vmax*prev.vmax, cur.vmax*cur.vmax))
		cap2[i] = math.Min(cap2[i], v2)
	}

	// Backward reachability: never lift cap2[0], the authoritative carry-in.
	for i := n - 1; i >= 1; i-- {
		reachable := cap2[i+1] + 2*moves[i].accel*moves[i].length
		cap2[i] = math.Min(cap2[i], reachable)
	}

	// Forward reachability.
	for i := 0; i < n; i++ {
		reachable := cap2[i] + 2*moves[i].accel*moves[i].length
		cap2[i+1] = math.Min(cap2[i+1], reachable)
	}

	planned := make([]primitive.PlannedPrimitive, 0, n)
	for i := 0; i < n; i++ {
		m := moves[i]
		vIn2 := math.Max(0, cap2[i])
		vOut2 := math.Max(0, cap2[i+1])
		vmax2 := m.vmax * m.vmax

		vPeak2 := math.Min(vmax2, m.accel*m.length+0.5*(vIn2+vOut2))
		vIn := math.Sqrt(vIn2)
		vOut := math.Sqrt(vOut2)
		vPeak := math.Sqrt(math.Max(0, vPeak2))

		if m.accel <= eps {
			tCruise := 0.0
			if vPeak > eps {
				tCruise = m.length / vPeak
			}
			planned = append(planned, primitive.PlannedPrimitive{
				Primitive: m.prim, VEntry: vIn, VExit: vOut, VPeak: vPeak,
				Accel: m.accel, TCruise: tCruise,
			})
			continue
		}

		dAccel := (vPeak2 - vIn2) / (2 * m.accel)
		dDecel := (vPeak2 - vOut2) / (2 * m.accel)
		dCruise := math.Max(0, m.length-dAccel-dDecel)

		tAccel := (vPeak - vIn) / m.accel
		tDecel := (vPeak - vOut) / m.accel
		tCruise := 0.0
		if vPeak > eps {
			tCruise = dCruise / vPeak
		}

		planned = append(planned, primitive.PlannedPrimitive{
			Primitive: m.prim,
			VEntry:    vIn,
			VExit:     vOut,
			VPeak:     vPeak,
			Accel:     m.accel,
			TAccel:    tAccel,
			TCruise:   tCruise,
			TDecel:    tDecel,
		})
	}

	return planned
}

// flushIfReady implements the commit policy of spec §4.4: keep at least
// keep_tail_moves in the window; once buffered optimistic time reaches
// buffer_time (or the window is force-flushed), plan the whole window
// with stop_at_end=true and commit a prefix that still leaves
// keep_tail_moves uncommitted.
func (p *Planner) flushIfReady(force bool) []primitive.PlannedPrimitive {
	if len(p.window) <= p.cfg.KeepTailMoves {
		return nil
	}
	if !force && p.windowTime < p.cfg.BufferTime {
		return nil
	}

	plannedAll := planWindow(p.window, p.cfg.JunctionDeviation, p.carryInV2, true)

	remainingTime := p.windowTime
	flushCount := 0
	maxFlush := len(p.window) - p.cfg.KeepTailMoves

	for flushCount < maxFlush {
		mi := p.window[flushCount]
		nextRemaining := remainingTime - mi.minTime
		if !force && nextRemaining < p.cfg.BufferTime {
			break
		}
		flushCount++
		remainingTime = nextRemaining
	}

	if flushCount <= 0 {
		return nil
	}

	committed := plannedAll[:flushCount]

	if flushCount < len(plannedAll) {
		newHead := plannedAll[flushCount]
		p.carryInV2 = newHead.VEntry * newHead.VEntry
	} else {
		p.carryInV2 = 0
	}

	for i := 0; i < flushCount; i++ {
		p.windowTime -= p.window[i].minTime
	}
	// Compact the window in place (copy handles the overlap correctly)
	// so the backing array doesn't grow unbounded over a long job.
	remaining := copy(p.window, p.window[flushCount:])
	p.window = p.window[:remaining]

	if p.windowTime < 0 {
		p.windowTime = 0
	}

	return committed
}
