// Package interpreter translates a parsed gcodeparse.Record, plus the
// current modal.State, into zero or more machine-space MotionPrimitives
// (spec §4.3). Arcs are expanded to linear primitives here; only Rapid
// and Linear primitives ever leave this package.
package interpreter

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
	"github.com/chrisns/cnc-motion-core/internal/gcodeparse"
	"github.com/chrisns/cnc-motion-core/internal/modal"
	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

// SoftLimitChecker validates a machine-space point is within bounds. The
// interpreter calls it once, on the endpoint only (spec §9).
type SoftLimitChecker interface {
	CheckPoint(p mgl64.Vec3) error
}

// Interpreter owns no state of its own beyond references: the modal
// state it mutates and an optional soft-limit checker.
type Interpreter struct {
	State      *modal.State
	SoftLimits SoftLimitChecker
}

// New builds an Interpreter over the given modal state.
func New(state *modal.State, limits SoftLimitChecker) *Interpreter {
	return &Interpreter{State: state, SoftLimits: limits}
}

// Interpret consumes one parsed record and returns the primitives it
// produces, mutating modal state for modal codes along the way. line is
// the 1-based source line number, used only for error messages.
func (it *Interpreter) Interpret(line int, rec *gcodeparse.Record) ([]primitive.MotionPrimitive, error) {
	if rec.Empty() {
		return nil, nil
	}

	// 1. Apply all G-codes to modal state in the order they appeared.
	for _, g := range rec.GCodes {
		it.applyG(g)
	}

	// 2. Feedrate update.
	if f, ok := rec.Words["F"]; ok {
		it.State.UpdateFeedrate(f)
	}

	// 3. Collect axis/arc words.
	motion := it.State.Motion
	isArc := motion == primitive.ArcCW || motion == primitive.ArcCCW
	_, hasX := rec.Words["X"]
	_, hasY := rec.Words["Y"]
	_, hasZ := rec.Words["Z"]

	// 4. Modal-only line: nothing to emit.
	if !hasX && !hasY && !hasZ && !isArc {
		return nil, nil
	}

	// 5. Resolve program-space endpoints and advance stored position.
	startProg := it.State.Position
	endProg := it.State.ResolveTarget(rec.Words)
	it.State.Position = endProg

	// 6. Machine-space endpoints + soft-limit validation.
	startMachine := it.State.ApplyWorkOffset(startProg)
	endMachine := it.State.ApplyWorkOffset(endProg)

	if it.SoftLimits != nil {
		if err := it.SoftLimits.CheckPoint(endMachine); err != nil {
			return nil, err
		}
	}

	// 7. Dispatch on motion mode.
	if isArc {
		return it.interpretArc(line, motion, startProg, endProg, rec.Words)
	}
	return it.interpretLinear(line, motion, startMachine, endMachine)
}

func (it *Interpreter) applyG(g int) {
	s := it.State
	switch {
	case g == 0 || g == 1 || g == 2 || g == 3:
		s.SetMotionMode(g)
	case g == 90 || g == 91:
		s.SetDistanceMode(g)
	case g == 20 || g == 21:
		s.SetUnits(g)
	case g == 17 || g == 18 || g == 19:
		s.SetPlane(g)
	case g >= 54 && g <= 59:
		s.SetActiveWCS(g)
	}
}

// interpretLinear segments a Rapid/Linear move so no segment exceeds
// MaxSegmentTime at the governing feedrate (spec §4.3, "Linear / Rapid").
func (it *Interpreter) interpretLinear(line int, motion primitive.MotionType, start, end mgl64.Vec3) ([]primitive.MotionPrimitive, error) {
	var feedMMPerMin float64
	if motion == primitive.Rapid {
		feedMMPerMin = it.State.RapidFeedrate
	} else {
		if it.State.Feedrate == nil || *it.State.Feedrate <= 0 {
			return nil, cncerrors.NewModalError(line, "feedrate not set for linear motion")
		}
		feedMMPerMin = *it.State.Feedrate
	}

	length := end.Sub(start).Len()
	if length < 1e-12 {
		return nil, nil
	}

	feedMMPerSec := feedMMPerMin / 60.0
	n := 1
	if feedMMPerSec > 0 {
		n = int(math.Ceil(length / feedMMPerSec / it.State.MaxSegmentTime))
		if n < 1 {
			n = 1
		}
	}

	prims := make([]primitive.MotionPrimitive, 0, n)
	prev := start
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		next := start.Add(end.Sub(start).Mul(t))
		if motion == primitive.Rapid {
			prims = append(prims, primitive.NewRapid(prev, next))
		} else {
			prims = append(prims, primitive.NewLinear(primitive.Linear, prev, next, feedMMPerMin))
		}
		prev = next
	}
	return prims, nil
}
