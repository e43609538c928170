// Package primitive holds the core motion data model: the tagged
// MotionType variant, the immutable MotionPrimitive that the
// interpreter emits, and the PlannedPrimitive the planner wraps it in.
package primitive

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MotionType tags what kind of move a primitive represents. Only Rapid
// and Linear ever reach the planner; the arc variants are transient
// interpreter state consumed during arc expansion.
type MotionType int

const (
	Rapid MotionType = iota
	Linear
	ArcCW
	ArcCCW
)

func (m MotionType) String() string {
	switch m {
	case Rapid:
		return "G0"
	case Linear:
		return "G1"
	case ArcCW:
		return "G2"
	case ArcCCW:
		return "G3"
	default:
		return "unknown"
	}
}

// MotionPrimitive is an immutable single straight-line move in machine
// coordinates (millimeters). Feedrate is in millimeters-per-minute and is
// required for every non-rapid move by the time it reaches the planner.
type MotionPrimitive struct {
	Motion   MotionType
	Start    mgl64.Vec3
	End      mgl64.Vec3
	Feedrate *float64 // mm/min; nil for rapids and unresolved state
}

// NewLinear builds a Linear (or Rapid) primitive with a resolved feedrate.
func NewLinear(motion MotionType, start, end mgl64.Vec3, feedrateMMPerMin float64) MotionPrimitive {
	f := feedrateMMPerMin
	return MotionPrimitive{Motion: motion, Start: start, End: end, Feedrate: &f}
}

// NewRapid builds a Rapid primitive; feedrate is resolved later by the
// planner (substituted with max_velocity).
func NewRapid(start, end mgl64.Vec3) MotionPrimitive {
	return MotionPrimitive{Motion: Rapid, Start: start, End: end}
}

// Length returns the Euclidean length of the move.
func (p MotionPrimitive) Length() float64 {
	return p.End.Sub(p.Start).Len()
}

// HasFeedrate reports whether a resolved feedrate is attached.
func (p MotionPrimitive) HasFeedrate() bool {
	return p.Feedrate != nil
}

// PlannedPrimitive wraps a MotionPrimitive with planner output in
// consistent units: millimeters-per-second for speeds, seconds for
// times. Invariants (spec §3): 0 <= v_entry <= v_peak, 0 <= v_exit <=
// v_peak, v_peak <= vmax_of_segment.
type PlannedPrimitive struct {
	Primitive MotionPrimitive

	VEntry float64
	VExit  float64
	VPeak  float64

	Accel float64

	TAccel  float64
	TCruise float64
	TDecel  float64
}

// Duration returns the total planned traversal time of the move.
func (p PlannedPrimitive) Duration() float64 {
	return p.TAccel + p.TCruise + p.TDecel
}
