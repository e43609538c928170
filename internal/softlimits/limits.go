// Package softlimits implements the bounds validator the interpreter
// calls on a machine-space endpoint before emitting primitives (spec §6,
// §9). The check is endpoint-only by design: a trajectory that dips
// briefly outside the box between two in-bounds endpoints is not caught
// by the core; internal/preflight offers an offline sweep check instead.
package softlimits

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
)

// Bound is an inclusive [Min, Max] range for one axis.
type Bound struct {
	Min, Max float64
}

func (b Bound) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Limits holds an optional per-axis bound. An axis with a zero-value
// Bound (not configured via WithAxis) is left unchecked.
type Limits struct {
	X, Y, Z    Bound
	hasX, hasY, hasZ bool
}

// New returns an unconfigured Limits; axes are checked once set via
// WithAxis.
func New() *Limits {
	return &Limits{}
}

// WithAxis configures the bound for one of "X", "Y", "Z" and returns the
// receiver for chaining.
func (l *Limits) WithAxis(axis string, min, max float64) *Limits {
	switch axis {
	case "X":
		l.X, l.hasX = Bound{min, max}, true
	case "Y":
		l.Y, l.hasY = Bound{min, max}, true
	case "Z":
		l.Z, l.hasZ = Bound{min, max}, true
	}
	return l
}

// CheckPoint validates a machine-space point against every configured
// axis bound, returning a *cncerrors.SoftLimitError on the first
// violation found (checked in X, Y, Z order).
func (l *Limits) CheckPoint(p mgl64.Vec3) error {
	if l == nil {
		return nil
	}
	if l.hasX && !l.X.contains(p[0]) {
		return cncerrors.NewSoftLimitError("X", p[0], l.X.Min, l.X.Max)
	}
	if l.hasY && !l.Y.contains(p[1]) {
		return cncerrors.NewSoftLimitError("Y", p[1], l.Y.Min, l.Y.Max)
	}
	if l.hasZ && !l.Z.contains(p[2]) {
		return cncerrors.NewSoftLimitError("Z", p[2], l.Z.Min, l.Z.Max)
	}
	return nil
}

// Intersect finds the parametric point (t in (0,1)) at which the
// straight segment start->end crosses axis's configured bound, if
// exactly one endpoint is inside it: the exit point when start is
// inside, the entry point when start is outside. Used only by internal/preflight's whole-file sweep
// scanner, never by the interpreter's endpoint-only check.
func (l *Limits) Intersect(axis string, start, end mgl64.Vec3) (point mgl64.Vec3, t float64, ok bool) {
	var b Bound
	var has bool
	var idx int
	switch axis {
	case "X":
		b, has, idx = l.X, l.hasX, 0
	case "Y":
		b, has, idx = l.Y, l.hasY, 1
	case "Z":
		b, has, idx = l.Z, l.hasZ, 2
	default:
		return mgl64.Vec3{}, 0, false
	}
	if !has {
		return mgl64.Vec3{}, 0, false
	}

	startIn := b.contains(start[idx])
	endIn := b.contains(end[idx])
	if startIn == endIn {
		return mgl64.Vec3{}, 0, false
	}

	target := b.Max
	if start[idx] < b.Min || end[idx] < b.Min {
		target = b.Min
	}

	delta := end[idx] - start[idx]
	if delta == 0 {
		return mgl64.Vec3{}, 0, false
	}
	tt := (target - start[idx]) / delta
	if tt <= 0 || tt >= 1 {
		return mgl64.Vec3{}, 0, false
	}

	pt := start.Add(end.Sub(start).Mul(tt))
	return pt, tt, true
}
