package interpreter

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
	"github.com/chrisns/cnc-motion-core/internal/gcodeparse"
	"github.com/chrisns/cnc-motion-core/internal/modal"
	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

func totalLength(prims []primitive.MotionPrimitive) float64 {
	total := 0.0
	for _, p := range prims {
		total += p.Length()
	}
	return total
}

func TestInterpret_LinearMoveSegmentedByMaxSegmentTime(t *testing.T) {
	state := modal.New()
	state.MaxSegmentTime = 0.01
	it := New(state, nil)

	if _, err := it.Interpret(1, gcodeparse.Parse("G1 F6000")); err != nil {
		t.Fatalf("unexpected error setting feed: %v", err)
	}

	rec := gcodeparse.Parse("G1 X100")
	prims, err := it.Interpret(2, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// feed = 6000 mm/min = 100 mm/s, move length 100mm -> move time 1s
	// -> ceil(1 / 0.01) = 100 segments.
	if len(prims) != 100 {
		t.Fatalf("got %d segments, want 100", len(prims))
	}

	if math.Abs(totalLength(prims)-100) > 1e-6 {
		t.Fatalf("segmented total length = %v, want 100", totalLength(prims))
	}
	if prims[len(prims)-1].End != (mgl64.Vec3{100, 0, 0}) {
		t.Fatalf("final segment end = %v, want {100 0 0}", prims[len(prims)-1].End)
	}
}

func TestInterpret_LinearWithoutFeedrateIsModalError(t *testing.T) {
	state := modal.New()
	it := New(state, nil)

	_, err := it.Interpret(1, gcodeparse.Parse("G1 X10"))
	if err == nil {
		t.Fatal("expected a modal error for missing feedrate")
	}
	var modalErr *cncerrors.ModalError
	if !errors.As(err, &modalErr) {
		t.Fatalf("expected *cncerrors.ModalError, got %T: %v", err, err)
	}
}

func TestInterpret_RapidDoesNotRequireFeedrate(t *testing.T) {
	state := modal.New()
	it := New(state, nil)

	prims, err := it.Interpret(1, gcodeparse.Parse("G0 X10 Y10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prims) == 0 {
		t.Fatal("expected at least one rapid primitive")
	}
}

func TestInterpret_ModalOnlyLineEmitsNothing(t *testing.T) {
	state := modal.New()
	it := New(state, nil)

	prims, err := it.Interpret(1, gcodeparse.Parse("G90 G21"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prims != nil {
		t.Fatalf("expected no primitives for a modal-only line, got %v", prims)
	}
}

func TestInterpret_ArcMissingCenterIsGeometryError(t *testing.T) {
	state := modal.New()
	it := New(state, nil)
	it.Interpret(1, gcodeparse.Parse("G1 F1000"))

	_, err := it.Interpret(2, gcodeparse.Parse("G2 X10 Y10"))
	if err == nil {
		t.Fatal("expected a geometry error for an arc with neither R nor IJK")
	}
	var geomErr *cncerrors.GeometryError
	if !errors.As(err, &geomErr) {
		t.Fatalf("expected *cncerrors.GeometryError, got %T: %v", err, err)
	}
}

func TestInterpret_HelicalArcDistributesZByArcLengthFraction(t *testing.T) {
	state := modal.New()
	it := New(state, nil)
	it.Interpret(1, gcodeparse.Parse("G0 X10"))
	it.Interpret(2, gcodeparse.Parse("G1 F1000"))

	// Center at origin: start (10,0) and end (0,10) are both radius 10.
	prims, err := it.Interpret(3, gcodeparse.Parse("G2 X0 Y10 Z10 I-10 J0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prims) == 0 {
		t.Fatal("expected arc to be segmented into at least one primitive")
	}

	// Z should be monotonically increasing and finish exactly at 10.
	last := prims[len(prims)-1]
	if math.Abs(last.End[2]-10) > 1e-6 {
		t.Fatalf("final Z = %v, want 10", last.End[2])
	}
	for i := 1; i < len(prims); i++ {
		if prims[i].End[2] < prims[i-1].End[2]-1e-9 {
			t.Fatalf("Z is not monotonically increasing across helical segments")
		}
	}
}

func TestInterpret_SoftLimitCheckedOnEndpointOnly(t *testing.T) {
	state := modal.New()
	limits := &fakeLimits{rejectAbove: 50}
	it := New(state, limits)
	it.Interpret(1, gcodeparse.Parse("G1 F1000"))

	_, err := it.Interpret(2, gcodeparse.Parse("G1 X100"))
	if err == nil {
		t.Fatal("expected a soft-limit error for an out-of-bounds endpoint")
	}
}

type fakeLimits struct {
	rejectAbove float64
}

func (f *fakeLimits) CheckPoint(p mgl64.Vec3) error {
	if p[0] > f.rejectAbove {
		return cncerrors.NewSoftLimitError("X", p[0], 0, f.rejectAbove)
	}
	return nil
}

