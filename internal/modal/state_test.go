package modal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	if s.UnitsScale != 1.0 {
		t.Errorf("UnitsScale = %v, want 1.0", s.UnitsScale)
	}
	if !s.Absolute {
		t.Error("expected Absolute mode by default (G90)")
	}
	if s.Plane != PlaneXY {
		t.Errorf("Plane = %v, want PlaneXY", s.Plane)
	}
}

func TestSetUnits(t *testing.T) {
	s := New()
	s.SetUnits(20)
	if s.UnitsScale != 25.4 {
		t.Errorf("G20 scale = %v, want 25.4", s.UnitsScale)
	}
	s.SetUnits(21)
	if s.UnitsScale != 1.0 {
		t.Errorf("G21 scale = %v, want 1.0", s.UnitsScale)
	}
}

func TestResolveTarget_AbsoluteAndIncremental(t *testing.T) {
	s := New()
	s.Position = mgl64.Vec3{10, 10, 0}

	abs := s.ResolveTarget(map[string]float64{"X": 5})
	if abs != (mgl64.Vec3{5, 10, 0}) {
		t.Fatalf("absolute resolve = %v", abs)
	}

	s.SetDistanceMode(91)
	inc := s.ResolveTarget(map[string]float64{"X": 5})
	if inc != (mgl64.Vec3{15, 10, 0}) {
		t.Fatalf("incremental resolve = %v", inc)
	}
}

func TestResolveTarget_UnitsScaling(t *testing.T) {
	s := New()
	s.SetUnits(20) // inches
	got := s.ResolveTarget(map[string]float64{"X": 1})
	want := mgl64.Vec3{25.4, 0, 0}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSetActiveWCS_OutOfRangeIgnored(t *testing.T) {
	s := New()
	s.SetActiveWCS(54)
	if s.ActiveWCS != 0 {
		t.Fatalf("G54 -> ActiveWCS = %d, want 0", s.ActiveWCS)
	}
	s.SetActiveWCS(59)
	if s.ActiveWCS != 5 {
		t.Fatalf("G59 -> ActiveWCS = %d, want 5", s.ActiveWCS)
	}
	s.SetActiveWCS(99)
	if s.ActiveWCS != 5 {
		t.Fatalf("invalid WCS code mutated ActiveWCS to %d", s.ActiveWCS)
	}
}

func TestApplyWorkOffset(t *testing.T) {
	s := New()
	s.WorkOffsets[0] = mgl64.Vec3{1, 2, 3}
	got := s.ApplyWorkOffset(mgl64.Vec3{10, 10, 10})
	want := mgl64.Vec3{11, 12, 13}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}
