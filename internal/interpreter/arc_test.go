package interpreter

import (
	"math"
	"testing"
)

func TestSegmentArc_QuarterCircleSegmentCount(t *testing.T) {
	start := [2]float64{10, 0}
	end := [2]float64{0, 10}
	center := [2]float64{0, 0}
	tolerance := 0.025

	points, err := segmentArc(start, end, center, false, tolerance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rs := math.Hypot(start[0]-center[0], start[1]-center[1])
	maxSegAngle := 2 * math.Acos(math.Max(0, 1-tolerance/rs))
	wantSegments := int(math.Abs(math.Pi/2) / maxSegAngle)
	if wantSegments < 1 {
		wantSegments = 1
	}

	if len(points) != wantSegments {
		t.Fatalf("got %d segments, want %d", len(points), wantSegments)
	}

	last := points[len(points)-1]
	if math.Abs(last[0]-end[0]) > 1e-6 || math.Abs(last[1]-end[1]) > 1e-6 {
		t.Fatalf("last point %v does not match arc end %v", last, end)
	}
}

func TestSegmentArc_FullCircleClockwiseAndCCW(t *testing.T) {
	start := [2]float64{10, 0}
	center := [2]float64{0, 0}

	ccw, err := segmentArc(start, start, center, false, 0.025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ccw) < 2 {
		t.Fatalf("expected a full circle to be segmented into multiple chords, got %d", len(ccw))
	}

	cw, err := segmentArc(start, start, center, true, 0.025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cw) < 2 {
		t.Fatalf("expected a full circle to be segmented into multiple chords, got %d", len(cw))
	}
}

func TestSegmentArc_ZeroRadiusErrors(t *testing.T) {
	_, err := segmentArc([2]float64{0, 0}, [2]float64{1, 1}, [2]float64{0, 0}, false, 0.025)
	if err == nil {
		t.Fatal("expected an error for a zero-radius start point")
	}
}

func TestArcCenterFromR_QuarterCircle(t *testing.T) {
	start := [2]float64{10, 0}
	end := [2]float64{0, 10}

	center, err := arcCenterFromR(start, end, 10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(center[0]) > 1e-6 || math.Abs(center[1]) > 1e-6 {
		t.Fatalf("expected center near origin, got %v", center)
	}
}

func TestArcCenterFromR_ChordTooLongErrors(t *testing.T) {
	_, err := arcCenterFromR([2]float64{0, 0}, [2]float64{100, 0}, 1, false)
	if err == nil {
		t.Fatal("expected an error when the chord exceeds 2*R")
	}
}

func TestArcCenterFromR_IdenticalEndpointsErrors(t *testing.T) {
	_, err := arcCenterFromR([2]float64{5, 5}, [2]float64{5, 5}, 10, false)
	if err == nil {
		t.Fatal("expected an error for a zero-length chord")
	}
}

func TestArcCenterFromR_NegativeRadiusTakesLongWayAround(t *testing.T) {
	start := [2]float64{10, 0}
	end := [2]float64{0, 10}

	shortWay, err := arcCenterFromR(start, end, 10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	longWay, err := arcCenterFromR(start, end, -10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortWay == longWay {
		t.Fatal("expected negative radius to select a different center than positive radius")
	}
}
