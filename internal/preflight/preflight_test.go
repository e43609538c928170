package preflight

import (
	"strings"
	"testing"

	"github.com/chrisns/cnc-motion-core/internal/softlimits"
)

func TestScanStats_CountsMotionLinesAndAxes(t *testing.T) {
	src := strings.NewReader("G21\nG1 X10 Y10 F1000\nG0 X0 Y0\nM3 S1000\n")
	stats, err := ScanStats(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MotionLines != 2 {
		t.Fatalf("MotionLines = %d, want 2", stats.MotionLines)
	}
	if !stats.AxesSeen["X"] || !stats.AxesSeen["Y"] {
		t.Fatalf("expected X and Y seen, got %+v", stats.AxesSeen)
	}
	if stats.MCodeCounts[3] != 1 {
		t.Fatalf("expected one M3, got %d", stats.MCodeCounts[3])
	}
}

func TestScanner_FlagsSoftLimitCrossing(t *testing.T) {
	limits := softlimits.New().WithAxis("X", 0, 100)
	scanner := NewScanner(limits)

	violations, err := scanner.Scan([]string{
		"G1 F6000",
		"G1 X50",
		"G1 X150", // crosses out of bounds
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected at least one soft-limit violation")
	}
	if violations[0].Classification != CrossingOut {
		t.Fatalf("classification = %v, want CrossingOut", violations[0].Classification)
	}
}

func TestScanner_NoViolationsWithinBounds(t *testing.T) {
	limits := softlimits.New().WithAxis("X", 0, 100)
	scanner := NewScanner(limits)

	violations, err := scanner.Scan([]string{
		"G1 F6000",
		"G1 X50",
		"G1 X60",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}
