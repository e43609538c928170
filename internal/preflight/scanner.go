package preflight

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/gcodeparse"
	"github.com/chrisns/cnc-motion-core/internal/interpreter"
	"github.com/chrisns/cnc-motion-core/internal/modal"
	"github.com/chrisns/cnc-motion-core/internal/primitive"
	"github.com/chrisns/cnc-motion-core/internal/softlimits"
)

// Classification categorizes a primitive relative to the soft-limit box,
// adapted from the teacher's optimizer.MoveClassification (which
// classified moves against a Z-depth threshold for finishing-pass
// filtering): here the threshold is the full 3D soft-limit box, and the
// purpose is diagnostic, not filtering.
type Classification int

const (
	Inside Classification = iota
	Outside
	CrossingIn
	CrossingOut
)

func (c Classification) String() string {
	switch c {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case CrossingIn:
		return "crossing-in"
	case CrossingOut:
		return "crossing-out"
	default:
		return "unknown"
	}
}

// Violation reports a primitive that leaves, enters, or stays outside
// the configured soft-limit box, with the point and axis where it
// crosses a bound, when calculable (never for Outside primitives) (adapted from the teacher's
// optimizer.IntersectionPoint / CalculateIntersection).
type Violation struct {
	Line           int
	Classification Classification
	Axis           string
	Point          mgl64.Vec3
	T              float64
	HasPoint       bool
}

// Scanner runs a whole-file soft-limit sweep independent of the
// streaming interpreter's endpoint-only check.
type Scanner struct {
	Limits *softlimits.Limits
}

// NewScanner builds a Scanner over the given bounds.
func NewScanner(limits *softlimits.Limits) *Scanner {
	return &Scanner{Limits: limits}
}

// Scan runs the parser+interpreter over every line (skipping blanks and
// comments, matching linesource's rule) with a throwaway modal state,
// classifying every emitted primitive against the soft-limit box.
// GeometryError/ModalError from the interpreter still abort the scan —
// a file that can't be interpreted can't be swept either.
func (s *Scanner) Scan(lines []string) ([]Violation, error) {
	state := modal.New()
	interp := interpreter.New(state, nil)

	var violations []Violation
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "(") {
			continue
		}

		rec := gcodeparse.Parse(trimmed)
		if rec.Empty() {
			continue
		}

		prims, err := interp.Interpret(i+1, rec)
		if err != nil {
			return violations, err
		}

		for _, p := range prims {
			violations = append(violations, s.classify(i+1, p)...)
		}
	}
	return violations, nil
}

func (s *Scanner) classify(line int, p primitive.MotionPrimitive) []Violation {
	startIn := s.Limits.CheckPoint(p.Start) == nil
	endIn := s.Limits.CheckPoint(p.End) == nil

	var cls Classification
	switch {
	case startIn && endIn:
		return nil
	case !startIn && !endIn:
		cls = Outside
	case startIn && !endIn:
		cls = CrossingOut
	default:
		cls = CrossingIn
	}

	v := Violation{Line: line, Classification: cls}
	for _, axis := range [3]string{"X", "Y", "Z"} {
		if pt, t, ok := s.Limits.Intersect(axis, p.Start, p.End); ok {
			v.Axis, v.Point, v.T, v.HasPoint = axis, pt, t, true
			break
		}
	}
	return []Violation{v}
}
