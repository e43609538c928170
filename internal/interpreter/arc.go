package interpreter

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
	"github.com/chrisns/cnc-motion-core/internal/modal"
	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

const arcEps = 1e-9

// planeAxes returns the (a, b, c) component indices into a Vec3 for the
// given plane: a/b are the in-plane axes, c is the helical axis (spec
// §4.3: G17 -> X,Y,Z; G18 -> X,Z,Y; G19 -> Y,Z,X).
func planeAxes(p modal.Plane) (a, b, c int) {
	switch p {
	case modal.PlaneXZ:
		return 0, 2, 1
	case modal.PlaneYZ:
		return 1, 2, 0
	default: // PlaneXY
		return 0, 1, 2
	}
}

// arcOffsetWords returns which of I/J/K feed the a/b-axis center offset
// for the given plane (spec §4.3: G17 -> I,J; G18 -> I,K; G19 -> J,K).
func arcOffsetWords(p modal.Plane) (letterA, letterB string) {
	switch p {
	case modal.PlaneXZ:
		return "I", "K"
	case modal.PlaneYZ:
		return "J", "K"
	default:
		return "I", "J"
	}
}

func (it *Interpreter) interpretArc(line int, motion primitive.MotionType, startProg, endProg mgl64.Vec3, words map[string]float64) ([]primitive.MotionPrimitive, error) {
	clockwise := motion == primitive.ArcCW
	plane := it.State.Plane
	scale := it.State.UnitsScale

	ax, ay, az := planeAxes(plane)
	s2 := [2]float64{startProg[ax], startProg[ay]}
	e2 := [2]float64{endProg[ax], endProg[ay]}

	var center [2]float64
	if r, ok := words["R"]; ok {
		c, err := arcCenterFromR(s2, e2, r*scale, clockwise)
		if err != nil {
			return nil, cncerrors.NewGeometryError(line, "%s", err.Error())
		}
		center = c
	} else {
		letterA, letterB := arcOffsetWords(plane)
		offA, hasA := words[letterA]
		offB, hasB := words[letterB]
		if !hasA && !hasB {
			return nil, cncerrors.NewGeometryError(line, "arc has neither IJK nor R words")
		}
		center = [2]float64{s2[0] + offA*scale, s2[1] + offB*scale}
	}

	points, err := segmentArc(s2, e2, center, clockwise, it.State.ArcToleranceMM)
	if err != nil {
		return nil, cncerrors.NewGeometryError(line, "%s", err.Error())
	}
	if len(points) == 0 {
		return nil, nil
	}

	feedMMPerMin := it.State.Feedrate
	if feedMMPerMin == nil || *feedMMPerMin <= 0 {
		return nil, cncerrors.NewModalError(line, "feedrate not set for arc motion")
	}

	deltaPerp := endProg[az] - startProg[az]

	totalLen := 0.0
	prev2 := s2
	for _, p := range points {
		totalLen += math.Hypot(p[0]-prev2[0], p[1]-prev2[1])
		prev2 = p
	}
	if totalLen <= arcEps {
		return nil, nil
	}

	prims := make([]primitive.MotionPrimitive, 0, len(points))
	prevProg := startProg
	prevMachine := it.State.ApplyWorkOffset(prevProg)

	traveled := 0.0
	prev2 = s2
	for _, p := range points {
		segLen := math.Hypot(p[0]-prev2[0], p[1]-prev2[1])
		traveled += segLen
		frac := math.Min(1.0, traveled/totalLen)

		nextProg := prevProg
		nextProg[ax] = p[0]
		nextProg[ay] = p[1]
		nextProg[az] = startProg[az] + deltaPerp*frac

		nextMachine := it.State.ApplyWorkOffset(nextProg)

		prims = append(prims, primitive.NewLinear(primitive.Linear, prevMachine, nextMachine, *feedMMPerMin))

		prevProg = nextProg
		prevMachine = nextMachine
		prev2 = p
	}

	return prims, nil
}

// segmentArc samples the arc from start to end around center into a
// chordal-tolerance-bounded set of 2D points, excluding start but
// including end (spec §4.3). A zero-length chord between identical
// start/end is treated as a full circle (sweep = +-2*pi).
func segmentArc(start, end, center [2]float64, clockwise bool, tolerance float64) ([][2]float64, error) {
	rs := math.Hypot(start[0]-center[0], start[1]-center[1])
	re := math.Hypot(end[0]-center[0], end[1]-center[1])
	if rs < arcEps || re < arcEps {
		return nil, errArcZeroRadius{}
	}

	startAng := math.Atan2(start[1]-center[1], start[0]-center[0])
	endAng := math.Atan2(end[1]-center[1], end[0]-center[0])

	isFullCircle := math.Abs(start[0]-end[0]) < arcEps && math.Abs(start[1]-end[1]) < arcEps

	var sweep float64
	if isFullCircle {
		if clockwise {
			sweep = -2 * math.Pi
		} else {
			sweep = 2 * math.Pi
		}
	} else {
		sweep = endAng - startAng
		if clockwise && sweep > 0 {
			sweep -= 2 * math.Pi
		} else if !clockwise && sweep < 0 {
			sweep += 2 * math.Pi
		}
	}

	if math.Abs(sweep)*rs <= arcEps {
		return nil, nil
	}

	maxSegAngle := 2 * math.Acos(math.Max(0.0, 1-tolerance/rs))
	segments := 1
	if maxSegAngle > arcEps {
		if n := int(math.Abs(sweep) / maxSegAngle); n > 1 {
			segments = n
		}
	}

	points := make([][2]float64, 0, segments)
	for i := 1; i <= segments; i++ {
		t := float64(i) / float64(segments)
		ang := startAng + sweep*t
		points = append(points, [2]float64{
			center[0] + rs*math.Cos(ang),
			center[1] + rs*math.Sin(ang),
		})
	}
	return points, nil
}

// arcCenterFromR resolves the arc center for R-form arcs: two candidate
// centers lie at distance h from the chord midpoint, perpendicular to
// the chord; selection uses the sign of the 2D cross product against the
// requested direction, then is inverted if r is negative (long way
// around) (spec §4.3, §9).
func arcCenterFromR(start, end [2]float64, r float64, clockwise bool) ([2]float64, error) {
	dx := end[0] - start[0]
	dy := end[1] - start[1]
	chord := math.Hypot(dx, dy)

	rAbs := math.Abs(r)
	if chord < arcEps {
		return [2]float64{}, errArcZeroChord{}
	}
	if chord > 2*rAbs {
		return [2]float64{}, errArcChordTooLong{}
	}

	mx := (start[0] + end[0]) / 2
	my := (start[1] + end[1]) / 2

	h := math.Sqrt(math.Max(0, rAbs*rAbs-(chord/2)*(chord/2)))

	nx := -dy / chord
	ny := dx / chord

	c1 := [2]float64{mx + nx*h, my + ny*h}
	c2 := [2]float64{mx - nx*h, my - ny*h}

	isClockwise := func(c [2]float64) bool {
		cross := (start[0]-c[0])*(end[1]-c[1]) - (start[1]-c[1])*(end[0]-c[0])
		return cross < 0
	}

	var center [2]float64
	if clockwise {
		if isClockwise(c1) {
			center = c1
		} else {
			center = c2
		}
	} else {
		if !isClockwise(c1) {
			center = c1
		} else {
			center = c2
		}
	}

	if r < 0 {
		if center == c1 {
			center = c2
		} else {
			center = c1
		}
	}

	return center, nil
}

type errArcZeroRadius struct{}

func (errArcZeroRadius) Error() string { return "arc radius is zero" }

type errArcZeroChord struct{}

func (errArcZeroChord) Error() string { return "arc start and end points are identical" }

type errArcChordTooLong struct{}

func (errArcChordTooLong) Error() string { return "arc radius too small for given endpoints" }
