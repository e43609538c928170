// Package modal holds the CNC modal state that persists across G-code
// lines: units, plane, distance mode, feedrate, motion mode, active work
// coordinate system, and program-space position (spec §3, §4.2).
package modal

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/primitive"
)

// Plane identifies the arc plane selected by G17/G18/G19.
type Plane int

const (
	PlaneXY Plane = iota // G17
	PlaneXZ              // G18
	PlaneYZ              // G19
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "G17"
	case PlaneXZ:
		return "G18"
	case PlaneYZ:
		return "G19"
	default:
		return "unknown"
	}
}

// State is the mutable, process-long modal state of a single job. It is
// owned exclusively by the interpreter and mutated only during a pump
// tick (spec §5).
type State struct {
	UnitsScale float64 // 1.0 (mm, G21) or 25.4 (inch, G20)
	Absolute   bool     // true = G90, false = G91
	Plane      Plane
	Motion     primitive.MotionType // sticky motion mode

	Feedrate        *float64 // mm/min; nil until the first F word
	RapidFeedrate   float64  // mm/min, defaulted

	ActiveWCS    int
	WorkOffsets  [6]mgl64.Vec3 // mm, per WCS index

	Position mgl64.Vec3 // program-space position, mm, no WCS applied

	ArcToleranceMM float64
	MaxSegmentTime float64 // seconds
}

// New returns a State initialized to the defaults used at job start
// (spec §3: "initialized to defaults; reset on job start").
func New() *State {
	return &State{
		UnitsScale:     1.0,
		Absolute:       true,
		Plane:          PlaneXY,
		Motion:         primitive.Rapid,
		RapidFeedrate:  3000.0,
		ArcToleranceMM: 0.025,
		MaxSegmentTime: 0.01,
	}
}

// Reset reinitializes the state to job-start defaults, preserving
// nothing from the previous job.
func (s *State) Reset() {
	*s = *New()
}

// SetUnits applies G20 (inch) or G21 (mm).
func (s *State) SetUnits(g int) {
	switch g {
	case 20:
		s.UnitsScale = 25.4
	case 21:
		s.UnitsScale = 1.0
	}
}

// SetDistanceMode applies G90 (absolute) or G91 (incremental).
func (s *State) SetDistanceMode(g int) {
	switch g {
	case 90:
		s.Absolute = true
	case 91:
		s.Absolute = false
	}
}

// SetPlane applies G17/G18/G19.
func (s *State) SetPlane(g int) {
	switch g {
	case 17:
		s.Plane = PlaneXY
	case 18:
		s.Plane = PlaneXZ
	case 19:
		s.Plane = PlaneYZ
	}
}

// SetMotionMode applies G0/G1/G2/G3.
func (s *State) SetMotionMode(g int) {
	switch g {
	case 0:
		s.Motion = primitive.Rapid
	case 1:
		s.Motion = primitive.Linear
	case 2:
		s.Motion = primitive.ArcCW
	case 3:
		s.Motion = primitive.ArcCCW
	}
}

// SetActiveWCS applies G54..G59 (gcode-54 is the stored index in [0,5]).
func (s *State) SetActiveWCS(gcode int) {
	idx := gcode - 54
	if idx >= 0 && idx <= 5 {
		s.ActiveWCS = idx
	}
}

// UpdateFeedrate applies an F word, scaling by the active units.
func (s *State) UpdateFeedrate(value float64) {
	f := value * s.UnitsScale
	s.Feedrate = &f
}

// WorkOffset returns the offset of the active WCS.
func (s *State) WorkOffset() mgl64.Vec3 {
	return s.WorkOffsets[s.ActiveWCS]
}

// ApplyWorkOffset converts a program-space position to machine space.
func (s *State) ApplyWorkOffset(programSpace mgl64.Vec3) mgl64.Vec3 {
	return programSpace.Add(s.WorkOffset())
}

// ResolveTarget computes a new program-space position from the words
// present on a line: absolute mode overwrites an axis, incremental mode
// adds to it. Axes not present in words are unchanged. Does not mutate
// s.Position; does not apply the WCS offset (spec §4.2).
func (s *State) ResolveTarget(words map[string]float64) mgl64.Vec3 {
	resolved := s.Position
	for i, axis := range [3]string{"X", "Y", "Z"} {
		v, ok := words[axis]
		if !ok {
			continue
		}
		mm := v * s.UnitsScale
		if s.Absolute {
			resolved[i] = mm
		} else {
			resolved[i] += mm
		}
	}
	return resolved
}
