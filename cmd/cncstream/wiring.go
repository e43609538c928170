package main

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisns/cnc-motion-core/internal/config"
	"github.com/chrisns/cnc-motion-core/internal/planner"
)

// buildPlannerConfig adapts the flat YAML/env machine profile into the
// planner's own Config, converting the optional 3-entry axis-accel
// slice into a mgl64.Vec3.
func buildPlannerConfig(m config.Machine) planner.Config {
	cfg := planner.Config{
		MaxVelocity:       m.MaxVelocityMMPerSec,
		MaxAccel:          m.MaxAccelMMPerSec2,
		JunctionDeviation: m.JunctionDeviationMM,
		BufferTime:        m.BufferTimeSec,
		KeepTailMoves:     m.KeepTailMoves,
		MaxWindowMoves:    m.MaxWindowMoves,
	}
	if len(m.AxisAccelsMMPerSec2) == 3 {
		v := mgl64.Vec3{m.AxisAccelsMMPerSec2[0], m.AxisAccelsMMPerSec2[1], m.AxisAccelsMMPerSec2[2]}
		cfg.AxisAccels = &v
	}
	return cfg
}
