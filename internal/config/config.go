// Package config loads a typed machine profile from a YAML file, with
// CNCSTREAM_* environment variable overrides, using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Machine is the full set of tuning knobs the planner, interpreter, and
// controller need (spec §4.2, §4.4, §4.5, §6).
type Machine struct {
	MaxVelocityMMPerSec  float64    `mapstructure:"max_velocity_mm_per_sec"`
	MaxAccelMMPerSec2    float64    `mapstructure:"max_accel_mm_per_sec2"`
	AxisAccelsMMPerSec2  []float64  `mapstructure:"axis_accels_mm_per_sec2"` // optional, length 3
	JunctionDeviationMM  float64    `mapstructure:"junction_deviation_mm"`
	BufferTimeSec        float64    `mapstructure:"buffer_time_sec"`
	KeepTailMoves        int        `mapstructure:"keep_tail_moves"`
	MaxWindowMoves       int        `mapstructure:"max_window_moves"`

	ArcToleranceMM        float64 `mapstructure:"arc_tolerance_mm"`
	MaxSegmentTimeSec     float64 `mapstructure:"max_segment_time_sec"`
	RapidFeedrateMMPerMin float64 `mapstructure:"rapid_feedrate_mm_per_min"`

	LookaheadSize              int     `mapstructure:"lookahead_size"`
	MaxBufferedExecutorTimeSec float64 `mapstructure:"max_buffered_executor_time_sec"`

	SoftLimits map[string][2]float64 `mapstructure:"soft_limits"` // axis -> [min,max]
}

// Defaults returns a Machine with conservative defaults, used when no
// config file is present.
func Defaults() Machine {
	return Machine{
		MaxVelocityMMPerSec:        200.0,
		MaxAccelMMPerSec2:          1000.0,
		JunctionDeviationMM:        0.05,
		BufferTimeSec:              0.25,
		KeepTailMoves:              2,
		MaxWindowMoves:             200,
		ArcToleranceMM:             0.025,
		MaxSegmentTimeSec:          0.01,
		RapidFeedrateMMPerMin:      3000.0,
		LookaheadSize:              20,
		MaxBufferedExecutorTimeSec: 2.0,
		SoftLimits: map[string][2]float64{
			"X": {0, 300},
			"Y": {0, 300},
			"Z": {-100, 0},
		},
	}
}

// Load reads path (YAML) via viper, applies CNCSTREAM_* environment
// overrides, and validates the result. An empty path loads Defaults()
// with environment overrides only.
func Load(path string) (*Machine, error) {
	v := viper.New()
	m := Defaults()

	v.SetEnvPrefix("CNCSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, m)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func setDefaults(v *viper.Viper, m Machine) {
	v.SetDefault("max_velocity_mm_per_sec", m.MaxVelocityMMPerSec)
	v.SetDefault("max_accel_mm_per_sec2", m.MaxAccelMMPerSec2)
	v.SetDefault("junction_deviation_mm", m.JunctionDeviationMM)
	v.SetDefault("buffer_time_sec", m.BufferTimeSec)
	v.SetDefault("keep_tail_moves", m.KeepTailMoves)
	v.SetDefault("max_window_moves", m.MaxWindowMoves)
	v.SetDefault("arc_tolerance_mm", m.ArcToleranceMM)
	v.SetDefault("max_segment_time_sec", m.MaxSegmentTimeSec)
	v.SetDefault("rapid_feedrate_mm_per_min", m.RapidFeedrateMMPerMin)
	v.SetDefault("lookahead_size", m.LookaheadSize)
	v.SetDefault("max_buffered_executor_time_sec", m.MaxBufferedExecutorTimeSec)
	v.SetDefault("soft_limits", m.SoftLimits)
}

// Validate checks the invariants the planner and interpreter require
// (all required knobs per spec §4.4).
func (m Machine) Validate() error {
	if m.MaxVelocityMMPerSec <= 0 {
		return fmt.Errorf("max_velocity_mm_per_sec must be positive")
	}
	if m.MaxAccelMMPerSec2 <= 0 {
		return fmt.Errorf("max_accel_mm_per_sec2 must be positive")
	}
	if m.JunctionDeviationMM < 0 {
		return fmt.Errorf("junction_deviation_mm must be non-negative")
	}
	if m.BufferTimeSec <= 0 {
		return fmt.Errorf("buffer_time_sec must be positive")
	}
	if m.KeepTailMoves < 1 {
		return fmt.Errorf("keep_tail_moves must be at least 1")
	}
	if m.MaxWindowMoves <= m.KeepTailMoves {
		return fmt.Errorf("max_window_moves must exceed keep_tail_moves")
	}
	if len(m.AxisAccelsMMPerSec2) != 0 && len(m.AxisAccelsMMPerSec2) != 3 {
		return fmt.Errorf("axis_accels_mm_per_sec2 must have exactly 3 entries if set")
	}
	return nil
}
