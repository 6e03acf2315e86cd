package config

import (
	"math"
	"time"
)

// Range is the inclusive numeric range a user-facing parameter is clamped to.
type Range struct {
	Min, Max float64
}

// Clamp limits v to the range. NaN maps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Documented ranges for the runtime parameters.
var (
	SaturationRange      = Range{Min: -1, Max: 3}
	BrightnessRange      = Range{Min: -1, Max: 4}
	ContrastRange        = Range{Min: -1, Max: 4}
	TwinkleStrengthRange = Range{Min: -1, Max: 3}
	EnvRotationRange     = Range{Min: 0, Max: 1}
	StayRange            = Range{Min: 1, Max: 60}
	MorphDurationRange   = Range{Min: 0.5, Max: 30}
)

// Params are the user-facing parameters read every frame. The UI mutates a
// live copy; consumers always go through Clamped so out-of-range edits never
// reach the pipeline or scheduler.
type Params struct {
	Saturation      float64 `yaml:"saturation"`
	Brightness      float64 `yaml:"brightness"`
	Contrast        float64 `yaml:"contrast"`
	TwinkleStrength float64 `yaml:"twinkle_strength"`
	EnvRotation     float64 `yaml:"env_rotation"`
	Stay            float64 `yaml:"stay"`           // Seconds between automatic transitions
	MorphDuration   float64 `yaml:"morph_duration"` // Seconds per morph ramp
}

// DefaultParams returns the parameter values the reset button restores.
func DefaultParams() Params {
	return Params{
		Saturation:      0.5,
		Brightness:      1.1,
		Contrast:        1.2,
		TwinkleStrength: 0.3,
		EnvRotation:     0.1,
		Stay:            3,
		MorphDuration:   6,
	}
}

// Clamped returns a copy with every field limited to its documented range.
func (p Params) Clamped() Params {
	return Params{
		Saturation:      SaturationRange.Clamp(p.Saturation),
		Brightness:      BrightnessRange.Clamp(p.Brightness),
		Contrast:        ContrastRange.Clamp(p.Contrast),
		TwinkleStrength: TwinkleStrengthRange.Clamp(p.TwinkleStrength),
		EnvRotation:     EnvRotationRange.Clamp(p.EnvRotation),
		Stay:            StayRange.Clamp(p.Stay),
		MorphDuration:   MorphDurationRange.Clamp(p.MorphDuration),
	}
}

// StaySeconds returns the countdown length as whole seconds.
func (p Params) StaySeconds() int {
	return int(StayRange.Clamp(p.Stay) + 0.5)
}

// MorphDurationTime returns the morph ramp length.
func (p Params) MorphDurationTime() time.Duration {
	return time.Duration(MorphDurationRange.Clamp(p.MorphDuration) * float64(time.Second))
}
