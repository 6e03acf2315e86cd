// Package pipeline evaluates the particle field every frame on the CPU.
//
// The vertex stage resolves each particle's position, colour, alpha and size
// from the current and pending buffers; the fragment stage shapes each point
// sprite and grades its colour. The Rasterizer runs both in parallel and
// accumulates the result additively into a float framebuffer.
package pipeline

import (
	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/field"
)

// Uniforms are the per-frame inputs shared by every particle.
type Uniforms struct {
	Time      float64 // Seconds since start
	Formation float64
	Morph     float64

	Bass   float64
	Mid    float64
	Treble float64
	Level  float64

	EnvRotation     float64
	Saturation      float64
	Brightness      float64
	Contrast        float64
	TwinkleStrength float64
}

// NewUniforms assembles uniforms from the frame state.
func NewUniforms(t, formation, morph float64, b audio.Bands, p config.Params) Uniforms {
	return Uniforms{
		Time:            t,
		Formation:       formation,
		Morph:           morph,
		Bass:            b.Bass,
		Mid:             b.Mid,
		Treble:          b.Treble,
		Level:           b.Level,
		EnvRotation:     p.EnvRotation,
		Saturation:      p.Saturation,
		Brightness:      p.Brightness,
		Contrast:        p.Contrast,
		TwinkleStrength: p.TwinkleStrength,
	}
}

// Frame is everything one render needs. Buffers are read only.
type Frame struct {
	Meta     *field.Metadata
	Current  field.Buffers
	Pending  field.Buffers
	Uniforms Uniforms
}
