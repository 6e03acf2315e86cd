package pipeline

import (
	"math"

	"github.com/pthm-cable/stellar/field"
)

// Fragment stage constants
const (
	coreExponent  = 10
	coreGlow      = 1.2
	haloFalloff   = 6.5
	haloStrength  = 0.18
	beamMinAlpha  = 0.6
	beamNarrow    = 20
	beamWide      = 5
	trebleFlash   = 0.2
	diskBassPulse = 0.6
)

// Fragment shades the point-sprite sample at (cx, cy), both in [-1,1] from
// the sprite centre. It returns the graded colour and coverage alpha; ok is
// false outside the unit circle.
func Fragment(v *Varyings, cx, cy float64, u *Uniforms) (rgb [3]float64, alpha float64, ok bool) {
	r := cx*cx + cy*cy
	if r > 1 {
		return rgb, 0, false
	}

	strength := math.Pow(1-r, coreExponent)

	beam := 0.0
	if v.Star == field.StarBeam && v.Alpha > beamMinAlpha {
		ax, ay := math.Abs(cx), math.Abs(cy)
		beam = math.Max(0, 1-ax*beamNarrow)*math.Max(0, 1-ay*beamWide) +
			math.Max(0, 1-ay*beamNarrow)*math.Max(0, 1-ax*beamWide)
	}

	halo := math.Exp(-r*haloFalloff) * haloStrength

	c := v.Color
	hi := math.Max(c[0], math.Max(c[1], c[2]))
	lo := math.Min(c[0], math.Min(c[1], c[2]))
	mid := (hi + lo) * 0.5

	gain := u.Brightness + v.Twinkle*u.TwinkleStrength
	pulse := 1.0
	if v.Category == field.Disk && u.Formation >= 1 {
		pulse += u.Bass * diskBassPulse
	}

	for k := 0; k < 3; k++ {
		saturated := c[k] + (c[k]-mid)*u.Saturation
		graded := (saturated-0.5)*u.Contrast + 0.5
		out := graded*gain + graded*strength*coreGlow + beam + graded*u.Treble*trebleFlash
		rgb[k] = math.Max(0, out*pulse)
	}

	alpha = clamp((strength+halo)*v.Alpha, 0, 1)
	return rgb, alpha, true
}
