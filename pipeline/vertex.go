package pipeline

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/stellar/field"
	"github.com/pthm-cable/stellar/morph"
)

// Vertex stage constants
const (
	largeScale = 3.0
	diskScale  = 1.3
	bassPulse  = 0.3

	turbulenceUntil = 0.9 // Individual progress after which turbulence stops
	sprayMinEdge    = 0.05
	dimAlphaBelow   = 0.3
)

var (
	diskTint    = r3.Vec{X: 0.9, Y: 0.95, Z: 1.0}
	subjectTint = r3.Vec{X: 0.5, Y: 0.7, Z: 1.0}
	sprayLift   = r3.Vec{Y: 0.3}
)

// Varyings is the vertex stage output for one particle.
type Varyings struct {
	Position [3]float64 // World space
	Color    [3]float64
	Alpha    float64
	Size     float64 // Point size before perspective
	Twinkle  float64
	Star     field.StarType
	Category field.Category
}

// Vertex resolves particle i for this frame.
func Vertex(i int, m *field.Metadata, cur, pend field.Buffers, u *Uniforms) Varyings {
	seed := float64(m.TwinklePhase[i])
	cat := m.Category[i]
	bright := float64(m.Brightness[i])
	i3 := i * 3
	rnd := vecAt(m.RandomDir, i3)

	// Twinkle speeds up with treble
	speedBoost := 1 + u.Treble*3
	tw := math.Sin(u.Time*(1.5+seed*2)*speedBoost+seed*100)*0.5 + 0.5

	base := lerp(vecAt(cur.Position, i3), vecAt(pend.Position, i3), u.Morph)
	col := lerp(vecAt(cur.Color, i3), vecAt(pend.Color, i3), u.Morph)

	target := base
	if cat == field.Subject {
		// Depth breathing with a bass push along the radial direction
		wiggleAmp := 0.1 + u.Bass*0.2
		wiggle := u.Time*0.8 + seed*10
		target = r3.Add(target, r3.Scale(u.Bass, unit(base)))
		target.Z += math.Sin(wiggle) * wiggleAmp

		// Soft edges drift, more so with louder music
		edgeSoftness := 1.3 - bright
		musicDrift := 1 + u.Level*2
		drift := math.Sin(u.Time*0.4+seed*5) * 0.4 * musicDrift * edgeSoftness
		target = r3.Add(target, r3.Scale(drift, rnd))
	}

	dispersion := 0.0
	if cat == field.Aura {
		dispersion = 1
	}
	startRadius := 8 + dispersion*45
	vortexSpeed := u.Time*(0.1+0.5/(startRadius*0.05+0.1)) + u.Bass*0.02
	startAngle := seed*6.28 + vortexSpeed
	vortexY := -35 + math.Sin(u.Time*1.2+startRadius*0.4)*2
	vortex := r3.Vec{X: math.Cos(startAngle) * startRadius, Y: vortexY, Z: math.Sin(startAngle) * startRadius}

	t := morph.IndividualProgress(u.Formation, seed)

	var pos, outColor r3.Vec
	alpha := 1.0

	switch cat {
	case field.Disk:
		// Radius follows the blended target; angle and height do not
		ringRadius := math.Hypot(base.X, base.Z)
		ringSpeed := u.Time*0.08 + u.Bass*0.02
		angle := math.Atan2(base.Z, base.X) + ringSpeed

		waveLow := math.Sin(angle*6 + u.Time*2)
		waveHigh := math.Sin(angle*20 - u.Time*5)
		equalizer := math.Abs(waveLow)*u.Bass*4 + math.Abs(waveHigh)*u.Treble*1.5

		lift := -30 + u.Formation*5
		y := lift + math.Sin(u.Time*0.8+ringRadius*0.5)*1.5 + equalizer
		pos = r3.Vec{X: math.Cos(angle) * ringRadius, Y: y, Z: math.Sin(angle) * ringRadius}

		outColor = lerp(diskTint, col, u.Formation*0.6)
		outColor = r3.Scale(1.5, r3.Add(outColor, r3.Vec{X: u.Bass * 0.4, Y: u.Treble * 0.2}))

	case field.Aura:
		envRadius := math.Hypot(base.X, base.Z)
		envAngle := math.Atan2(base.Z, base.X) + u.Time*(u.EnvRotation*0.5)
		orbit := r3.Vec{X: math.Cos(envAngle) * envRadius, Y: base.Y, Z: math.Sin(envAngle) * envRadius}

		spawn := r3.Add(vortex, r3.Scale(15+seed*10, rnd))
		pos = lerp(spawn, orbit, t)
		alpha = mix(0, 0.35+tw*0.4, t)
		outColor = col

	default:
		pos = lerp(vortex, target, t)
		sprayAlpha := 1.0

		if t < turbulenceUntil {
			turbulence := (1 - t) * 1.5
			pos.X += math.Sin(u.Time*5+base.Y) * turbulence
			pos.Z += math.Cos(u.Time*4+base.Y) * turbulence
		} else if edge := 1 - smoothstep(0, 0.95, bright); edge > sprayMinEdge {
			// Settled: dim particles spray outward on a repeating cycle
			cycle := fract(u.Time*0.4 + seed*20)
			dir := unit(r3.Add(rnd, sprayLift))
			pos = r3.Add(pos, r3.Scale((0.5+edge*4.5)*cycle*(1+u.Bass*0.8), dir))
			sprayAlpha = 1 - cycle*0.8
		}

		alpha = mix(0, 0.4+tw*0.6, t)
		if bright < dimAlphaBelow {
			alpha *= 0.7
		}
		alpha *= sprayAlpha
		outColor = lerp(subjectTint, col, t)
	}

	size := float64(m.Size[i])
	if m.IsLarge[i] {
		size *= largeScale
	}
	if cat == field.Disk {
		size *= diskScale
	}
	size *= (1 + u.Bass*bassPulse) * (0.85 + tw*0.15)

	return Varyings{
		Position: [3]float64{pos.X, pos.Y, pos.Z},
		Color:    [3]float64{outColor.X, outColor.Y, outColor.Z},
		Alpha:    alpha,
		Size:     size,
		Twinkle:  tw,
		Star:     m.Star[i],
		Category: cat,
	}
}
