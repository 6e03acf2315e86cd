package pipeline

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// vecAt reads the xyz triple starting at i3.
func vecAt(s []float32, i3 int) r3.Vec {
	return r3.Vec{X: float64(s[i3]), Y: float64(s[i3+1]), Z: float64(s[i3+2])}
}

func lerp(a, b r3.Vec, t float64) r3.Vec { return r3.Add(a, r3.Scale(t, r3.Sub(b, a))) }

// unit is r3.Unit except that the zero vector stays zero.
func unit(v r3.Vec) r3.Vec {
	if v == (r3.Vec{}) {
		return v
	}
	return r3.Unit(v)
}

func mix(a, b, t float64) float64 { return a + (b-a)*t }

func fract(x float64) float64 { return x - math.Floor(x) }

func smoothstep(e0, e1, x float64) float64 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
