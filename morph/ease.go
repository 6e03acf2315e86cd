// Package morph owns the dual-buffer blend between particle fields and the
// formation progress that carries a freshly loaded field out of the vortex.
package morph

import (
	"math"
	"time"
)

// Stagger constants for individual progress.
const (
	staggerSeed  = 0.3
	staggerRange = 0.7
)

// Phase is the coarse formation state.
type Phase uint8

const (
	Forming Phase = iota
	Settled
)

func (p Phase) String() string {
	if p == Settled {
		return "settled"
	}
	return "forming"
}

// EaseInOutCubic maps t in [0,1] onto a cubic ease-in-out curve.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// FormationAt returns global formation progress for the time elapsed since a
// load: 0 during hold, linear across ramp, then 1.
func FormationAt(elapsed, hold, ramp time.Duration) float64 {
	if elapsed < hold {
		return 0
	}
	if ramp <= 0 || elapsed >= hold+ramp {
		return 1
	}
	return float64(elapsed-hold) / float64(ramp)
}

// PhaseOf classifies a formation value.
func PhaseOf(formation float64) Phase {
	if formation >= 1 {
		return Settled
	}
	return Forming
}

// IndividualProgress staggers global formation by a per-particle seed in
// [0,1) and eases the result.
func IndividualProgress(formation, seed float64) float64 {
	p := (formation - seed*staggerSeed) / staggerRange
	return EaseInOutCubic(clamp01(p))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
