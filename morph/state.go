package morph

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/stellar/field"
)

var (
	// ErrMorphInFlight is returned when a retarget arrives before the
	// running ramp has completed.
	ErrMorphInFlight = errors.New("morph: transition already in progress")
	// ErrNotLoaded is returned when retargeting before any field was loaded.
	ErrNotLoaded = errors.New("morph: no field loaded")
)

// Ramp is an eased 0 to 1 progression sampled from the frame clock.
type Ramp struct {
	Start    time.Time
	Duration time.Duration
}

// Linear returns un-eased progress at now, clamped to [0,1].
func (r Ramp) Linear(now time.Time) float64 {
	if r.Duration <= 0 {
		return 1
	}
	return clamp01(float64(now.Sub(r.Start)) / float64(r.Duration))
}

// Value returns eased progress at now.
func (r Ramp) Value(now time.Time) float64 {
	return EaseInOutCubic(r.Linear(now))
}

// State holds the current and pending buffers plus formation and morph
// progress. It is driven by a single frame thread and is not safe for
// concurrent use.
type State struct {
	Current field.Buffers
	Pending field.Buffers

	formation float64
	morph     float64
	loaded    bool
	loadedAt  time.Time
	hold      time.Duration
	rampDur   time.Duration
	ramp      *Ramp
}

// New creates an empty state with the given formation timing.
func New(hold, ramp time.Duration) *State {
	return &State{hold: hold, rampDur: ramp}
}

// Load installs a fresh field. Both slots receive their own copy and
// formation restarts from the vortex.
func (s *State) Load(b field.Buffers, now time.Time) {
	s.Current = b.Clone()
	s.Pending = b.Clone()
	s.formation = 0
	s.morph = 0
	s.ramp = nil
	s.loaded = true
	s.loadedAt = now
}

// Reset returns the state to its pre-load condition.
func (s *State) Reset() {
	*s = State{hold: s.hold, rampDur: s.rampDur}
}

// Loaded reports whether a field is installed.
func (s *State) Loaded() bool { return s.loaded }

// Formation returns global formation progress.
func (s *State) Formation() float64 { return s.formation }

// Morph returns the current blend factor between Current and Pending.
func (s *State) Morph() float64 { return s.morph }

// Phase returns the formation phase.
func (s *State) Phase() Phase { return PhaseOf(s.formation) }

// InFlight reports whether a morph ramp is running.
func (s *State) InFlight() bool { return s.ramp != nil }

// Promote copies Pending into Current in place and zeroes morph.
func (s *State) Promote() {
	if !s.loaded {
		return
	}
	copyInto(s.Current.Position, s.Pending.Position)
	copyInto(s.Current.Color, s.Pending.Color)
	s.morph = 0
}

// Retarget writes b into Pending and starts an eased ramp of duration d.
// Callers promote first; Transition does both.
func (s *State) Retarget(b field.Buffers, d time.Duration, now time.Time) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.ramp != nil {
		return ErrMorphInFlight
	}
	copyInto(s.Pending.Position, b.Position)
	copyInto(s.Pending.Color, b.Color)
	s.morph = 0
	s.ramp = &Ramp{Start: now, Duration: d}
	return nil
}

// Transition promotes the reached target and retargets to b.
func (s *State) Transition(b field.Buffers, d time.Duration, now time.Time) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.ramp != nil {
		return ErrMorphInFlight
	}
	s.Promote()
	return s.Retarget(b, d, now)
}

// Finish completes any running ramp immediately.
func (s *State) Finish() {
	if s.ramp == nil {
		return
	}
	s.ramp = nil
	s.Promote()
}

// Advance samples formation and morph at now. It reports true on the frame a
// ramp completes; the reached target is promoted so Current holds it and
// morph reads 0.
func (s *State) Advance(now time.Time) bool {
	if !s.loaded {
		return false
	}
	s.formation = FormationAt(now.Sub(s.loadedAt), s.hold, s.rampDur)

	if s.ramp == nil {
		return false
	}
	if s.ramp.Linear(now) >= 1 {
		s.ramp = nil
		s.Promote()
		return true
	}
	s.morph = s.ramp.Value(now)
	return false
}

func copyInto(dst, src []float32) {
	n := min(len(dst), len(src))
	if n == 0 {
		return
	}
	blas32.Copy(
		blas32.Vector{N: n, Inc: 1, Data: src},
		blas32.Vector{N: n, Inc: 1, Data: dst},
	)
}
