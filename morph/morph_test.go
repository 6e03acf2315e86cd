package morph

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/stellar/field"
)

const (
	hold = 2 * time.Second
	ramp = 7 * time.Second
)

func filled(v float32) field.Buffers {
	b := field.NewBuffers()
	for i := range b.Position {
		b.Position[i] = v + float32(i%7)
		b.Color[i] = v / 10
	}
	return b
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

func TestFormationAt(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{1999 * time.Millisecond, 0},
		{2 * time.Second, 0},
		{5500 * time.Millisecond, 0.5},
		{9 * time.Second, 1},
		{time.Minute, 1},
	}
	for _, tt := range tests {
		if got := FormationAt(tt.elapsed, hold, ramp); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FormationAt(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestEaseInOutCubic(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{0.25, 0.0625},
		{0.5, 0.5},
		{0.75, 0.9375},
		{1, 1},
	}
	for _, tt := range tests {
		if got := EaseInOutCubic(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EaseInOutCubic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIndividualProgress(t *testing.T) {
	// Higher seeds arrive later
	if a, b := IndividualProgress(0.5, 0.1), IndividualProgress(0.5, 0.9); a <= b {
		t.Errorf("seed 0.1 progress %v should exceed seed 0.9 progress %v", a, b)
	}
	// Every seed has arrived at full formation
	for _, seed := range []float64{0, 0.5, 0.999} {
		if got := IndividualProgress(1, seed); got != 1 {
			t.Errorf("IndividualProgress(1, %v) = %v, want 1", seed, got)
		}
	}
	if got := IndividualProgress(0, 0); got != 0 {
		t.Errorf("IndividualProgress(0, 0) = %v, want 0", got)
	}
}

func TestPromoteIsBitExact(t *testing.T) {
	t0 := time.Unix(0, 0)
	s := New(hold, ramp)
	s.Load(filled(1), t0)

	b := filled(42)
	if err := s.Retarget(b, time.Second, t0); err != nil {
		t.Fatal(err)
	}
	s.Advance(t0.Add(500 * time.Millisecond))
	if s.Morph() == 0 {
		t.Fatal("morph did not advance")
	}

	pending := s.Pending.Clone()
	s.Promote()

	if !equal(s.Current.Position, pending.Position) || !equal(s.Current.Color, pending.Color) {
		t.Error("Current differs from pre-promotion Pending")
	}
	if s.Morph() != 0 {
		t.Errorf("Morph after promote = %v, want 0", s.Morph())
	}
}

func TestRetargetRejectedInFlight(t *testing.T) {
	t0 := time.Unix(0, 0)
	s := New(hold, ramp)
	s.Load(filled(1), t0)

	if err := s.Transition(filled(2), 6*time.Second, t0); err != nil {
		t.Fatal(err)
	}
	before := s.Pending.Clone()

	err := s.Transition(filled(3), 6*time.Second, t0.Add(time.Second))
	if !errors.Is(err, ErrMorphInFlight) {
		t.Fatalf("err = %v, want ErrMorphInFlight", err)
	}
	if !equal(s.Pending.Position, before.Position) {
		t.Error("rejected retarget modified Pending")
	}
}

func TestRetargetBeforeLoad(t *testing.T) {
	s := New(hold, ramp)
	if err := s.Transition(filled(1), time.Second, time.Unix(0, 0)); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
}

// Load A, settle, retarget B: morph ramps up and Current ends as B.
func TestLoadSettleRetargetScenario(t *testing.T) {
	t0 := time.Unix(100, 0)
	a, b := filled(1), filled(5)

	s := New(hold, ramp)
	s.Load(a, t0)
	if s.Advance(t0); s.Formation() != 0 || s.Phase() != Forming {
		t.Fatalf("formation at load = %v (%v)", s.Formation(), s.Phase())
	}

	settled := t0.Add(10 * time.Second)
	s.Advance(settled)
	if s.Formation() != 1 || s.Phase() != Settled {
		t.Fatalf("formation after window = %v, want 1", s.Formation())
	}

	dur := 6 * time.Second
	if err := s.Transition(b, dur, settled); err != nil {
		t.Fatal(err)
	}

	last := 0.0
	for ms := 500; ms < 6000; ms += 500 {
		if s.Advance(settled.Add(time.Duration(ms) * time.Millisecond)) {
			t.Fatalf("ramp completed early at %dms", ms)
		}
		if s.Morph() < last || s.Morph() > 1 {
			t.Fatalf("morph %v at %dms not monotonic in [0,1]", s.Morph(), ms)
		}
		last = s.Morph()
	}
	if !s.InFlight() {
		t.Fatal("ramp finished before its duration")
	}

	if !s.Advance(settled.Add(dur)) {
		t.Fatal("Advance did not report completion")
	}
	if !equal(s.Current.Position, b.Position) || !equal(s.Current.Color, b.Color) {
		t.Error("Current does not equal B after the ramp")
	}
	if s.Morph() != 0 || s.InFlight() {
		t.Errorf("morph = %v inFlight = %v after completion", s.Morph(), s.InFlight())
	}
	// Formation is untouched by a morph
	if s.Formation() != 1 {
		t.Errorf("formation = %v, want 1", s.Formation())
	}
}

func TestLoadCopiesBuffers(t *testing.T) {
	b := filled(1)
	s := New(hold, ramp)
	s.Load(b, time.Unix(0, 0))
	b.Position[0] = -99
	if s.Current.Position[0] == -99 || s.Pending.Position[0] == -99 {
		t.Error("Load aliases caller buffers")
	}
}

func TestFinishAndReset(t *testing.T) {
	t0 := time.Unix(0, 0)
	s := New(hold, ramp)
	s.Load(filled(1), t0)
	_ = s.Transition(filled(9), time.Hour, t0)

	s.Finish()
	if s.InFlight() || s.Current.Position[0] != 9 {
		t.Errorf("Finish left inFlight=%v current[0]=%v", s.InFlight(), s.Current.Position[0])
	}

	s.Reset()
	if s.Loaded() || s.Current.Position != nil {
		t.Error("Reset kept a loaded field")
	}
	if s.Advance(t0.Add(time.Minute)) || s.Formation() != 0 {
		t.Error("Advance on reset state changed formation")
	}
}
