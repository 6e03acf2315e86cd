package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestCountdownRequestsAfterStay(t *testing.T) {
	c := New(3, true)
	c.SetSize(3)

	c.Second()
	c.Second()
	if c.TakeRequest() {
		t.Fatal("request raised early")
	}
	if got := c.Remaining(); got != 1 {
		t.Fatalf("Remaining = %d, want 1", got)
	}
	c.Second()
	if c.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", c.Remaining())
	}
	if !c.TakeRequest() {
		t.Fatal("no request after stay elapsed")
	}
	if c.TakeRequest() {
		t.Error("request not cleared by TakeRequest")
	}
}

func TestCountdownInert(t *testing.T) {
	tests := []struct {
		name  string
		auto  bool
		busy  bool
		size  int
		ticks int
	}{
		{"auto off", false, false, 5, 10},
		{"busy", true, true, 5, 10},
		{"single entry", true, false, 1, 10},
		{"empty gallery", true, false, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(3, tt.auto)
			c.SetSize(tt.size)
			c.SetBusy(tt.busy)
			for i := 0; i < tt.ticks; i++ {
				c.Second()
			}
			if c.TakeRequest() {
				t.Error("inert countdown raised a request")
			}
			if c.Remaining() != 3 {
				t.Errorf("Remaining = %d, want 3", c.Remaining())
			}
		})
	}
}

func TestCountdownResetAndStay(t *testing.T) {
	c := New(5, true)
	c.SetSize(2)
	c.Second()
	c.Second()
	c.Reset()
	if c.Remaining() != 5 {
		t.Errorf("Remaining after Reset = %d, want 5", c.Remaining())
	}
	c.SetStay(2)
	if c.Remaining() != 2 {
		t.Errorf("Remaining after SetStay = %d, want 2", c.Remaining())
	}
	c.SetStay(0)
	c.Reset()
	if got := c.Snapshot().Stay; got != 1 {
		t.Errorf("Stay = %d, want clamp to 1", got)
	}
}

func TestNextWraps(t *testing.T) {
	for _, k := range []int{2, 3, 5} {
		for start := 0; start < k; start++ {
			idx := start
			for step := 1; step <= 2*k; step++ {
				idx = Next(idx, k)
				if want := (start + step) % k; idx != want {
					t.Fatalf("k=%d start=%d step=%d: got %d, want %d", k, start, step, idx, want)
				}
			}
		}
	}
	if Next(4, 0) != 0 {
		t.Error("Next on empty gallery should be 0")
	}
}

func TestCycleSequence(t *testing.T) {
	const k = 4
	c := New(1, true)
	c.SetSize(k)

	active := 0
	var seq []int
	for i := 0; i < 2*k; i++ {
		c.Second()
		if c.TakeRequest() {
			active = Next(active, k)
			seq = append(seq, active)
			c.Reset()
		}
	}
	want := []int{1, 2, 3, 0, 1, 2, 3, 0}
	if len(seq) != len(want) {
		t.Fatalf("sequence = %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", seq, want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	c := New(3, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
