package telemetry

import (
	"testing"
	"time"
)

// steppedClock advances by the queued steps on each call.
type steppedClock struct {
	t     time.Time
	steps []time.Duration
}

func (c *steppedClock) now() time.Time {
	if len(c.steps) > 0 {
		c.t = c.t.Add(c.steps[0])
		c.steps = c.steps[1:]
	}
	return c.t
}

func TestPerfCollector_PhaseBreakdown(t *testing.T) {
	pc := NewPerfCollector(10)
	clock := &steppedClock{t: time.Unix(0, 0)}
	pc.now = clock.now

	for i := 0; i < 4; i++ {
		// BeginFrame, StartPhase(vertex), StartPhase(raster), EndFrame
		clock.steps = append(clock.steps, 0, 0, time.Millisecond, 3*time.Millisecond)
		pc.BeginFrame()
		pc.StartPhase(PhaseVertex)
		pc.StartPhase(PhaseRaster)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgWork != 4*time.Millisecond {
		t.Errorf("AvgWork = %v, want 4ms", stats.AvgWork)
	}
	if got := stats.PhaseAvg[PhaseVertex]; got != time.Millisecond {
		t.Errorf("vertex avg = %v, want 1ms", got)
	}
	if got := stats.PhasePct[PhaseRaster]; got != 75 {
		t.Errorf("raster pct = %v, want 75", got)
	}
	if stats.Throughput != 250 {
		t.Errorf("Throughput = %v, want 250", stats.Throughput)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	clock := &steppedClock{t: time.Unix(0, 0)}
	pc.now = clock.now

	for _, d := range []time.Duration{10, 10, 10, 1, 1, 1} {
		clock.steps = append(clock.steps, 0, d*time.Millisecond)
		pc.BeginFrame()
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.MaxWork != time.Millisecond || stats.MinWork != time.Millisecond {
		t.Errorf("old samples not evicted: min %v max %v", stats.MinWork, stats.MaxWork)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgWork != 0 {
		t.Error("expected zero average for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	clock := &steppedClock{t: time.Unix(0, 0), steps: []time.Duration{0, 20 * time.Millisecond}}
	pc.now = clock.now

	pc.RecordFrame()
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration != 20*time.Millisecond {
		t.Errorf("FrameDuration = %v, want 20ms", stats.FrameDuration)
	}
	if stats.FPS != 50 {
		t.Errorf("FPS = %v, want 50", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgWork:  2 * time.Millisecond,
		PhasePct: map[string]float64{PhaseVertex: 40, PhaseRaster: 55},
	}
	row := s.ToCSV(3)
	if row.Window != 3 || row.AvgWorkUS != 2000 {
		t.Errorf("row = %+v", row)
	}
	if row.VertexPct != 40 || row.RasterPct != 55 || row.AudioPct != 0 {
		t.Errorf("phase pct = %v/%v/%v", row.VertexPct, row.RasterPct, row.AudioPct)
	}
}
