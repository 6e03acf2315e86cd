// Package telemetry records frame performance, per-window visual statistics
// and gallery transitions, and writes them as CSV.
package telemetry

// FrameSample is what the engine reports after each frame.
type FrameSample struct {
	Time      float64 // Seconds since start
	FrameSec  float64 // Wall time of this frame
	Bass      float64
	Mid       float64
	Treble    float64
	Level     float64
	Formation float64
	Morph     float64
	Active    int
	Gallery   int
	Visible   int
}

// Collector accumulates frame samples and produces WindowStats.
type Collector struct {
	windowSec   float64
	windowStart float64
	window      int32

	frameMs              []float64
	bass, mid, treb, lvl []float64
	last                 FrameSample
}

// NewCollector creates a collector with windows of windowSec seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// Record adds a frame to the current window.
func (c *Collector) Record(s FrameSample) {
	c.frameMs = append(c.frameMs, s.FrameSec*1000)
	c.bass = append(c.bass, s.Bass)
	c.mid = append(c.mid, s.Mid)
	c.treb = append(c.treb, s.Treble)
	c.lvl = append(c.lvl, s.Level)
	c.last = s
}

// ShouldFlush reports whether the window ending at now is complete.
func (c *Collector) ShouldFlush(now float64) bool {
	return len(c.frameMs) > 0 && now-c.windowStart >= c.windowSec
}

// Flush produces the stats of the current window and starts the next one.
func (c *Collector) Flush(now float64) WindowStats {
	q := Quantiles(c.frameMs, 0.5, 0.9)
	s := WindowStats{
		Window:     c.window,
		TimeSec:    now,
		Frames:     len(c.frameMs),
		FrameP50Ms: q[0],
		FrameP90Ms: q[1],
		Formation:  c.last.Formation,
		Morph:      c.last.Morph,
		Active:     c.last.Active,
		Gallery:    c.last.Gallery,
		Visible:    c.last.Visible,
	}
	if elapsed := now - c.windowStart; elapsed > 0 {
		s.FPS = float64(s.Frames) / elapsed
	}
	s.BassMean, _ = MeanStd(c.bass)
	s.MidMean, _ = MeanStd(c.mid)
	s.TrebleMean, _ = MeanStd(c.treb)
	s.LevelMean, s.LevelStd = MeanStd(c.lvl)

	c.window++
	c.windowStart = now
	c.frameMs = c.frameMs[:0]
	c.bass = c.bass[:0]
	c.mid = c.mid[:0]
	c.treb = c.treb[:0]
	c.lvl = c.lvl[:0]
	return s
}
