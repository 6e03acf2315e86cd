package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame.
const (
	PhaseDrain   = "drain"   // async synthesis/asset/media results
	PhaseAudio   = "audio"   // spectrum sample and band smoothing
	PhaseState   = "state"   // scheduler, formation and morph advance
	PhaseVertex  = "vertex"  // per-particle vertex stage + projection
	PhaseRaster  = "raster"  // fragment accumulation and bloom
	PhasePresent = "present" // texture upload, UI, swap
)

// Phases lists every phase in frame order.
var Phases = []string{PhaseDrain, PhaseAudio, PhaseState, PhaseVertex, PhaseRaster, PhasePresent}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	Work   time.Duration
	Phases map[string]time.Duration
}

// PerfCollector tracks frame timings over a rolling window.
type PerfCollector struct {
	samples []PerfSample
	next    int
	count   int

	phases     map[string]time.Duration
	frameStart time.Time
	phaseStart time.Time
	phase      string

	lastPresent time.Time
	presentGap  time.Duration

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		phases:  make(map[string]time.Duration),
		now:     time.Now,
	}
}

// BeginFrame starts timing a new frame.
func (p *PerfCollector) BeginFrame() {
	p.frameStart = p.now()
	p.phases = make(map[string]time.Duration, len(Phases))
	p.phase = ""
}

// StartPhase closes the running phase, if any, and opens the next.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndFrame closes the last phase and records the sample.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	p.closePhase(now)
	p.phase = ""

	p.samples[p.next] = PerfSample{Work: now.Sub(p.frameStart), Phases: p.phases}
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// RecordFrame records wall time between presented frames.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastPresent.IsZero() {
		p.presentGap = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgWork time.Duration
	MinWork time.Duration
	MaxWork time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of AvgWork

	// Frames per second the work alone would allow
	Throughput float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.presentGap,
	}
	if p.presentGap > 0 {
		s.FPS = float64(time.Second) / float64(p.presentGap)
	}
	if p.count == 0 {
		return s
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i := 0; i < p.count; i++ {
		sample := p.samples[i]
		total += sample.Work
		if i == 0 || sample.Work < s.MinWork {
			s.MinWork = sample.Work
		}
		s.MaxWork = max(s.MaxWork, sample.Work)
		for phase, d := range sample.Phases {
			sums[phase] += d
		}
	}

	n := time.Duration(p.count)
	s.AvgWork = total / n
	for phase, sum := range sums {
		s.PhaseAvg[phase] = sum / n
		if s.AvgWork > 0 {
			s.PhasePct[phase] = float64(s.PhaseAvg[phase]) / float64(s.AvgWork) * 100
		}
	}
	if s.AvgWork > 0 {
		s.Throughput = float64(time.Second) / float64(s.AvgWork)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_work_us", s.AvgWork.Microseconds(),
		"max_work_us", s.MaxWork.Microseconds(),
		"throughput", int(s.Throughput),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_work_us", s.AvgWork.Microseconds()),
		slog.Int64("min_work_us", s.MinWork.Microseconds()),
		slog.Int64("max_work_us", s.MaxWork.Microseconds()),
		slog.Float64("throughput", s.Throughput),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Window     int32   `csv:"window"`
	AvgWorkUS  int64   `csv:"avg_work_us"`
	MinWorkUS  int64   `csv:"min_work_us"`
	MaxWorkUS  int64   `csv:"max_work_us"`
	Throughput float64 `csv:"throughput"`
	FPS        float64 `csv:"fps"`
	DrainPct   float64 `csv:"drain_pct"`
	AudioPct   float64 `csv:"audio_pct"`
	StatePct   float64 `csv:"state_pct"`
	VertexPct  float64 `csv:"vertex_pct"`
	RasterPct  float64 `csv:"raster_pct"`
	PresentPct float64 `csv:"present_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(window int32) PerfStatsCSV {
	return PerfStatsCSV{
		Window:     window,
		AvgWorkUS:  s.AvgWork.Microseconds(),
		MinWorkUS:  s.MinWork.Microseconds(),
		MaxWorkUS:  s.MaxWork.Microseconds(),
		Throughput: s.Throughput,
		FPS:        s.FPS,
		DrainPct:   s.PhasePct[PhaseDrain],
		AudioPct:   s.PhasePct[PhaseAudio],
		StatePct:   s.PhasePct[PhaseState],
		VertexPct:  s.PhasePct[PhaseVertex],
		RasterPct:  s.PhasePct[PhaseRaster],
		PresentPct: s.PhasePct[PhasePresent],
	}
}
