// Package engine drives the visualizer one frame at a time.
//
// A single frame thread calls Tick, Render, Present and EndFrame in that
// order. Tick drains finished background work, samples the audio deck and
// advances the morph state; nothing else mutates the particle buffers.
// Synthesis runs on a Pool, and asset and media I/O run in goroutines that
// post their results back to the frame thread.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/camera"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/field"
	"github.com/pthm-cable/stellar/gallery"
	"github.com/pthm-cable/stellar/media"
	"github.com/pthm-cable/stellar/morph"
	"github.com/pthm-cable/stellar/pipeline"
	"github.com/pthm-cable/stellar/scheduler"
	"github.com/pthm-cable/stellar/telemetry"
)

// Options holds the collaborators of an Engine. Every field is optional.
type Options struct {
	Assets AssetProvider
	Media  MediaProvider
	Stream StreamOpener

	Output   *telemetry.OutputManager
	LogStats bool

	// FrameCountdown steps the cycle countdown from the frame clock instead
	// of a wall-clock ticker. Headless runs with simulated time use it.
	FrameCountdown bool

	// GPUBloom leaves the glow to the presenter's shader.
	GPUBloom bool
}

// Engine holds the complete visualizer state.
type Engine struct {
	cfg    *config.Config
	params config.Params

	meta      *field.Metadata
	state     *morph.State
	gallery   *gallery.Gallery
	countdown *scheduler.Countdown
	sampler   *audio.Sampler
	deck      *audio.Deck
	pool      *Pool
	notices   *notices

	assets     AssetProvider
	media      MediaProvider
	openStream StreamOpener

	ctx    context.Context
	cancel context.CancelFunc
	events chan func(now time.Time)

	batches   map[uint64]*batch
	nextBatch uint64
	inflight  int

	// Index of the displayed gallery entry, -1 when nothing is loaded
	active int
	bands  audio.Bands
	frame  pipeline.Frame

	start          time.Time
	last           time.Time
	frameSec       float64
	frameCountdown bool
	lastSecond     time.Time
	gpuBloom       bool

	track    *media.Track
	lyrics   media.Lyrics
	trackSeq uint64
	results  []media.Track

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	logStats  bool
	visible   int
}

// New creates an engine. Call Start before the first Tick.
func New(cfg *config.Config, opts Options) *Engine {
	seed := cfg.Field.MetadataSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	params := cfg.Params.Clamped()

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:            cfg,
		params:         params,
		meta:           field.NewMetadata(rand.New(rand.NewSource(seed))),
		state:          morph.New(cfg.Derived.FormationHold, cfg.Derived.FormationRamp),
		gallery:        gallery.New(),
		countdown:      scheduler.New(params.StaySeconds(), cfg.Cycle.Auto),
		sampler:        audio.NewSampler(cfg.Audio),
		deck:           &audio.Deck{},
		pool:           NewPool(field.NewSynthesizer(cfg.Field), cfg.Cycle.QueueSize),
		notices:        newNotices(time.Duration(cfg.Cycle.NoticeSecs) * time.Second),
		assets:         opts.Assets,
		media:          opts.Media,
		openStream:     opts.Stream,
		ctx:            ctx,
		cancel:         cancel,
		events:         make(chan func(time.Time), 64),
		batches:        make(map[uint64]*batch),
		active:         -1,
		frameCountdown: opts.FrameCountdown,
		gpuBloom:       opts.GPUBloom,
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:         opts.Output,
		logStats:       opts.LogStats,
	}
	e.frame.Meta = e.meta
	return e
}

// Start launches the synthesis workers and, unless the countdown follows
// the frame clock, the one-second ticker. Both stop when ctx is done or on
// Close.
func (e *Engine) Start(ctx context.Context) {
	e.cancel()
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.pool.Start(e.ctx, e.cfg.Cycle.Workers)
	if !e.frameCountdown {
		go e.countdown.Run(e.ctx)
	}
}

// Close stops background work and releases the audio source.
func (e *Engine) Close() error {
	e.cancel()
	e.pool.Stop()
	return e.deck.Close()
}

// Tick runs the first half of a frame: drain background results, sample
// audio, then advance the scheduler and morph state. now must not go
// backwards between calls.
func (e *Engine) Tick(now time.Time) {
	if e.start.IsZero() {
		e.start = now
		e.lastSecond = now
	}
	e.frameSec = 0
	if !e.last.IsZero() {
		e.frameSec = now.Sub(e.last).Seconds()
	}
	e.last = now

	e.perf.BeginFrame()

	e.perf.StartPhase(telemetry.PhaseDrain)
	e.drain(now)

	e.perf.StartPhase(telemetry.PhaseAudio)
	e.bands = e.sampler.Sample(e.deck)

	e.perf.StartPhase(telemetry.PhaseState)
	e.step(now)
}

// step advances everything driven by time.
func (e *Engine) step(now time.Time) {
	e.notices.expire(now)

	if e.frameCountdown {
		for now.Sub(e.lastSecond) >= time.Second {
			e.countdown.Second()
			e.lastSecond = e.lastSecond.Add(time.Second)
		}
	}

	if e.countdown.TakeRequest() && e.active >= 0 {
		next := scheduler.Next(e.active, e.gallery.Len())
		if next != e.active {
			e.transition(next, telemetry.ReasonAuto, now)
		}
	}

	e.state.Advance(now)
	e.countdown.SetBusy(e.state.InFlight())

	e.frame.Current = e.state.Current
	e.frame.Pending = e.state.Pending
	e.frame.Uniforms = pipeline.NewUniforms(
		now.Sub(e.start).Seconds(),
		e.state.Formation(),
		e.state.Morph(),
		e.bands,
		e.params,
	)
}

// drain applies every finished background result without blocking.
func (e *Engine) drain(now time.Time) {
	for {
		select {
		case r := <-e.pool.Results():
			e.accept(r, now)
		case ev := <-e.events:
			e.inflight--
			ev(now)
		default:
			return
		}
	}
}

// post hands a result to the frame thread. Called from I/O goroutines.
func (e *Engine) post(fn func(now time.Time)) {
	select {
	case e.events <- fn:
	case <-e.ctx.Done():
	}
}

// goAsync runs fn off the frame thread. fn must deliver exactly one post.
func (e *Engine) goAsync(fn func(ctx context.Context)) {
	e.inflight++
	go fn(e.ctx)
}

// Render runs the vertex and raster stages of the current frame. With no
// field loaded it clears the framebuffer.
func (e *Engine) Render(r *pipeline.Rasterizer, cam *camera.Orbit) {
	e.perf.StartPhase(telemetry.PhaseVertex)
	r.Vertices(&e.frame, cam)

	e.perf.StartPhase(telemetry.PhaseRaster)
	r.Raster(&e.frame.Uniforms)
	if !e.gpuBloom {
		r.Bloom(e.cfg.Bloom)
	}
	e.visible = r.Visible()
}

// Present times fn as the present phase.
func (e *Engine) Present(fn func()) {
	e.perf.StartPhase(telemetry.PhasePresent)
	fn()
}

// EndFrame closes the frame's timing and feeds telemetry.
func (e *Engine) EndFrame() {
	e.perf.EndFrame()
	e.perf.RecordFrame()

	e.collector.Record(telemetry.FrameSample{
		Time:      e.elapsed(),
		FrameSec:  e.frameSec,
		Bass:      e.bands.Bass,
		Mid:       e.bands.Mid,
		Treble:    e.bands.Treble,
		Level:     e.bands.Level,
		Formation: e.state.Formation(),
		Morph:     e.state.Morph(),
		Active:    e.active,
		Gallery:   e.gallery.Len(),
		Visible:   e.visible,
	})
	e.flushTelemetry()
}

func (e *Engine) elapsed() float64 {
	if e.start.IsZero() {
		return 0
	}
	return e.last.Sub(e.start).Seconds()
}

// Frame returns the frame built by the last Tick. It is valid until the
// next Tick.
func (e *Engine) Frame() *pipeline.Frame { return &e.frame }

// Params returns the live parameters.
func (e *Engine) Params() config.Params { return e.params }

// SetParams clamps and applies p. The new stay duration takes effect at the
// next countdown reset.
func (e *Engine) SetParams(p config.Params) {
	e.params = p.Clamped()
	e.countdown.SetStay(e.params.StaySeconds())
}

// ResetParams restores the default grading parameters and stops automatic
// cycling.
func (e *Engine) ResetParams() {
	p := config.DefaultParams()
	p.Stay = e.params.Stay
	p.MorphDuration = e.params.MorphDuration
	e.SetParams(p)
	e.SetAuto(false)
}

// SetAuto toggles automatic cycling.
func (e *Engine) SetAuto(auto bool) {
	e.countdown.SetAuto(auto)
	if auto {
		e.countdown.Reset()
	}
}

// Notify shows a message.
func (e *Engine) Notify(text string) {
	e.notices.add(e.last, LevelInfo, text)
}

// Status is a read-only view for the UI.
type Status struct {
	Active    int
	Entries   []field.Info
	Formation float64
	Morph     float64
	Phase     morph.Phase
	InFlight  bool
	Countdown scheduler.Snapshot
	Bands     audio.Bands
	Playing   bool
	Track     *media.Track
	Lyric     string
	Notices   []Notice
	Pending   int
	Results   []media.Track
}

// Status returns the current view.
func (e *Engine) Status() Status {
	return Status{
		Active:    e.active,
		Entries:   e.gallery.Infos(),
		Formation: e.state.Formation(),
		Morph:     e.state.Morph(),
		Phase:     e.state.Phase(),
		InFlight:  e.state.InFlight(),
		Countdown: e.countdown.Snapshot(),
		Bands:     e.bands,
		Playing:   e.deck.Playing(),
		Track:     e.track,
		Lyric:     e.CurrentLyric(),
		Notices:   append([]Notice(nil), e.notices.items...),
		Pending:   e.Pending(),
		Results:   e.results,
	}
}

// Pending returns the number of images and I/O requests still outstanding.
func (e *Engine) Pending() int {
	n := e.inflight
	for _, b := range e.batches {
		n += len(b.slots) - b.next
	}
	return n
}
