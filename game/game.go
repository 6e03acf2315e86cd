// Package game wires the engine to a raylib window or to a headless frame
// loop with a simulated clock.
package game

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/camera"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/engine"
	"github.com/pthm-cable/stellar/pipeline"
	"github.com/pthm-cable/stellar/renderer"
	"github.com/pthm-cable/stellar/telemetry"
	"github.com/pthm-cable/stellar/ui"
)

// Options configures a Game.
type Options struct {
	Headless bool
	LogStats bool

	// Images are loaded as the initial gallery. When empty, the asset
	// store's contents are loaded instead.
	Images []string
	// AudioPath is an MP3 file attached at start.
	AudioPath string

	Assets     engine.AssetProvider
	Media      engine.MediaProvider
	HTTPClient *http.Client
	Output     *telemetry.OutputManager

	// CaptureEvery writes every Nth headless frame as a PNG (0 = never).
	CaptureEvery int
	// FrameRate is the simulated headless frame rate.
	FrameRate int
}

// Game holds the application state around the engine.
type Game struct {
	cfg  *config.Config
	eng  *engine.Engine
	cam  *camera.Orbit
	rast *pipeline.Rasterizer

	// Windowed only
	presenter *renderer.Presenter
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	strip     *ui.GalleryStrip
	search    *ui.SearchPanel
	keys      *ui.Keymap
	showHUD   bool
	dragging  bool

	audioOut   *audio.Output
	httpClient *http.Client
	output     *telemetry.OutputManager

	headless     bool
	hasStore     bool
	clock        atomic.Int64 // simulated unix nanoseconds, headless only
	dt           time.Duration
	captureEvery int
	frame        int

	screenWidth  float64
	screenHeight float64
}

// NewGameWithOptions creates a game and starts the engine's background
// work. In windowed mode the raylib window must already exist.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	g := &Game{
		cfg:          cfg,
		headless:     opts.Headless,
		hasStore:     opts.Assets != nil,
		audioOut:     &audio.Output{},
		httpClient:   opts.HTTPClient,
		output:       opts.Output,
		captureEvery: opts.CaptureEvery,
		screenWidth:  float64(cfg.Screen.Width),
		screenHeight: float64(cfg.Screen.Height),
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: cfg.Derived.Timeout}
	}

	rate := opts.FrameRate
	if rate <= 0 {
		rate = cfg.Screen.TargetFPS
	}
	if rate <= 0 {
		rate = 60
	}
	g.dt = time.Second / time.Duration(rate)
	g.clock.Store(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())

	g.eng = engine.New(cfg, engine.Options{
		Assets:         opts.Assets,
		Media:          opts.Media,
		Stream:         g.openStream,
		Output:         opts.Output,
		LogStats:       opts.LogStats,
		FrameCountdown: opts.Headless,
		GPUBloom:       !opts.Headless,
	})

	g.cam = camera.New(cfg.Camera, g.screenWidth, g.screenHeight)
	w, h := g.rasterSize()
	g.rast = pipeline.NewRasterizer(cfg.Render, w, h)

	if !g.headless {
		g.presenter = renderer.NewPresenter(cfg.Bloom)
		g.presenter.Init()
		g.hud = ui.NewHUD()
		g.controls = ui.NewControlsPanel(int32(g.screenWidth)-250, 10, 240)
		g.strip = ui.NewGalleryStrip()
		g.search = ui.NewSearchPanel(int32(g.screenWidth)-570, 10, 310)
		g.keys = ui.NewKeymap()
		g.showHUD = true
	}

	g.eng.Start(context.Background())

	if len(opts.Images) > 0 {
		g.eng.LoadFiles(opts.Images)
	} else {
		g.eng.LoadAssets()
	}
	if opts.AudioPath != "" {
		if err := g.attachFile(opts.AudioPath); err != nil {
			g.Unload()
			return nil, err
		}
	}
	return g, nil
}

// now returns the frame time: the wall clock in a window, the simulated
// clock headless.
func (g *Game) now() time.Time {
	if g.headless {
		return time.Unix(0, g.clock.Load()).UTC()
	}
	return time.Now()
}

func (g *Game) rasterSize() (int, int) {
	scale := g.cfg.Render.RenderScale
	if scale <= 0 {
		scale = 1
	}
	return int(g.screenWidth * scale), int(g.screenHeight * scale)
}

// newSource starts playback of MP3 bytes: through the audio device in a
// window, as a silent clip on the simulated clock headless.
func (g *Game) newSource(data []byte) (audio.Source, error) {
	a := audio.NewAnalyser(g.cfg.Audio)
	if g.headless {
		clip, err := audio.DecodeClip(data, a, g.now, g.cfg.Audio.Loop)
		if err != nil {
			return nil, err
		}
		return clip, nil
	}
	p, err := g.audioOut.Play(data, a, g.cfg.Audio.Volume, g.cfg.Audio.Loop)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// openStream fetches a track URL for the engine.
func (g *Game) openStream(ctx context.Context, url string) (audio.Source, error) {
	data, err := audio.Fetch(ctx, g.httpClient, url)
	if err != nil {
		return nil, err
	}
	return g.newSource(data)
}

func (g *Game) attachFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	src, err := g.newSource(data)
	if err != nil {
		return fmt.Errorf("starting audio %s: %w", filepath.Base(path), err)
	}
	g.eng.Attach(src)
	slog.Info("audio attached", "file", filepath.Base(path))
	return nil
}

// importFiles adds dropped images: uploaded to the asset store when there
// is one, read in place otherwise.
func (g *Game) importFiles(paths []string) {
	if !g.hasStore {
		g.eng.ExpandFiles(paths)
		return
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			g.eng.Notify(fmt.Sprintf("could not read %s", filepath.Base(p)))
			slog.Warn("dropped file unreadable", "path", p, "error", err)
			continue
		}
		g.eng.Upload(filepath.Base(p), bytes.NewReader(data))
	}
}

// Engine returns the underlying engine.
func (g *Game) Engine() *engine.Engine { return g.eng }

// Frame returns the number of completed frames.
func (g *Game) Frame() int { return g.frame }

// Unload stops background work and frees GPU resources.
func (g *Game) Unload() {
	if err := g.eng.Close(); err != nil {
		slog.Error("failed to close audio", "error", err)
	}
	g.rast.Close()
	if g.presenter != nil {
		g.presenter.Unload()
	}
	if g.strip != nil {
		g.strip.Unload()
	}
}
