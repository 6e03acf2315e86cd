package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/assets"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/game"
	"github.com/pthm-cable/stellar/media"
	"github.com/pthm-cable/stellar/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window, on a simulated clock")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and frames")
	images := flag.String("images", "", "Comma-separated image files to load (empty = asset store)")
	audioPath := flag.String("audio", "", "MP3 file to play")
	assetDir := flag.String("asset-dir", "", "Asset store directory (empty = use config)")
	mediaURL := flag.String("media-url", "", "Music API base URL (empty = use config)")
	seed := flag.Int64("seed", 0, "Particle metadata seed (0 = use config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	captureEvery := flag.Int("capture-every", 0, "Headless: write every Nth frame as PNG (0 = never)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *seed != 0 {
		cfg.Field.MetadataSeed = *seed
	}
	if *assetDir != "" {
		cfg.Assets.Dir = *assetDir
	}
	if *mediaURL != "" {
		cfg.Media.BaseURL = *mediaURL
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	opts := game.Options{
		Headless:     *headless,
		LogStats:     *logStats,
		AudioPath:    *audioPath,
		Output:       output,
		CaptureEvery: *captureEvery,
	}
	if *images != "" {
		for _, p := range strings.Split(*images, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.Images = append(opts.Images, p)
			}
		}
	}

	store, err := assets.New(cfg.Assets)
	if err != nil {
		slog.Warn("asset store unavailable", "dir", cfg.Assets.Dir, "error", err)
	} else {
		defer store.Close()
		opts.Assets = store
	}

	httpClient := &http.Client{Timeout: cfg.Derived.Timeout}
	opts.HTTPClient = httpClient
	if cfg.Media.BaseURL != "" {
		opts.Media = media.NewClient(httpClient, cfg.Media)
	}

	if *headless {
		g, err := game.NewGameWithOptions(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless run",
			"images", len(opts.Images),
			"max_frames", *maxFrames,
			"output_dir", output.Dir(),
		)

		for {
			g.UpdateHeadless()

			if *maxFrames > 0 && g.Frame() >= *maxFrames {
				slog.Info("max frames reached", "frame", g.Frame())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Stellar")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	if store != nil {
		slog.Info("asset store ready", "dir", filepath.Clean(store.Dir()))
	}

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxFrames > 0 && g.Frame() >= *maxFrames {
			break
		}
	}
}
