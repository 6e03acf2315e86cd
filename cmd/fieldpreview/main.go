// Field preview tool - shows one image's particle field with sliders for
// formation, morph and band levels. With -out it renders a single PNG
// without opening a window.
//
// Usage: go run ./cmd/fieldpreview -image photo.jpg [-out frame.png]
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"math/rand"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/camera"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/field"
	"github.com/pthm-cable/stellar/pipeline"
	"github.com/pthm-cable/stellar/renderer"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewW     = 800
	panelWidth   = windowWidth - previewW - 30
)

// previewState is what the sliders control.
type previewState struct {
	Formation float32
	Morph     float32
	Bass      float32
	Mid       float32
	Treble    float32
	Time      float32
}

func main() {
	imagePath := flag.String("image", "", "Image to synthesize")
	outPath := flag.String("out", "", "Write one frame as PNG and exit")
	formation := flag.Float64("formation", 1, "Formation for -out")
	width := flag.Int("width", 800, "Frame width for -out")
	height := flag.Int("height", 600, "Frame height for -out")
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: fieldpreview -image <file> [-out frame.png]")
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	f, err := field.NewSynthesizer(cfg.Field).DecodeFile(*imagePath)
	if err != nil {
		slog.Error("synthesis failed", "error", err)
		os.Exit(1)
	}
	slog.Info("synthesized", "name", f.Name, "average", f.HexColor())

	frame := pipeline.Frame{
		Meta:    field.NewMetadata(rand.New(rand.NewSource(1))),
		Current: f.Buffers,
		Pending: f.Buffers,
	}

	if *outPath != "" {
		if err := writeFrame(cfg, &frame, *formation, *width, *height, *outPath); err != nil {
			slog.Error("failed to write frame", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.InitWindow(windowWidth, windowHeight, "Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cam := camera.New(cfg.Camera, previewW, windowHeight)
	rast := pipeline.NewRasterizer(cfg.Render, previewW/2, windowHeight/2)
	defer rast.Close()
	presenter := renderer.NewPresenter(cfg.Bloom)
	presenter.Init()
	defer presenter.Unload()

	state := previewState{Formation: 1}
	animating := true

	for !rl.WindowShouldClose() {
		if animating {
			state.Time += rl.GetFrameTime()
		}
		if rl.IsMouseButtonDown(rl.MouseRightButton) {
			d := rl.GetMouseDelta()
			cam.Rotate(-float64(d.X)*0.005, -float64(d.Y)*0.005)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			cam.Zoom(1 - float64(wheel)*0.1)
		}
		cam.Update()

		bands := audio.Bands{Bass: float64(state.Bass), Mid: float64(state.Mid), Treble: float64(state.Treble)}
		bands.Level = (bands.Bass + bands.Mid + bands.Treble) / 3
		frame.Uniforms = pipeline.NewUniforms(float64(state.Time), float64(state.Formation), float64(state.Morph), bands, cfg.Params)
		rast.Render(&frame, cam)
		presenter.Upload(rast)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		presenter.Draw(previewW, windowHeight)

		panelX := float32(previewW + 20)
		panelY := float32(10)
		rl.DrawText("Field Preview", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35
		rl.DrawText(fmt.Sprintf("%s  %s  visible %d", f.Name, f.HexColor(), rast.Visible()), int32(panelX), int32(panelY), 12, rl.Gray)
		panelY += 25

		panelY = slider(panelX, panelY, "Formation (vortex to image)", &state.Formation, 0, 1)
		panelY = slider(panelX, panelY, "Morph", &state.Morph, 0, 1)
		panelY = slider(panelX, panelY, "Bass", &state.Bass, 0, 1)
		panelY = slider(panelX, panelY, "Mid", &state.Mid, 0, 1)
		panelY = slider(panelX, panelY, "Treble", &state.Treble, 0, 1)
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset View") {
			cam.Reset()
		}

		rl.DrawText("Right drag to orbit, wheel to zoom", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		rl.EndDrawing()
	}
}

// slider draws a labelled slider bound to v and returns the next Y.
func slider(x, y float32, label string, v *float32, lo, hi float32) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	y += 18
	*v = gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: float32(panelWidth - 80), Height: 20}, "", "", *v, lo, hi)
	rl.DrawText(fmt.Sprintf("%.2f", *v), int32(x+float32(panelWidth-70)), int32(y+2), 16, rl.DarkGray)
	return y + 35
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

// writeFrame renders one frame with CPU bloom and encodes it as PNG.
func writeFrame(cfg *config.Config, frame *pipeline.Frame, formation float64, w, h int, path string) error {
	cam := camera.New(cfg.Camera, float64(w), float64(h))
	rast := pipeline.NewRasterizer(cfg.Render, w, h)
	defer rast.Close()

	frame.Uniforms = pipeline.NewUniforms(0, formation, 0, audio.Bands{}, cfg.Params)
	rast.Render(frame, cam)
	rast.Bloom(cfg.Bloom)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, rast.Image()); err != nil {
		out.Close()
		return err
	}
	slog.Info("frame written", "path", path, "visible", rast.Visible())
	return out.Close()
}
