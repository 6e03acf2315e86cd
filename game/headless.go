package game

import (
	"fmt"
	"image/png"
	"log/slog"
)

// UpdateHeadless advances the simulated clock by one frame, renders into
// the CPU framebuffer and captures it when due.
func (g *Game) UpdateHeadless() {
	now := g.now()
	g.clock.Add(int64(g.dt))

	g.cam.Update()
	g.eng.Tick(now)
	g.eng.Render(g.rast, g.cam)
	g.eng.Present(g.capture)
	g.eng.EndFrame()
	g.frame++
}

// capture writes the framebuffer as frames/frame_NNNNN.png.
func (g *Game) capture() {
	if g.output == nil || g.captureEvery <= 0 || g.frame%g.captureEvery != 0 {
		return
	}
	if err := g.writeFrame(fmt.Sprintf("frame_%05d.png", g.frame)); err != nil {
		slog.Error("failed to write frame", "frame", g.frame, "error", err)
	}
}

func (g *Game) writeFrame(name string) error {
	w, err := g.output.CreateFrame(name)
	if err != nil {
		return err
	}
	if err := png.Encode(w, g.rast.Image()); err != nil {
		w.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return w.Close()
}

// Settled reports whether every queued image and request has finished.
func (g *Game) Settled() bool { return g.eng.Pending() == 0 }
