package game

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/morph"
	"github.com/pthm-cable/stellar/ui"
)

// Orbit speed in radians per pixel of mouse drag.
const dragSpeed = 0.005

// handleInput processes keyboard, mouse and file-drop input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsFileDropped() {
		paths := rl.LoadDroppedFiles()
		rl.UnloadDroppedFiles()
		g.importFiles(paths)
	}

	// Typed text belongs to the search box.
	if !g.search.Focused() {
		for _, id := range g.keys.Pressed(func(key int32) bool { return rl.IsKeyPressed(key) }) {
			g.handleAction(id)
		}
	}

	g.handleCameraInput()
}

func (g *Game) handleAction(id ui.ActionID) {
	st := g.eng.Status()
	switch id {
	case ui.ActionPanel:
		g.controls.Toggle()
	case ui.ActionSearch:
		g.search.Toggle()
	case ui.ActionPlay:
		g.eng.TogglePlay()
	case ui.ActionNext, ui.ActionPrev:
		n := len(st.Entries)
		if n == 0 || st.Active < 0 {
			return
		}
		step := 1
		if id == ui.ActionPrev {
			step = n - 1
		}
		if err := g.eng.Select((st.Active + step) % n); errors.Is(err, morph.ErrMorphInFlight) {
			g.eng.Notify("transition in progress")
		}
	case ui.ActionDelete:
		if st.Active >= 0 {
			g.eng.Delete(st.Active)
		}
	case ui.ActionAuto:
		g.eng.SetAuto(!st.Countdown.Auto)
	case ui.ActionHUD:
		g.showHUD = !g.showHUD
	case ui.ActionBloom:
		bloom := g.cfg.Bloom
		bloom.Enabled = !bloom.Enabled
		g.cfg.Bloom = bloom
		g.presenter.SetBloom(bloom)
	case ui.ActionResetView:
		g.cam.Reset()
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float64(rl.GetScreenWidth())
	h := float64(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.cam.Resize(w, h)
	g.rast.Resize(g.rasterSize())
	g.controls.SetPosition(int32(w)-250, 10)
	g.search.SetPosition(int32(w)-570, 10)
}

// handleCameraInput orbits on left drag and dollies on the wheel. Drags that
// start over a panel or thumbnail are left to the UI.
func (g *Game) handleCameraInput() {
	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		g.dragging = !g.controls.Contains(mouse) && !g.strip.Contains(mouse)
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		g.dragging = false
	}
	if g.dragging {
		d := rl.GetMouseDelta()
		g.cam.Rotate(-float64(d.X)*dragSpeed, -float64(d.Y)*dragSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.cam.Zoom(1 - float64(wheel)*0.1)
	}
}
