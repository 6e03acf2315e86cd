package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Update runs input and the simulation half of a windowed frame.
func (g *Game) Update() {
	g.handleInput()
	g.cam.Update()
	g.eng.Tick(time.Now())
	g.eng.Render(g.rast, g.cam)
}

// Draw presents the frame and the UI, then closes the frame's telemetry.
func (g *Game) Draw() {
	g.eng.Present(func() {
		g.presenter.Upload(g.rast)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		g.presenter.Draw(int32(g.screenWidth), int32(g.screenHeight))
		g.drawUI()
		rl.EndDrawing()
	})
	g.eng.EndFrame()
	g.frame++
}

func (g *Game) drawUI() {
	st := g.eng.Status()
	w, h := int32(g.screenWidth), int32(g.screenHeight)

	g.strip.Draw(g.eng, st.Entries, st.Active, w, h)
	g.hud.DrawNowPlaying(st, w)
	g.hud.DrawNotices(st.Notices, h)

	if !g.showHUD {
		return
	}
	g.hud.Draw(st, rl.GetFPS())
	g.controls.Draw(g.eng, st)
	g.search.Draw(g.eng, st.Results)
	g.hud.DrawControls(h, g.keys.Legend())
}
