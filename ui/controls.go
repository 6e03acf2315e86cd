package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/engine"
	"github.com/pthm-cable/stellar/media"
)

// Controller is the part of the engine the panels drive.
type Controller interface {
	Params() config.Params
	SetParams(p config.Params)
	SetAuto(auto bool)
	ResetParams()
	Reset()
	Select(i int) error
	Delete(i int)
	Search(keywords string)
	PlayTrack(t media.Track)
	TogglePlay() bool
	Notify(text string)
	Status() engine.Status
}

// ControlsPanel renders the right-side parameter panel.
type ControlsPanel struct {
	renderer *Renderer
	params   []ParamDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		params:   ParamDescriptors(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether the point lies over the panel, so camera drags
// can ignore it.
func (c *ControlsPanel) Contains(p rl.Vector2) bool {
	if !c.visible {
		return false
	}
	return rl.CheckCollisionPointRec(p, c.bounds())
}

func (c *ControlsPanel) height() int32 {
	t := c.renderer.Theme
	rows := int32(len(c.params))*2 + 4
	return rows*t.LineHeight + t.Padding*2 + 30
}

func (c *ControlsPanel) bounds() rl.Rectangle {
	return rl.Rectangle{X: float32(c.x), Y: float32(c.y), Width: float32(c.width), Height: float32(c.height())}
}

// Draw renders the panel and applies any edits to ctl.
func (c *ControlsPanel) Draw(ctl Controller, st engine.Status) {
	if !c.visible {
		return
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + t.Padding)
	y := float32(c.y + t.Padding)
	inner := float32(c.width - t.Padding*2)

	rl.DrawText("Parameters", int32(x), int32(y), 16, rl.White)
	y += float32(t.LineHeight) + 4

	p := ctl.Params()
	changed := false
	for _, d := range c.params {
		cur := d.Get(&p)
		rl.DrawText(d.Label, int32(x), int32(y), t.FontSize, t.LabelColor)
		rl.DrawText(fmt.Sprintf(d.Format, cur), int32(x+inner-40), int32(y), t.FontSize, t.ValueColor)
		y += float32(t.LineHeight) - 4

		v := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: inner - 8, Height: 12},
			"", "",
			float32(cur), float32(d.Range.Min), float32(d.Range.Max),
		)
		if float64(v) != float64(float32(cur)) {
			d.Set(&p, float64(v))
			changed = true
		}
		y += float32(t.LineHeight) + 4
	}
	if changed {
		ctl.SetParams(p)
	}

	auto := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, "Auto cycle", st.Countdown.Auto)
	if auto != st.Countdown.Auto {
		ctl.SetAuto(auto)
	}
	y += float32(t.LineHeight) + 8

	half := (inner - 8) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Reset params") {
		ctl.ResetParams()
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 24}, "Clear all") {
		ctl.Reset()
	}
	y += 32

	playLabel := "Play"
	if st.Playing {
		playLabel = "Pause"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, playLabel) {
		ctl.TogglePlay()
	}
}
