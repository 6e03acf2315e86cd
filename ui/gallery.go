package ui

import (
	"errors"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/field"
	"github.com/pthm-cable/stellar/morph"
)

const (
	thumbSize = 64
	thumbGap  = 8
	stripPad  = 12
)

// StripLayout returns the thumbnail cells for n entries, centred along the
// bottom edge of the screen. Rows wrap when the screen is too narrow.
func StripLayout(n int, screenW, screenH int32) []rl.Rectangle {
	if n <= 0 {
		return nil
	}
	perRow := int((screenW - stripPad*2 + thumbGap) / (thumbSize + thumbGap))
	if perRow < 1 {
		perRow = 1
	}
	rows := (n + perRow - 1) / perRow

	cells := make([]rl.Rectangle, n)
	for i := range cells {
		row, col := i/perRow, i%perRow
		inRow := perRow
		if row == rows-1 {
			inRow = n - row*perRow
		}
		rowW := int32(inRow)*(thumbSize+thumbGap) - thumbGap
		x := (screenW-rowW)/2 + int32(col)*(thumbSize+thumbGap)
		y := screenH - stripPad - int32(rows-row)*(thumbSize+thumbGap) + thumbGap
		cells[i] = rl.Rectangle{X: float32(x), Y: float32(y), Width: thumbSize, Height: thumbSize}
	}
	return cells
}

// HitTest returns the index of the cell containing p, or -1.
func HitTest(cells []rl.Rectangle, p rl.Vector2) int {
	for i, c := range cells {
		if p.X >= c.X && p.X < c.X+c.Width && p.Y >= c.Y && p.Y < c.Y+c.Height {
			return i
		}
	}
	return -1
}

// GalleryStrip draws a thumbnail per gallery entry. Clicking a thumbnail
// selects it; the corner button deletes it.
type GalleryStrip struct {
	renderer *Renderer
	textures map[string]rl.Texture2D
	cells    []rl.Rectangle
}

// NewGalleryStrip creates an empty strip. Textures are created on first
// draw, after the window exists.
func NewGalleryStrip() *GalleryStrip {
	return &GalleryStrip{
		renderer: NewRenderer(),
		textures: make(map[string]rl.Texture2D),
	}
}

// Contains reports whether p lies over a thumbnail.
func (g *GalleryStrip) Contains(p rl.Vector2) bool {
	return HitTest(g.cells, p) >= 0
}

// Draw renders the strip and handles clicks.
func (g *GalleryStrip) Draw(ctl Controller, entries []field.Info, active int, screenW, screenH int32) {
	g.sync(entries)
	g.cells = StripLayout(len(entries), screenW, screenH)

	t := g.renderer.Theme
	for i, info := range entries {
		c := g.cells[i]
		if tex, ok := g.textures[info.Name]; ok {
			src := rl.Rectangle{X: 0, Y: 0, Width: float32(tex.Width), Height: float32(tex.Height)}
			rl.DrawTexturePro(tex, src, c, rl.Vector2{}, 0, rl.White)
		} else {
			rl.DrawRectangleRec(c, averageColor(info))
		}

		border := t.PanelBorder
		if i == active {
			border = t.Highlight
		}
		rl.DrawRectangleLinesEx(c, 2, border)
		g.renderer.DrawSwatch(int32(c.X)+2, int32(c.Y+c.Height)-10, 8, averageColor(info))

		del := rl.Rectangle{X: c.X + c.Width - 16, Y: c.Y, Width: 16, Height: 16}
		if gui.Button(del, "x") {
			ctl.Delete(i)
			continue
		}
		if rl.IsMouseButtonReleased(rl.MouseLeftButton) && rl.CheckCollisionPointRec(rl.GetMousePosition(), c) {
			if err := ctl.Select(i); err != nil {
				if errors.Is(err, morph.ErrMorphInFlight) {
					ctl.Notify("transition in progress")
				} else {
					ctl.Notify(err.Error())
				}
			}
		}
	}
}

// sync uploads thumbnails for new entries and frees those that left.
func (g *GalleryStrip) sync(entries []field.Info) {
	live := make(map[string]bool, len(entries))
	for _, info := range entries {
		live[info.Name] = true
		if _, ok := g.textures[info.Name]; ok || info.Thumbnail == nil {
			continue
		}
		img := rl.NewImageFromImage(info.Thumbnail)
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		g.textures[info.Name] = tex
	}
	for name, tex := range g.textures {
		if !live[name] {
			rl.UnloadTexture(tex)
			delete(g.textures, name)
		}
	}
}

// Unload frees every thumbnail texture.
func (g *GalleryStrip) Unload() {
	for name, tex := range g.textures {
		rl.UnloadTexture(tex)
		delete(g.textures, name)
	}
}

func averageColor(info field.Info) rl.Color {
	return rl.Color{
		R: uint8(clamp01(info.AverageColor[0]) * 255),
		G: uint8(clamp01(info.AverageColor[1]) * 255),
		B: uint8(clamp01(info.AverageColor[2]) * 255),
		A: 255,
	}
}
