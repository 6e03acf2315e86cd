package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/media"
)

const maxQuery = 64

// SearchPanel is a music search box with a clickable result list.
type SearchPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	query    []rune
	focused  bool
	visible  bool
}

// NewSearchPanel creates a hidden search panel.
func NewSearchPanel(x, y, width int32) *SearchPanel {
	return &SearchPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (s *SearchPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Toggle switches panel visibility. Hiding it drops keyboard focus.
func (s *SearchPanel) Toggle() bool {
	s.visible = !s.visible
	if !s.visible {
		s.focused = false
	}
	return s.visible
}

// Focused reports whether the panel is capturing keystrokes.
func (s *SearchPanel) Focused() bool { return s.visible && s.focused }

// Query returns the typed text.
func (s *SearchPanel) Query() string { return string(s.query) }

// Type applies one frame of keyboard input: printable runes append, and
// backspace removes the last rune. It returns true when enter was pressed.
func (s *SearchPanel) Type(chars []rune, backspace, enter bool) bool {
	for _, c := range chars {
		if c >= 32 && len(s.query) < maxQuery {
			s.query = append(s.query, c)
		}
	}
	if backspace && len(s.query) > 0 {
		s.query = s.query[:len(s.query)-1]
	}
	return enter && len(s.query) > 0
}

// Draw renders the panel, reads typed input while focused, and starts a
// search or a track on click.
func (s *SearchPanel) Draw(ctl Controller, results []media.Track) {
	if !s.visible {
		return
	}
	r := s.renderer
	t := r.Theme

	rows := int32(len(results))
	if rows > 10 {
		rows = 10
	}
	r.DrawPanel(s.x, s.y, s.width, 70+rows*26)

	x := float32(s.x + t.Padding)
	y := float32(s.y + t.Padding)
	inner := float32(s.width - t.Padding*2)

	box := rl.Rectangle{X: x, Y: y, Width: inner - 70, Height: 24}
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		s.focused = rl.CheckCollisionPointRec(rl.GetMousePosition(), box)
	}
	if s.focused {
		var chars []rune
		for c := rl.GetCharPressed(); c != 0; c = rl.GetCharPressed() {
			chars = append(chars, c)
		}
		if s.Type(chars, rl.IsKeyPressed(rl.KeyBackspace), rl.IsKeyPressed(rl.KeyEnter)) {
			ctl.Search(s.Query())
		}
	}

	border := t.PanelBorder
	if s.focused {
		border = t.Highlight
	}
	rl.DrawRectangleRec(box, t.BarBg)
	rl.DrawRectangleLinesEx(box, 1, border)
	text := s.Query()
	if text == "" && !s.focused {
		rl.DrawText("search music", int32(box.X)+6, int32(box.Y)+6, t.FontSize, rl.Gray)
	} else {
		rl.DrawText(text, int32(box.X)+6, int32(box.Y)+6, t.FontSize, t.ValueColor)
	}
	if gui.Button(rl.Rectangle{X: x + inner - 62, Y: y, Width: 62, Height: 24}, "Search") && len(s.query) > 0 {
		ctl.Search(s.Query())
	}
	y += 34

	for i := 0; i < int(rows); i++ {
		label := truncate(TrackLabel(results[i]), 48)
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: 22}, label) {
			ctl.PlayTrack(results[i])
		}
		y += 26
	}
}
