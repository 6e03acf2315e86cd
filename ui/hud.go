package ui

import (
	"fmt"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/engine"
	"github.com/pthm-cable/stellar/media"
	"github.com/pthm-cable/stellar/scheduler"
)

// HUD renders the heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the status block in the top-left corner.
func (h *HUD) Draw(st engine.Status, fps int32) {
	r := h.renderer
	x, y := int32(10), int32(10)
	width := int32(260)

	r.DrawPanel(x-4, y-4, width, 190)

	rl.DrawText("Stellar", x, y, 20, rl.White)
	y += 26

	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", fps))
	y = r.DrawLabelValue(x, y, "Showing", ActiveLabel(st))
	y = r.DrawLabelValue(x, y, "Phase", fmt.Sprintf("%s  morph %.2f", st.Phase, st.Morph))
	y = r.DrawLabelValue(x, y, "Next", CountdownLabel(st.Countdown))
	if st.Pending > 0 {
		y = r.DrawLabelValue(x, y, "Loading", fmt.Sprintf("%d pending", st.Pending))
	}

	y += 4
	y = r.DrawBar(x, y, "Bass", float32(st.Bands.Bass), width-8)
	y = r.DrawBar(x, y, "Mid", float32(st.Bands.Mid), width-8)
	r.DrawBar(x, y, "Treble", float32(st.Bands.Treble), width-8)
}

// DrawNowPlaying renders the track title and the current lyric line,
// centred near the top of the screen.
func (h *HUD) DrawNowPlaying(st engine.Status, screenW int32) {
	if st.Track == nil {
		return
	}
	title := TrackLabel(*st.Track)
	if !st.Playing {
		title += "  (paused)"
	}
	tw := rl.MeasureText(title, 14)
	rl.DrawText(title, (screenW-tw)/2, 14, 14, h.renderer.Theme.LabelColor)

	if st.Lyric != "" {
		lw := rl.MeasureText(st.Lyric, 22)
		rl.DrawText(st.Lyric, (screenW-lw)/2, 36, 22, rl.White)
	}
}

// DrawNotices stacks the live notices above the gallery strip.
func (h *HUD) DrawNotices(notices []engine.Notice, screenH int32) {
	t := h.renderer.Theme
	y := screenH - 110 - int32(len(notices))*t.LineHeight
	for _, n := range notices {
		col := t.ValueColor
		if n.Level == engine.LevelError {
			col = t.ErrorColor
		}
		rl.DrawText(n.Text, 12, y, t.FontSize+2, col)
		y += t.LineHeight
	}
}

// DrawControls renders the key legend at the bottom-left of the screen.
func (h *HUD) DrawControls(screenH int32, controls string) {
	rl.DrawText(controls, 10, screenH-20, 12, rl.Gray)
}

// ActiveLabel names the displayed entry, or says what to do when there is none.
func ActiveLabel(st engine.Status) string {
	if st.Active < 0 || st.Active >= len(st.Entries) {
		return "drop images to begin"
	}
	name := truncate(st.Entries[st.Active].Name, 22)
	return fmt.Sprintf("%s (%d/%d)", name, st.Active+1, len(st.Entries))
}

// CountdownLabel describes the cycle countdown.
func CountdownLabel(s scheduler.Snapshot) string {
	switch {
	case !s.Auto:
		return "manual"
	case s.Size < 2:
		return "auto (one image)"
	case s.Busy:
		return "morphing"
	default:
		return fmt.Sprintf("%ds of %ds", s.Remaining, s.Stay)
	}
}

// TrackLabel formats a track as "Name - Artist, Artist (m:ss)".
func TrackLabel(t media.Track) string {
	var b strings.Builder
	b.WriteString(t.Name)
	if len(t.Artists) > 0 {
		b.WriteString(" - ")
		b.WriteString(strings.Join(t.Artists, ", "))
	}
	if t.Duration > 0 {
		d := t.Duration.Round(time.Second)
		fmt.Fprintf(&b, " (%d:%02d)", int(d.Minutes()), int(d.Seconds())%60)
	}
	return b.String()
}
