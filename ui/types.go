// Package ui draws the control panel, gallery strip and HUD over the
// particle field. Parameter sliders are described by data so the panel
// layout follows config.Params instead of hard-coding each field.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/config"
)

// ParamDescriptor defines how one parameter is shown and edited.
type ParamDescriptor struct {
	ID     string       // Unique identifier for the field
	Label  string       // Display label
	Format string       // Printf format for the value
	Range  config.Range // Slider bounds
	Get    func(p *config.Params) float64
	Set    func(p *config.Params, v float64)
}

// ParamDescriptors returns the sliders of the control panel in order.
func ParamDescriptors() []ParamDescriptor {
	return []ParamDescriptor{
		{
			ID: "saturation", Label: "Saturation", Format: "%.2f", Range: config.SaturationRange,
			Get: func(p *config.Params) float64 { return p.Saturation },
			Set: func(p *config.Params, v float64) { p.Saturation = v },
		},
		{
			ID: "brightness", Label: "Brightness", Format: "%.2f", Range: config.BrightnessRange,
			Get: func(p *config.Params) float64 { return p.Brightness },
			Set: func(p *config.Params, v float64) { p.Brightness = v },
		},
		{
			ID: "contrast", Label: "Contrast", Format: "%.2f", Range: config.ContrastRange,
			Get: func(p *config.Params) float64 { return p.Contrast },
			Set: func(p *config.Params, v float64) { p.Contrast = v },
		},
		{
			ID: "twinkle", Label: "Twinkle", Format: "%.2f", Range: config.TwinkleStrengthRange,
			Get: func(p *config.Params) float64 { return p.TwinkleStrength },
			Set: func(p *config.Params, v float64) { p.TwinkleStrength = v },
		},
		{
			ID: "rotation", Label: "Rotation", Format: "%.2f", Range: config.EnvRotationRange,
			Get: func(p *config.Params) float64 { return p.EnvRotation },
			Set: func(p *config.Params, v float64) { p.EnvRotation = v },
		},
		{
			ID: "stay", Label: "Stay (s)", Format: "%.0f", Range: config.StayRange,
			Get: func(p *config.Params) float64 { return p.Stay },
			Set: func(p *config.Params, v float64) { p.Stay = v },
		},
		{
			ID: "morph", Label: "Morph (s)", Format: "%.1f", Range: config.MorphDurationRange,
			Get: func(p *config.Params) float64 { return p.MorphDuration },
			Set: func(p *config.Params, v float64) { p.MorphDuration = v },
		},
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Highlight      rl.Color
	ErrorColor     rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 12, G: 14, B: 22, A: 210},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 90, A: 255},
		SectionHeader:  rl.Color{R: 250, G: 220, B: 130, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 48, A: 255},
		BarFill:        rl.Color{R: 120, G: 160, B: 230, A: 255},
		Highlight:      rl.Color{R: 250, G: 220, B: 130, A: 255},
		ErrorColor:     rl.Color{R: 230, G: 110, B: 100, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     80,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
