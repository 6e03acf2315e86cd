// Package renderer puts the CPU framebuffer on screen with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/pipeline"
)

// Presenter uploads the rasterizer output to a texture each frame and draws
// it stretched over the window through the bloom shader.
type Presenter struct {
	tex    rl.Texture2D
	w, h   int
	pixels []color.RGBA

	shader       rl.Shader
	texelLoc     int32
	thresholdLoc int32
	strengthLoc  int32
	radiusLoc    int32

	bloom       config.BloomConfig
	initialized bool
}

// NewPresenter creates a presenter. GPU resources are created on first use,
// after the window exists.
func NewPresenter(bloom config.BloomConfig) *Presenter {
	return &Presenter{bloom: bloom}
}

// Init loads the bloom shader (must be called after raylib window is created).
func (p *Presenter) Init() {
	if p.initialized {
		return
	}

	p.shader = rl.LoadShaderFromMemory("", bloomFragSrc)
	p.texelLoc = rl.GetShaderLocation(p.shader, "texel")
	p.thresholdLoc = rl.GetShaderLocation(p.shader, "threshold")
	p.strengthLoc = rl.GetShaderLocation(p.shader, "strength")
	p.radiusLoc = rl.GetShaderLocation(p.shader, "radius")
	p.SetBloom(p.bloom)

	p.initialized = true
}

// SetBloom updates the glow parameters.
func (p *Presenter) SetBloom(cfg config.BloomConfig) {
	p.bloom = cfg
	if p.shader.ID == 0 {
		return
	}
	rl.SetShaderValue(p.shader, p.thresholdLoc, []float32{float32(cfg.Threshold)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.shader, p.strengthLoc, []float32{float32(cfg.Strength)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.shader, p.radiusLoc, []float32{float32(cfg.Radius)}, rl.ShaderUniformFloat)
}

// Upload copies the rasterizer's framebuffer into the texture, recreating
// it when the size changed.
func (p *Presenter) Upload(r *pipeline.Rasterizer) {
	if !p.initialized {
		p.Init()
	}
	if r.W != p.w || r.H != p.h {
		if p.w > 0 {
			rl.UnloadTexture(p.tex)
		}
		img := rl.GenImageColor(r.W, r.H, rl.Black)
		p.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(p.tex, rl.FilterBilinear)
		p.w, p.h = r.W, r.H

		texel := []float32{1 / float32(r.W), 1 / float32(r.H)}
		rl.SetShaderValue(p.shader, p.texelLoc, texel, rl.ShaderUniformVec2)
	}

	p.pixels = r.Colors(p.pixels)
	rl.UpdateTexture(p.tex, p.pixels)
}

// Draw renders the texture over the whole window.
func (p *Presenter) Draw(screenW, screenH int32) {
	if p.w == 0 {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(p.w), Height: float32(p.h)}
	dst := rl.Rectangle{X: 0, Y: 0, Width: float32(screenW), Height: float32(screenH)}

	glow := p.bloom.Enabled && p.bloom.Strength > 0
	if glow {
		rl.BeginShaderMode(p.shader)
	}
	rl.DrawTexturePro(p.tex, src, dst, rl.Vector2{}, 0, rl.White)
	if glow {
		rl.EndShaderMode()
	}
}

// Unload frees resources.
func (p *Presenter) Unload() {
	if !p.initialized {
		return
	}
	if p.w > 0 {
		rl.UnloadTexture(p.tex)
		p.w, p.h = 0, 0
	}
	rl.UnloadShader(p.shader)
	p.initialized = false
}
