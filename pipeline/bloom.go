package pipeline

import (
	"math"

	"github.com/pthm-cable/stellar/config"
)

// Bloom constants
const (
	bloomKnee      = 0.01 // Soft edge of the luminance high pass
	bloomSigmaBase = 0.02 // Blur sigma per unit radius, as a fraction of height
	bloomWide      = 4.0  // Wide pass sigma multiple
)

// Bloom adds a glow from pixels brighter than the threshold. Two blur widths
// approximate the mip chain of a GPU bloom; radius shifts weight to the wider
// one.
func (r *Rasterizer) Bloom(cfg config.BloomConfig) {
	if !cfg.Enabled || cfg.Strength <= 0 {
		return
	}

	bright := r.scratch
	for i := 0; i < r.W*r.H; i++ {
		i3 := i * 3
		lum := 0.2126*r.accum[i3] + 0.7152*r.accum[i3+1] + 0.0722*r.accum[i3+2]
		k := float32(smoothstep(cfg.Threshold, cfg.Threshold+bloomKnee, float64(lum)))
		bright[i3] = r.accum[i3] * k
		bright[i3+1] = r.accum[i3+1] * k
		bright[i3+2] = r.accum[i3+2] * k
	}

	sigma := math.Max(1, bloomSigmaBase*float64(r.H))
	narrow := make([]float32, len(bright))
	wide := make([]float32, len(bright))
	copy(narrow, bright)
	copy(wide, bright)
	r.gaussian(narrow, sigma)
	r.gaussian(wide, sigma*bloomWide)

	radius := clamp(cfg.Radius, 0, 1)
	ws := float32(cfg.Strength * (1 - radius))
	ww := float32(cfg.Strength * (0.5 + radius))
	for i := range r.accum {
		r.accum[i] += narrow[i]*ws + wide[i]*ww
	}
}

// gaussian blurs buf (rgb, W x H) in place with a separable kernel.
func (r *Rasterizer) gaussian(buf []float32, sigma float64) {
	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	tmp := make([]float32, len(buf))

	// Horizontal pass into tmp
	r.pool.split(r.H, func(y0, y1, _ int) {
		for y := y0; y < y1; y++ {
			row := y * r.W
			for x := 0; x < r.W; x++ {
				var sr, sg, sb float32
				for k, w := range kernel {
					xx := min(max(x+k-half, 0), r.W-1)
					i3 := (row + xx) * 3
					sr += buf[i3] * w
					sg += buf[i3+1] * w
					sb += buf[i3+2] * w
				}
				o := (row + x) * 3
				tmp[o], tmp[o+1], tmp[o+2] = sr, sg, sb
			}
		}
	})

	// Vertical pass back into buf
	r.pool.split(r.W, func(x0, x1, _ int) {
		for x := x0; x < x1; x++ {
			for y := 0; y < r.H; y++ {
				var sr, sg, sb float32
				for k, w := range kernel {
					yy := min(max(y+k-half, 0), r.H-1)
					i3 := (yy*r.W + x) * 3
					sr += tmp[i3] * w
					sg += tmp[i3+1] * w
					sb += tmp[i3+2] * w
				}
				o := (y*r.W + x) * 3
				buf[o], buf[o+1], buf[o+2] = sr, sg, sb
			}
		}
	})
}

func gaussianKernel(sigma float64) []float32 {
	half := int(math.Ceil(sigma * 3))
	k := make([]float32, 2*half+1)
	var sum float64
	for i := -half; i <= half; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+half] = float32(w)
		sum += w
	}
	for i := range k {
		k[i] = float32(float64(k[i]) / sum)
	}
	return k
}
