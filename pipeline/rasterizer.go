package pipeline

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/stellar/camera"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/field"
)

// splat is a projected particle ready for rasterization.
type splat struct {
	v       Varyings
	sx, sy  float64 // Sprite centre in framebuffer pixels
	radius  float64 // Half the point size
	x0, x1  int     // Clipped pixel bounds, end exclusive
	y0, y1  int
	visible bool
}

// Rasterizer renders a Frame into an additive float framebuffer.
// Vertex evaluation is chunked across workers by particle; rasterization is
// chunked by row band so no two workers write the same pixel and every sum
// runs in particle order.
type Rasterizer struct {
	W, H int

	accum   []float32 // rgb per pixel
	scratch []float32 // bloom working copy
	splats  []splat
	pool    *workerPool

	pointScale float64
	maxPoint   float64
	background [3]float64
	visible    int
}

// NewRasterizer creates a rasterizer with a w x h framebuffer.
func NewRasterizer(cfg config.RenderConfig, w, h int) *Rasterizer {
	r := &Rasterizer{
		splats:     make([]splat, field.Capacity),
		pool:       newWorkerPool(cfg.Workers),
		pointScale: cfg.PointScale,
		maxPoint:   cfg.MaxPointSize,
		background: cfg.Background,
	}
	if r.pointScale <= 0 {
		r.pointScale = 1300
	}
	if r.maxPoint < 1 {
		r.maxPoint = 64
	}
	r.Resize(w, h)
	return r
}

// Resize reallocates the framebuffer if the dimensions changed.
func (r *Rasterizer) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == r.W && h == r.H && r.accum != nil {
		return
	}
	r.W, r.H = w, h
	r.accum = make([]float32, w*h*3)
	r.scratch = make([]float32, w*h*3)
}

// Close stops the worker goroutines.
func (r *Rasterizer) Close() {
	r.pool.stop()
}

// Render runs both stages.
func (r *Rasterizer) Render(f *Frame, cam *camera.Orbit) {
	r.Vertices(f, cam)
	r.Raster(&f.Uniforms)
}

// Vertices evaluates the vertex stage and projects every particle.
func (r *Rasterizer) Vertices(f *Frame, cam *camera.Orbit) {
	n := min(field.Capacity, len(f.Current.Position)/3, len(f.Pending.Position)/3)
	sx := float64(r.W) / cam.ViewportW
	sy := float64(r.H) / cam.ViewportH

	r.pool.run(n, func(start, end, _ int) {
		for i := start; i < end; i++ {
			s := &r.splats[i]
			s.v = Vertex(i, f.Meta, f.Current, f.Pending, &f.Uniforms)
			s.visible = false
			if s.v.Alpha <= 0 {
				continue
			}

			p := r3.Vec{X: s.v.Position[0], Y: s.v.Position[1], Z: s.v.Position[2]}
			px, py, depth, ok := cam.Project(p)
			if !ok {
				continue
			}

			size := clamp(s.v.Size*r.pointScale*sy/depth, 1, r.maxPoint)
			s.sx, s.sy = px*sx, py*sy
			s.radius = size / 2
			s.x0 = max(int(math.Floor(s.sx-s.radius)), 0)
			s.x1 = min(int(math.Ceil(s.sx+s.radius)), r.W)
			s.y0 = max(int(math.Floor(s.sy-s.radius)), 0)
			s.y1 = min(int(math.Ceil(s.sy+s.radius)), r.H)
			s.visible = s.x0 < s.x1 && s.y0 < s.y1
		}
	})

	for i := n; i < len(r.splats); i++ {
		r.splats[i].visible = false
	}

	r.visible = 0
	for i := range r.splats {
		if r.splats[i].visible {
			r.visible++
		}
	}
}

// Raster accumulates the fragment stage of every visible splat.
func (r *Rasterizer) Raster(u *Uniforms) {
	clear(r.accum)

	r.pool.split(r.H, func(y0, y1, _ int) {
		for i := range r.splats {
			s := &r.splats[i]
			if !s.visible || s.y1 <= y0 || s.y0 >= y1 {
				continue
			}
			inv := 1 / s.radius
			for y := max(s.y0, y0); y < min(s.y1, y1); y++ {
				cy := (float64(y) + 0.5 - s.sy) * inv
				row := y * r.W
				for x := s.x0; x < s.x1; x++ {
					cx := (float64(x) + 0.5 - s.sx) * inv
					rgb, a, ok := Fragment(&s.v, cx, cy, u)
					if !ok || a == 0 {
						continue
					}
					idx := (row + x) * 3
					r.accum[idx] += float32(rgb[0] * a)
					r.accum[idx+1] += float32(rgb[1] * a)
					r.accum[idx+2] += float32(rgb[2] * a)
				}
			}
		}
	})
}

// Visible returns how many particles landed on screen in the last frame.
func (r *Rasterizer) Visible() int { return r.visible }

// Accum exposes the float framebuffer (rgb, row-major).
func (r *Rasterizer) Accum() []float32 { return r.accum }

// Colors converts the framebuffer to 8-bit pixels over the background.
func (r *Rasterizer) Colors(dst []color.RGBA) []color.RGBA {
	n := r.W * r.H
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		i3 := i * 3
		dst[i] = color.RGBA{
			R: to8(float64(r.accum[i3]) + r.background[0]),
			G: to8(float64(r.accum[i3+1]) + r.background[1]),
			B: to8(float64(r.accum[i3+2]) + r.background[2]),
			A: 255,
		}
	}
	return dst
}

// Image returns the framebuffer as an RGBA image.
func (r *Rasterizer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.W, r.H))
	for i, c := range r.Colors(nil) {
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
