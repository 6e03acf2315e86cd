package field

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"

	"golang.org/x/image/draw"

	"github.com/pthm-cable/stellar/config"
)

// Synthesis constants.
const (
	probeSide       = 64
	minCoverage     = 0.02
	minWorkingSide  = 8
	diskArms        = 3
	diskPerArm      = DiskCapacity / diskArms
	diskRadiusScale = 0.8
	diskHeightScale = 0.55
	diskSeedStep    = 1.5
	auraRadiusMin   = 0.5
	auraRadiusSpan  = 0.8
	padRadiusMin    = 0.6
	padRadiusSpan   = 0.9
	auraHeightSpan  = 2.5
	diskColorLift   = 0.2
)

// Synthesizer converts images into particle fields.
// It is safe for concurrent use; every call allocates its own arrays and RNG.
type Synthesizer struct {
	seed       int64
	threshold  float64
	spread     float64
	depth      float64
	auraChance float64
	auraAtten  float64
	maxSide    int
	thumbSide  int
}

// NewSynthesizer creates a synthesizer from field configuration.
func NewSynthesizer(cfg config.FieldConfig) *Synthesizer {
	s := &Synthesizer{
		seed:       cfg.Seed,
		threshold:  cfg.LumaThreshold,
		spread:     cfg.Spread,
		depth:      cfg.DepthScale,
		auraChance: cfg.AuraChance,
		auraAtten:  cfg.AuraAttenuation,
		maxSide:    cfg.MaxWorkingSide,
		thumbSide:  cfg.ThumbnailSize,
	}
	if s.spread <= 0 {
		s.spread = 60
	}
	if s.maxSide < minWorkingSide {
		s.maxSide = 1024
	}
	if s.thumbSide <= 0 {
		s.thumbSide = 64
	}
	return s
}

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("field: empty image")

// Synthesize builds a full-capacity field from img. An image whose pixels all
// fall below the luminance threshold still yields a valid degenerate field.
func (s *Synthesizer) Synthesize(img image.Image, name string) (*Field, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	rng := rand.New(rand.NewSource(s.seed))
	aspect := float64(b.Dx()) / float64(b.Dy())

	w, h := s.workingSize(img, aspect)
	work := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(work, work.Bounds(), img, b, draw.Src, nil)

	f := &Field{Buffers: NewBuffers()}
	f.Name = name

	spreadX := s.spread * aspect
	spreadY := s.spread

	var sum [3]float64
	accepted := 0
	sub := SubjectStart
	aura := AuraStart

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := pixel(work, x, y)
			lum := (r + g + bl) / 3
			if lum <= s.threshold {
				continue
			}
			sum[0] += r
			sum[1] += g
			sum[2] += bl
			accepted++

			if sub < SubjectEnd {
				px := (float64(x)/float64(w) - 0.5) * spreadX
				py := (0.5 - float64(y)/float64(h)) * spreadY
				pz := (lum - 0.5) * s.depth
				f.set(sub, px, py, pz, r, g, bl)
				sub++
			}

			if aura < AuraEnd && rng.Float64() < s.auraChance {
				px, py, pz := auraOffset(rng, spreadX, spreadY, auraRadiusMin, auraRadiusSpan)
				f.set(aura, px, py, pz, r*s.auraAtten, g*s.auraAtten, bl*s.auraAtten)
				aura++
			}
		}
	}

	// Nothing passed the threshold: seed a single neutral particle so the
	// padding below has something to copy.
	if sub == SubjectStart {
		f.set(SubjectStart, 0, 0, 0, 0.5, 0.5, 0.5)
		sub++
	}

	written := sub
	for ; sub < SubjectEnd; sub++ {
		src := rng.Intn(written) * 3
		i3 := sub * 3
		copy(f.Position[i3:i3+3], f.Position[src:src+3])
		copy(f.Color[i3:i3+3], f.Color[src:src+3])
	}

	for ; aura < AuraEnd; aura++ {
		src := rng.Intn(SubjectCapacity) * 3
		px, py, pz := auraOffset(rng, spreadX, spreadY, padRadiusMin, padRadiusSpan)
		f.set(aura, px, py, pz,
			float64(f.Color[src])*s.auraAtten,
			float64(f.Color[src+1])*s.auraAtten,
			float64(f.Color[src+2])*s.auraAtten)
	}

	if accepted > 0 {
		n := float64(accepted)
		f.AverageColor = [3]float32{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n)}
	} else {
		f.AverageColor = [3]float32{0.5, 0.5, 0.5}
	}

	for i := DiskStart; i < DiskEnd; i++ {
		p := DiskPoint(i-DiskStart, s.spread)
		t := p.T
		var c [3]float64
		for k := 0; k < 3; k++ {
			c[k] = math.Min(1, (1-t)+t*(float64(f.AverageColor[k])+diskColorLift))
		}
		f.set(i, p.X, p.Y, p.Z, c[0], c[1], c[2])
	}

	f.Thumbnail = image.NewRGBA(image.Rect(0, 0, s.thumbSide, s.thumbSide))
	draw.ApproxBiLinear.Scale(f.Thumbnail, f.Thumbnail.Bounds(), img, b, draw.Src, nil)

	return f, nil
}

// workingSize picks a resample resolution whose accepted pixel count
// approximates the subject capacity.
func (s *Synthesizer) workingSize(img image.Image, aspect float64) (int, int) {
	pw := probeSide
	ph := max(1, int(math.Round(probeSide/aspect)))
	probe := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.ApproxBiLinear.Scale(probe, probe.Bounds(), img, img.Bounds(), draw.Src, nil)

	hits := 0
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			r, g, b := pixel(probe, x, y)
			if (r+g+b)/3 > s.threshold {
				hits++
			}
		}
	}
	coverage := math.Max(float64(hits)/float64(pw*ph), minCoverage)

	target := float64(SubjectCapacity) / coverage
	w := int(math.Round(math.Sqrt(target * aspect)))
	w = min(max(w, minWorkingSide), s.maxSide)
	h := int(math.Round(float64(w) / aspect))
	h = min(max(h, 1), s.maxSide)
	return w, h
}

func (f *Field) set(i int, x, y, z, r, g, b float64) {
	i3 := i * 3
	f.Position[i3] = float32(x)
	f.Position[i3+1] = float32(y)
	f.Position[i3+2] = float32(z)
	f.Color[i3] = float32(r)
	f.Color[i3+1] = float32(g)
	f.Color[i3+2] = float32(b)
}

func auraOffset(rng *rand.Rand, spreadX, spreadY, rmin, rspan float64) (x, y, z float64) {
	angle := rng.Float64() * 2 * math.Pi
	radius := spreadX * (rmin + rng.Float64()*rspan)
	y = (rng.Float64() - 0.5) * spreadY * auraHeightSpan
	return math.Cos(angle) * radius, y, math.Sin(angle) * radius
}

func pixel(img *image.RGBA, x, y int) (r, g, b float64) {
	c := img.RGBAAt(x, y)
	return unpremul(c)
}

// unpremul returns straight colour channels in [0,1].
func unpremul(c color.RGBA) (r, g, b float64) {
	if c.A == 0 {
		return 0, 0, 0
	}
	a := float64(c.A)
	return float64(c.R) / a, float64(c.G) / a, float64(c.B) / a
}

// DiskSample is one deterministic point on the accretion spiral.
type DiskSample struct {
	X, Y, Z float64
	T       float64 // Spiral parameter in [0,1)
}

// DiskPoint returns the spiral point for disk-local index k in
// [0, DiskCapacity). It depends only on k and spread.
func DiskPoint(k int, spread float64) DiskSample {
	arm := k / diskPerArm
	i := k % diskPerArm
	t := float64(i) / diskPerArm

	angle := float64(arm)*2*math.Pi/diskArms + t*3*math.Pi
	base := spread * diskRadiusScale * (0.1 + 0.9*t)
	r := math.Sin(float64(arm*diskPerArm+i)*diskSeedStep)*0.5 + 0.5
	radius := base + (r-0.5)*(15*t+2)

	return DiskSample{
		X: math.Cos(angle) * radius,
		Y: -spread*diskHeightScale + (r-0.5)*2,
		Z: math.Sin(angle) * radius,
		T: t,
	}
}
