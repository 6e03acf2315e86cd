package field

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/stellar/config"
)

func testSynth(t *testing.T) *Synthesizer {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return NewSynthesizer(cfg.Field)
}

// disc draws a bright filled circle on black.
func disc(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	r := math.Min(cx, cy) * 0.6
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy < r*r {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		i    int
		want Category
	}{
		{0, Subject},
		{SubjectEnd - 1, Subject},
		{AuraStart, Aura},
		{AuraEnd - 1, Aura},
		{DiskStart, Disk},
		{Capacity - 1, Disk},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.i); got != tt.want {
			t.Errorf("CategoryOf(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestSynthesizeFillsCapacity(t *testing.T) {
	s := testSynth(t)
	images := map[string]image.Image{
		"disc":     disc(200, 120, color.RGBA{220, 120, 40, 255}),
		"tall":     disc(40, 300, color.RGBA{40, 200, 250, 255}),
		"tiny":     disc(3, 3, color.RGBA{255, 255, 255, 255}),
		"all dark": image.NewRGBA(image.Rect(0, 0, 50, 50)),
	}

	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			f, err := s.Synthesize(img, name)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if err := f.Validate(); err != nil {
				t.Fatal(err)
			}
			if f.Thumbnail == nil || f.Thumbnail.Bounds().Dx() != 64 {
				t.Errorf("thumbnail = %v, want 64x64", f.Thumbnail)
			}
		})
	}
}

func TestSynthesizeDiskIndependentOfImage(t *testing.T) {
	s := testSynth(t)
	a, err := s.Synthesize(disc(200, 120, color.RGBA{255, 0, 0, 255}), "a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Synthesize(disc(60, 300, color.RGBA{0, 0, 255, 255}), "b")
	if err != nil {
		t.Fatal(err)
	}

	for i := DiskStart; i < DiskEnd; i++ {
		p := DiskPoint(i-DiskStart, 60)
		want := [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
		i3 := i * 3
		for k := 0; k < 3; k++ {
			if a.Position[i3+k] != want[k] || b.Position[i3+k] != want[k] {
				t.Fatalf("disk %d axis %d = %v / %v, want %v", i, k, a.Position[i3+k], b.Position[i3+k], want[k])
			}
		}
	}

	// Colour is the only image-dependent part of the disk; the outer end leans to the average.
	last := (DiskStart + diskPerArm - 1) * 3
	if a.Color[last] <= b.Color[last] {
		t.Errorf("red image disk red %v should exceed blue image disk red %v", a.Color[last], b.Color[last])
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := testSynth(t)
	img := disc(160, 160, color.RGBA{100, 200, 150, 255})
	a, _ := s.Synthesize(img, "x")
	b, _ := s.Synthesize(img, "x")
	for i := range a.Position {
		if a.Position[i] != b.Position[i] || a.Color[i] != b.Color[i] {
			t.Fatalf("index %d differs between runs", i)
		}
	}
	// Fresh arrays every call
	if &a.Position[0] == &b.Position[0] {
		t.Error("synthesizer reused position array")
	}
}

func TestSynthesizeAllDarkIsDegenerate(t *testing.T) {
	s := testSynth(t)
	f, err := s.Synthesize(image.NewRGBA(image.Rect(0, 0, 32, 32)), "dark")
	if err != nil {
		t.Fatal(err)
	}
	if f.AverageColor != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("AverageColor = %v, want grey", f.AverageColor)
	}
	for i := SubjectStart; i < SubjectEnd; i++ {
		i3 := i * 3
		if f.Position[i3] != 0 || f.Position[i3+1] != 0 || f.Position[i3+2] != 0 {
			t.Fatalf("subject %d at %v, want origin", i, f.Position[i3:i3+3])
		}
		if f.Color[i3] != 0.5 {
			t.Fatalf("subject %d colour %v, want grey", i, f.Color[i3:i3+3])
		}
	}
}

func TestSynthesizeAverageColor(t *testing.T) {
	s := testSynth(t)
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	f, err := s.Synthesize(img, "red")
	if err != nil {
		t.Fatal(err)
	}
	if f.HexColor() != "#ff0000" {
		t.Errorf("HexColor = %s, want #ff0000", f.HexColor())
	}
}

func TestSynthesizeEmptyImage(t *testing.T) {
	s := testSynth(t)
	if _, err := s.Synthesize(image.NewRGBA(image.Rectangle{}), "empty"); err != ErrEmptyImage {
		t.Errorf("err = %v, want ErrEmptyImage", err)
	}
}

func TestDecode(t *testing.T) {
	s := testSynth(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, disc(64, 64, color.RGBA{200, 200, 200, 255})); err != nil {
		t.Fatal(err)
	}
	f, err := s.Decode(&buf, "disc.png")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Name != "disc.png" {
		t.Errorf("Name = %q", f.Name)
	}

	if _, err := s.Decode(bytes.NewReader([]byte("not an image")), "junk"); err == nil {
		t.Error("expected decode error")
	}
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(rand.New(rand.NewSource(7)))

	dim, large := 0, 0
	for i := 0; i < Capacity; i++ {
		if m.Category[i] != CategoryOf(i) {
			t.Fatalf("category %d = %v", i, m.Category[i])
		}
		if m.Size[i] < 0.099 || m.Size[i] > 0.401 {
			t.Fatalf("size %d = %v", i, m.Size[i])
		}
		if m.TwinklePhase[i] < 0 || m.TwinklePhase[i] >= 1 {
			t.Fatalf("twinkle %d = %v", i, m.TwinklePhase[i])
		}
		if m.Brightness[i] < 0.8 {
			dim++
		}
		if m.IsLarge[i] {
			large++
		}
		if m.Star[i] == StarBeam && (m.Category[i] != Subject || !m.IsLarge[i]) {
			t.Fatalf("beam star at %d outside large subject", i)
		}
	}

	if frac := float64(dim) / Capacity; frac < 0.12 || frac > 0.18 {
		t.Errorf("dim fraction = %.3f, want ~0.15", frac)
	}
	if frac := float64(large) / Capacity; frac < 0.04 || frac > 0.06 {
		t.Errorf("large fraction = %.3f, want ~0.05", frac)
	}
}

func TestBuffersClone(t *testing.T) {
	b := NewBuffers()
	b.Position[5] = 3
	c := b.Clone()
	c.Position[5] = 9
	if b.Position[5] != 3 {
		t.Error("Clone shares storage")
	}
}
