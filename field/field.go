package field

import (
	"fmt"
	"image"
	"math"
)

// Buffers holds the per-field particle data: xyz positions and rgb colours,
// three float32 values per particle.
type Buffers struct {
	Position []float32
	Color    []float32
}

// NewBuffers allocates zeroed buffers for Capacity particles.
func NewBuffers() Buffers {
	return Buffers{
		Position: make([]float32, Capacity*3),
		Color:    make([]float32, Capacity*3),
	}
}

// Clone returns a deep copy.
func (b Buffers) Clone() Buffers {
	c := Buffers{
		Position: make([]float32, len(b.Position)),
		Color:    make([]float32, len(b.Color)),
	}
	copy(c.Position, b.Position)
	copy(c.Color, b.Color)
	return c
}

// Validate reports an error if the buffers are not full-capacity or hold a
// non-finite value.
func (b Buffers) Validate() error {
	if len(b.Position) != Capacity*3 || len(b.Color) != Capacity*3 {
		return fmt.Errorf("field: buffer length %d/%d, want %d", len(b.Position), len(b.Color), Capacity*3)
	}
	for i, v := range b.Position {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("field: non-finite position at particle %d", i/3)
		}
	}
	for i, v := range b.Color {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("field: non-finite colour at particle %d", i/3)
		}
	}
	return nil
}

// Info is the descriptive part of a synthesized field.
type Info struct {
	Name         string
	AverageColor [3]float32
	Thumbnail    *image.RGBA
}

// Field is one synthesized image: buffers plus description.
type Field struct {
	Buffers
	Info
}

// HexColor formats the average colour as #rrggbb.
func (i Info) HexColor() string {
	return fmt.Sprintf("#%02x%02x%02x",
		to8(i.AverageColor[0]), to8(i.AverageColor[1]), to8(i.AverageColor[2]))
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
