// Package field synthesizes fixed-capacity particle fields from images.
//
// A field is a flat position/colour pair covering Capacity particles. The index
// space is split into three category ranges that never move: Subject particles
// trace the image itself, Aura particles orbit around it and Disk particles
// form the accretion spiral underneath. Per-index metadata (seeds, sizes,
// brightness) is allocated once and shared by every field that is loaded.
package field

import "math/rand"

// Layout constants.
const (
	Capacity     = 60000
	SubjectStart = 0
	SubjectEnd   = 45000
	AuraStart    = SubjectEnd
	AuraEnd      = 57600
	DiskStart    = AuraEnd
	DiskEnd      = Capacity

	SubjectCapacity = SubjectEnd - SubjectStart
	AuraCapacity    = AuraEnd - AuraStart
	DiskCapacity    = DiskEnd - DiskStart
)

// Category identifies which sub-population an index belongs to.
type Category uint8

const (
	Subject Category = iota
	Aura
	Disk
)

func (c Category) String() string {
	switch c {
	case Subject:
		return "subject"
	case Aura:
		return "aura"
	case Disk:
		return "disk"
	}
	return "unknown"
}

// CategoryOf returns the category for a particle index.
func CategoryOf(i int) Category {
	switch {
	case i < SubjectEnd:
		return Subject
	case i < AuraEnd:
		return Aura
	default:
		return Disk
	}
}

// StarType selects the point-sprite shape in the fragment stage.
type StarType uint8

const (
	StarPlain StarType = iota
	StarBeam           // Cross-shaped streaks, reserved for bright large subject particles
)

// Metadata generation constants
const (
	largeChance     = 0.05
	beamChance      = 0.4 // Of large subject particles
	dimChance       = 0.15
	dimBrightness   = 0.8
	brightFloor     = 0.85
	minSize         = 0.1
	sizeSpread      = 0.3
	randomDirSpread = 1.0
)

// Metadata is immutable per-index data shared by every loaded field.
type Metadata struct {
	Category     []Category
	TwinklePhase []float32
	RandomDir    []float32 // xyz per particle, components in [-0.5, 0.5)
	Brightness   []float32
	IsLarge      []bool
	Size         []float32
	Star         []StarType
}

// NewMetadata allocates metadata for Capacity particles using rng.
func NewMetadata(rng *rand.Rand) *Metadata {
	m := &Metadata{
		Category:     make([]Category, Capacity),
		TwinklePhase: make([]float32, Capacity),
		RandomDir:    make([]float32, Capacity*3),
		Brightness:   make([]float32, Capacity),
		IsLarge:      make([]bool, Capacity),
		Size:         make([]float32, Capacity),
		Star:         make([]StarType, Capacity),
	}

	for i := 0; i < Capacity; i++ {
		cat := CategoryOf(i)
		m.Category[i] = cat
		m.Size[i] = minSize + rng.Float32()*sizeSpread
		m.TwinklePhase[i] = rng.Float32()
		m.IsLarge[i] = rng.Float64() < largeChance

		i3 := i * 3
		m.RandomDir[i3] = (rng.Float32() - 0.5) * randomDirSpread
		m.RandomDir[i3+1] = (rng.Float32() - 0.5) * randomDirSpread
		m.RandomDir[i3+2] = (rng.Float32() - 0.5) * randomDirSpread

		// A minority of dim particles drive the settled edge spray
		if rng.Float64() < dimChance {
			m.Brightness[i] = rng.Float32() * dimBrightness
		} else {
			m.Brightness[i] = brightFloor + rng.Float32()*(1-brightFloor)
		}

		if cat == Subject && m.IsLarge[i] && rng.Float64() < beamChance {
			m.Star[i] = StarBeam
		}
	}

	return m
}
