package audio

import (
	"math"

	"github.com/pthm-cable/stellar/config"
)

// Band split as fractions of the bin count.
const (
	bassEnd = 0.10
	midEnd  = 0.40

	// Smoothed values below this read as silence.
	snapThreshold = 1e-4
)

// Bands is the smoothed spectral summary driving the visuals.
type Bands struct {
	Bass   float64
	Mid    float64
	Treble float64
	Level  float64
}

// Raw splits a byte spectrum into unsmoothed bands in [0,1].
func Raw(spectrum []uint8) Bands {
	n := len(spectrum)
	if n == 0 {
		return Bands{}
	}
	b := int(float64(n) * bassEnd)
	m := int(float64(n) * midEnd)

	var out Bands
	out.Bass = meanByte(spectrum[:b])
	out.Mid = meanByte(spectrum[b:m])
	out.Treble = meanByte(spectrum[m:])
	out.Level = (out.Bass + out.Mid + out.Treble) / 3
	return out
}

func meanByte(s []uint8) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0
	for _, v := range s {
		sum += int(v)
	}
	return float64(sum) / float64(len(s)) / 255
}

// Sampler holds the persistent band state. Bands are never reset, so they
// carry across source changes.
type Sampler struct {
	bands   Bands
	bass    float64
	mid     float64
	treble  float64
	level   float64
	scratch []uint8
}

// NewSampler creates a sampler from audio configuration.
func NewSampler(cfg config.AudioConfig) *Sampler {
	return &Sampler{
		bass:    cfg.BassSmoothing,
		mid:     cfg.MidSmoothing,
		treble:  cfg.TrebleSmoothing,
		level:   cfg.LevelSmoothing,
		scratch: make([]uint8, cfg.FFTSize/2),
	}
}

// Sample reads a snapshot from src and blends it into the band state. A nil
// or inactive source contributes a zero sample.
func (s *Sampler) Sample(src Source) Bands {
	raw := Bands{}
	if src != nil && src.Spectrum(s.scratch) {
		raw = Raw(s.scratch)
	}
	return s.Blend(raw)
}

// Blend mixes a raw sample into the band state and returns the result.
func (s *Sampler) Blend(raw Bands) Bands {
	s.bands.Bass = smooth(s.bands.Bass, raw.Bass, s.bass)
	s.bands.Mid = smooth(s.bands.Mid, raw.Mid, s.mid)
	s.bands.Treble = smooth(s.bands.Treble, raw.Treble, s.treble)
	s.bands.Level = smooth(s.bands.Level, raw.Level, s.level)
	return s.bands
}

// Bands returns the current smoothed values.
func (s *Sampler) Bands() Bands { return s.bands }

func smooth(prev, raw, factor float64) float64 {
	v := prev + (clampUnit(raw)-prev)*factor
	if v < snapThreshold {
		return 0
	}
	return clampUnit(v)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}

// FramesToSilence returns how many zero samples take a band from 1 to 0 with
// the given smoothing factor. It returns -1 if the band never decays.
func FramesToSilence(factor float64) int {
	if factor >= 1 {
		return 1
	}
	if factor <= 0 {
		return -1
	}
	return int(math.Ceil(math.Log(snapThreshold) / math.Log(1-factor)))
}
