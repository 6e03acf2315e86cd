// Package audio turns a playing track into smoothed spectral bands.
//
// A Source produces byte frequency snapshots the way a browser analyser node
// does: windowed FFT magnitudes, smoothed over time and mapped from a decibel
// range onto 0..255. The Sampler reduces a snapshot to bass, mid, treble and
// level, each exponentially blended with its previous value.
package audio

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/pthm-cable/stellar/config"
)

// Blackman window coefficients (alpha = 0.16).
const (
	blackmanA0 = 0.42
	blackmanA1 = 0.5
	blackmanA2 = 0.08
)

// Analyser computes byte frequency data from a block of time-domain samples.
// It keeps smoothing state between calls and is not safe for concurrent use.
type Analyser struct {
	size      int
	fft       *fourier.FFT
	window    []float64
	in        []float64
	coeffs    []complex128
	smoothed  []float64
	smoothing float64
	minDB     float64
	maxDB     float64
}

// NewAnalyser creates an analyser from audio configuration.
func NewAnalyser(cfg config.AudioConfig) *Analyser {
	n := cfg.FFTSize
	a := &Analyser{
		size:      n,
		fft:       fourier.NewFFT(n),
		window:    make([]float64, n),
		in:        make([]float64, n),
		smoothed:  make([]float64, n/2),
		smoothing: cfg.TimeSmoothing,
		minDB:     cfg.MinDecibels,
		maxDB:     cfg.MaxDecibels,
	}
	if a.maxDB <= a.minDB {
		a.minDB, a.maxDB = -100, -30
	}
	for i := range a.window {
		x := 2 * math.Pi * float64(i) / float64(n)
		a.window[i] = blackmanA0 - blackmanA1*math.Cos(x) + blackmanA2*math.Cos(2*x)
	}
	return a
}

// Size returns the FFT size.
func (a *Analyser) Size() int { return a.size }

// Bins returns the number of frequency bins (half the FFT size).
func (a *Analyser) Bins() int { return a.size / 2 }

// ByteFrequencyData analyses the last Size samples of block and writes one
// byte per bin into dst. Shorter blocks are zero padded at the front.
func (a *Analyser) ByteFrequencyData(block []float64, dst []uint8) {
	clear(a.in)
	if len(block) > a.size {
		block = block[len(block)-a.size:]
	}
	off := a.size - len(block)
	for i, v := range block {
		a.in[off+i] = v * a.window[off+i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.in)

	bins := min(len(dst), len(a.smoothed))
	scale := 255 / (a.maxDB - a.minDB)
	for k := 0; k < len(a.smoothed); k++ {
		mag := cmplx.Abs(a.coeffs[k]) / float64(a.size)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= bins {
			continue
		}
		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := scale * (db - a.minDB)
		switch {
		case v <= 0 || math.IsNaN(v):
			dst[k] = 0
		case v >= 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
}
