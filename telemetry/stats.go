package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats aggregates the frames of one stats window.
type WindowStats struct {
	Window  int32   `csv:"window"`
	TimeSec float64 `csv:"time"`
	Frames  int     `csv:"frames"`

	FPS        float64 `csv:"fps"`
	FrameP50Ms float64 `csv:"frame_p50_ms"`
	FrameP90Ms float64 `csv:"frame_p90_ms"`

	BassMean   float64 `csv:"bass_mean"`
	MidMean    float64 `csv:"mid_mean"`
	TrebleMean float64 `csv:"treble_mean"`
	LevelMean  float64 `csv:"level_mean"`
	LevelStd   float64 `csv:"level_std"`

	// Sampled at window end
	Formation float64 `csv:"formation"`
	Morph     float64 `csv:"morph"`
	Active    int     `csv:"active"`
	Gallery   int     `csv:"gallery"`
	Visible   int     `csv:"visible"`
}

// Quantiles returns the empirical p-quantiles of values, which need not be
// sorted. Empty input gives zeros.
func Quantiles(values []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(values) == 0 {
		return out
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	for i, p := range ps {
		out[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	return out
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window", int(s.Window)),
		slog.Float64("time", s.TimeSec),
		slog.Int("frames", s.Frames),
		slog.Float64("fps", s.FPS),
		slog.Float64("frame_p50_ms", s.FrameP50Ms),
		slog.Float64("frame_p90_ms", s.FrameP90Ms),
		slog.Float64("bass_mean", s.BassMean),
		slog.Float64("mid_mean", s.MidMean),
		slog.Float64("treble_mean", s.TrebleMean),
		slog.Float64("level_mean", s.LevelMean),
		slog.Float64("formation", s.Formation),
		slog.Float64("morph", s.Morph),
		slog.Int("active", s.Active),
		slog.Int("gallery", s.Gallery),
		slog.Int("visible", s.Visible),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window", s.Window,
		"time", s.TimeSec,
		"fps", s.FPS,
		"frame_p90_ms", s.FrameP90Ms,
		"level_mean", s.LevelMean,
		"formation", s.Formation,
		"active", s.Active,
		"gallery", s.Gallery,
	)
}
