package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/stellar/config"
)

func TestQuantiles(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{5}, 0.5, 5},
		{"p50 unsorted", []float64{4, 1, 3, 2, 5}, 0.5, 3},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1},
		{"p90", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 0.9, 9},
		{"p100", []float64{1, 2, 3}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantiles(tt.values, tt.p)[0]
			if got != tt.want {
				t.Errorf("Quantiles(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}
}

func TestQuantilesDoesNotSortInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Quantiles(values, 0.5)
	if values[0] != 3 || values[1] != 1 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || math.Abs(std-2) > 1e-12 {
		t.Errorf("MeanStd = %v, %v, want 5, 2", mean, std)
	}
	if m, s := MeanStd(nil); m != 0 || s != 0 {
		t.Errorf("MeanStd(nil) = %v, %v", m, s)
	}
}

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(1)
	if c.ShouldFlush(5) {
		t.Fatal("empty window should not flush")
	}

	for i := 0; i < 10; i++ {
		c.Record(FrameSample{
			Time:      float64(i) * 0.1,
			FrameSec:  0.1,
			Bass:      0.5,
			Level:     float64(i%2) * 0.2,
			Formation: float64(i) / 10,
			Active:    2,
			Gallery:   3,
		})
	}
	if c.ShouldFlush(0.9) {
		t.Error("flushed before the window elapsed")
	}
	if !c.ShouldFlush(1.0) {
		t.Fatal("window not complete at 1s")
	}

	s := c.Flush(1.0)
	if s.Window != 0 || s.Frames != 10 {
		t.Errorf("window %d frames %d, want 0 and 10", s.Window, s.Frames)
	}
	if s.FPS != 10 {
		t.Errorf("FPS = %v, want 10", s.FPS)
	}
	if math.Abs(s.FrameP50Ms-100) > 1e-9 {
		t.Errorf("FrameP50Ms = %v, want 100", s.FrameP50Ms)
	}
	if s.BassMean != 0.5 || math.Abs(s.LevelMean-0.1) > 1e-12 {
		t.Errorf("means = %v/%v", s.BassMean, s.LevelMean)
	}
	if s.Formation != 0.9 || s.Active != 2 || s.Gallery != 3 {
		t.Errorf("end-of-window sample = %+v", s)
	}

	if c.ShouldFlush(1.5) {
		t.Error("new window should start empty")
	}
	c.Record(FrameSample{FrameSec: 0.016})
	if got := c.Flush(2.0).Window; got != 1 {
		t.Errorf("second window = %d, want 1", got)
	}
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := om.WriteTransition(Transition{TimeSec: float64(i), Reason: ReasonAuto, From: i, To: i + 1, Name: "b.png"}); err != nil {
			t.Fatal(err)
		}
		if err := om.WriteStats(WindowStats{Window: int32(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "transitions.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("transitions.csv has %d lines, want header + 2", len(lines))
	}
	if lines[0] != "time,reason,from,to,name" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1,auto,1,2,") {
		t.Errorf("row = %q", lines[2])
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}

func TestNilOutputManager(t *testing.T) {
	var om *OutputManager
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteTransition(Transition{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a directory")
	}
}
