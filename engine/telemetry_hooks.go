package engine

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/stellar/telemetry"
)

// flushTelemetry writes the stats window once it is complete.
func (e *Engine) flushTelemetry() {
	now := e.elapsed()
	if !e.collector.ShouldFlush(now) {
		return
	}

	stats := e.collector.Flush(now)
	perfStats := e.perf.Stats()

	if e.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if e.output != nil {
		if err := e.output.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := e.output.WritePerf(perfStats, stats.Window); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// recordTransition logs a change of the displayed field.
func (e *Engine) recordTransition(now time.Time, reason telemetry.Reason, from, to int, name string) {
	var t float64
	if !e.start.IsZero() {
		t = now.Sub(e.start).Seconds()
	}
	tr := telemetry.Transition{TimeSec: t, Reason: reason, From: from, To: to, Name: name}

	if e.logStats {
		tr.LogTransition()
	}
	if e.output != nil {
		if err := e.output.WriteTransition(tr); err != nil {
			slog.Error("failed to write transition", "error", err)
		}
	}
}
