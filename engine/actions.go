package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/stellar/telemetry"
)

// load installs entry i as a fresh field that forms from the vortex.
func (e *Engine) load(i, from int, reason telemetry.Reason, now time.Time) {
	entry, ok := e.gallery.At(i)
	if !ok {
		return
	}
	e.state.Load(entry.Buffers, now)
	e.active = i
	e.countdown.Reset()
	e.syncCountdown()
	e.recordTransition(now, reason, from, i, entry.Info.Name)
}

// transition promotes the reached target and morphs towards entry i.
func (e *Engine) transition(i int, reason telemetry.Reason, now time.Time) error {
	entry, ok := e.gallery.At(i)
	if !ok {
		return nil
	}
	if err := e.state.Transition(entry.Buffers, e.params.MorphDurationTime(), now); err != nil {
		slog.Debug("transition rejected", "to", i, "reason", string(reason), "error", err)
		return err
	}
	from := e.active
	e.active = i
	e.countdown.Reset()
	e.countdown.SetBusy(true)
	e.recordTransition(now, reason, from, i, entry.Info.Name)
	return nil
}

// Select morphs to gallery entry i. Selecting the displayed entry or a
// missing index does nothing. While a morph runs the request is rejected
// with morph.ErrMorphInFlight.
func (e *Engine) Select(i int) error {
	if i == e.active || i < 0 || i >= e.gallery.Len() {
		return nil
	}
	if !e.state.Loaded() {
		from := e.active
		e.load(i, from, telemetry.ReasonSelect, e.last)
		return nil
	}
	return e.transition(i, telemetry.ReasonSelect, e.last)
}

// Delete removes gallery entry i, from the asset provider first when one is
// configured. Deleting the displayed entry morphs to the next one; deleting
// the last entry resets.
func (e *Engine) Delete(i int) {
	entry, ok := e.gallery.At(i)
	if !ok {
		return
	}
	name := entry.Info.Name
	if e.assets == nil {
		e.remove(i, e.last)
		return
	}
	e.goAsync(func(ctx context.Context) {
		err := e.assets.Delete(ctx, name)
		e.post(func(now time.Time) {
			if err != nil {
				e.notices.add(now, LevelError, fmt.Sprintf("delete %s failed: %v", name, err))
				return
			}
			// The index may have shifted while the request ran
			if j := e.gallery.IndexOf(name); j >= 0 {
				e.remove(j, now)
			}
		})
	})
}

func (e *Engine) remove(i int, now time.Time) {
	entry, _ := e.gallery.At(i)
	if !e.gallery.Remove(i) {
		return
	}
	e.notices.add(now, LevelInfo, fmt.Sprintf("removed %s", entry.Info.Name))

	switch {
	case e.gallery.Len() == 0:
		e.reset(now, telemetry.ReasonDelete)
		return
	case i == e.active:
		next := i % e.gallery.Len()
		// The displayed field is gone; land any running morph first
		e.state.Finish()
		if err := e.transition(next, telemetry.ReasonDelete, now); err != nil {
			slog.Warn("retarget after delete failed", "error", err)
			e.load(next, i, telemetry.ReasonDelete, now)
		}
	case i < e.active:
		e.active--
	}
	e.syncCountdown()
}

// Reset clears the gallery and returns to the state before any image was
// loaded. Images still being synthesized are discarded.
func (e *Engine) Reset() {
	e.reset(e.last, telemetry.ReasonReset)
}

func (e *Engine) reset(now time.Time, reason telemetry.Reason) {
	from := e.active
	e.gallery.Clear()
	e.state.Reset()
	e.active = -1
	clear(e.batches)
	e.countdown.Reset()
	e.countdown.SetBusy(false)
	e.syncCountdown()
	if from >= 0 {
		e.recordTransition(now, reason, from, -1, "")
	}
}
