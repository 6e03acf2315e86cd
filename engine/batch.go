package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/stellar/field"
	"github.com/pthm-cable/stellar/telemetry"
)

var errQueueFull = errors.New("synthesis queue full")

// batch tracks the images of one load or expand request. Results commit in
// slot order regardless of which worker finishes first.
type batch struct {
	initiating bool
	slots      []*result
	next       int
	added      int
}

// LoadFiles replaces the gallery with the images at paths. The first image
// becomes the displayed field; if it fails, nothing is loaded and the
// current field stays.
func (e *Engine) LoadFiles(paths []string) {
	e.submit(baseNames(paths), fileOpener(paths), true)
}

// ExpandFiles appends the images at paths to the gallery without changing
// the displayed field.
func (e *Engine) ExpandFiles(paths []string) {
	e.submit(baseNames(paths), fileOpener(paths), false)
}

// LoadAssets replaces the gallery with every image in the asset provider.
func (e *Engine) LoadAssets() {
	if e.assets == nil {
		return
	}
	e.goAsync(func(ctx context.Context) {
		list, err := e.assets.List(ctx)
		e.post(func(now time.Time) {
			if err != nil {
				e.notices.add(now, LevelError, fmt.Sprintf("could not list images: %v", err))
				return
			}
			if len(list) == 0 {
				e.notices.add(now, LevelInfo, "no images in the gallery folder")
				return
			}
			names := make([]string, len(list))
			for i, a := range list {
				names[i] = a.Name
			}
			e.submit(names, e.assetOpener(names), true)
		})
	})
}

// Upload stores an image with the asset provider and adds it to the gallery.
func (e *Engine) Upload(name string, r io.Reader) {
	if e.assets == nil {
		e.notices.add(e.last, LevelError, "no image store configured")
		return
	}
	e.goAsync(func(ctx context.Context) {
		a, err := e.assets.Upload(ctx, name, r)
		e.post(func(now time.Time) {
			if err != nil {
				e.notices.add(now, LevelError, fmt.Sprintf("upload %s failed: %v", name, err))
				return
			}
			e.submit([]string{a.Name}, e.assetOpener([]string{a.Name}), false)
		})
	})
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func fileOpener(paths []string) func(int) func(context.Context) (io.ReadCloser, error) {
	return func(i int) func(context.Context) (io.ReadCloser, error) {
		path := paths[i]
		return func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		}
	}
}

func (e *Engine) assetOpener(names []string) func(int) func(context.Context) (io.ReadCloser, error) {
	provider := e.assets
	return func(i int) func(context.Context) (io.ReadCloser, error) {
		name := names[i]
		return func(ctx context.Context) (io.ReadCloser, error) {
			return provider.Open(ctx, name)
		}
	}
}

// submit queues one job per name. Jobs the pool cannot take fail in place
// so the batch still completes.
func (e *Engine) submit(names []string, open func(int) func(context.Context) (io.ReadCloser, error), initiating bool) {
	if len(names) == 0 {
		return
	}
	id := e.nextBatch
	e.nextBatch++
	b := &batch{initiating: initiating, slots: make([]*result, len(names))}
	e.batches[id] = b

	for i, name := range names {
		j := job{batch: id, slot: i, name: name, open: open(i)}
		if !e.pool.Submit(j) {
			b.slots[i] = &result{batch: id, slot: i, name: name, err: errQueueFull}
		}
	}
	e.commit(id, b, e.last)
}

// accept files a pool result under its batch. Results of batches dropped by
// a reset are discarded.
func (e *Engine) accept(r result, now time.Time) {
	b, ok := e.batches[r.batch]
	if !ok || r.slot >= len(b.slots) {
		return
	}
	b.slots[r.slot] = &r
	e.commit(r.batch, b, now)
}

// commit applies the finished prefix of a batch.
func (e *Engine) commit(id uint64, b *batch, now time.Time) {
	for b.next < len(b.slots) && b.slots[b.next] != nil {
		r := b.slots[b.next]
		slot := b.next
		b.next++

		if r.err != nil {
			slog.Warn("image dropped", "name", r.name, "error", r.err)
			msg := fmt.Sprintf("could not load %s: %v", r.name, r.err)
			if b.initiating && slot == 0 {
				msg += " (keeping the current field)"
			}
			e.notices.add(now, LevelError, msg)
			continue
		}

		if b.initiating && slot == 0 {
			from := e.active
			e.gallery.Clear()
			e.active = -1
			i := e.addField(r.field)
			e.load(i, from, telemetry.ReasonLoad, now)
			b.added++
			continue
		}

		i := e.addField(r.field)
		b.added++
		if !b.initiating && !e.state.Loaded() {
			e.load(i, e.active, telemetry.ReasonLoad, now)
		}
	}

	if b.next < len(b.slots) {
		return
	}
	delete(e.batches, id)
	if b.added > 0 {
		if !b.initiating {
			e.countdown.Reset()
		}
		e.notices.add(now, LevelInfo, fmt.Sprintf("added %d of %d images", b.added, len(b.slots)))
	}
}

// addField appends f. A field whose name is already present replaces the
// stored entry, which moves to the end.
func (e *Engine) addField(f *field.Field) int {
	wasActive := false
	if old := e.gallery.IndexOf(f.Name); old >= 0 {
		e.gallery.Remove(old)
		switch {
		case old == e.active:
			wasActive = true
		case old < e.active:
			e.active--
		}
	}
	i := e.gallery.Add(f)
	if wasActive {
		e.active = i
	}
	e.syncCountdown()
	return i
}

// syncCountdown tells the scheduler how many entries it may cycle over.
// Without a displayed field it stays inert.
func (e *Engine) syncCountdown() {
	n := e.gallery.Len()
	if e.active < 0 {
		n = 0
	}
	e.countdown.SetSize(n)
}
