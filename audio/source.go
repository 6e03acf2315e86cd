package audio

import (
	"errors"
	"sync"
	"time"
)

// Source yields frequency snapshots of whatever is playing.
type Source interface {
	// Spectrum fills dst with byte frequency data. It returns false when the
	// source is paused or has nothing to analyse.
	Spectrum(dst []uint8) bool
	Close() error
}

// Pauser is implemented by sources with transport control.
type Pauser interface {
	Pause()
	Resume()
	Paused() bool
}

// Positioner is implemented by sources that know their playback position.
type Positioner interface {
	Position() time.Duration
}

// Deck owns the active source. Attaching a new source tears the previous one
// down completely first.
type Deck struct {
	mu  sync.Mutex
	src Source
}

// Attach closes the current source, if any, and makes src active.
func (d *Deck) Attach(src Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.src != nil {
		err = d.src.Close()
	}
	d.src = src
	return err
}

// Detach closes and forgets the current source.
func (d *Deck) Detach() error {
	return d.Attach(nil)
}

// Active reports whether a source is attached.
func (d *Deck) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.src != nil
}

// Spectrum implements Source by delegating to the attached source.
func (d *Deck) Spectrum(dst []uint8) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.src == nil {
		return false
	}
	return d.src.Spectrum(dst)
}

// Close detaches the current source.
func (d *Deck) Close() error {
	return d.Detach()
}

// TogglePause flips the transport state of the attached source and returns
// whether it is now playing.
func (d *Deck) TogglePause() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.src.(Pauser)
	if !ok {
		return false
	}
	if p.Paused() {
		p.Resume()
		return true
	}
	p.Pause()
	return false
}

// Playing reports whether an attached source is producing sound.
func (d *Deck) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.src == nil {
		return false
	}
	if p, ok := d.src.(Pauser); ok {
		return !p.Paused()
	}
	return true
}

// Position returns the playback position of the attached source, or zero.
func (d *Deck) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.src.(Positioner); ok {
		return p.Position()
	}
	return 0
}

// ErrClosed is returned by operations on a closed source.
var ErrClosed = errors.New("audio: source closed")

// ring keeps the most recent mono samples for analysis.
type ring struct {
	mu   sync.Mutex
	buf  []float64
	next int
	full bool
}

func newRing(n int) *ring {
	return &ring{buf: make([]float64, n)}
}

func (r *ring) write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.buf[r.next] = s
		r.next++
		if r.next == len(r.buf) {
			r.next = 0
			r.full = true
		}
	}
}

// snapshot copies the buffer oldest-first into dst and returns the filled slice.
func (r *ring) snapshot(dst []float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst = dst[:0]
	if r.full {
		dst = append(dst, r.buf[r.next:]...)
	}
	return append(dst, r.buf[:r.next]...)
}
