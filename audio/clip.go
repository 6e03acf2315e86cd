package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// PCM is a decoded mono track.
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the track length.
func (p PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// DecodeMP3 decodes an entire MP3 stream to mono float samples.
func DecodeMP3(r io.Reader) (PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3 decode failed: %w", err)
	}

	pcm := PCM{SampleRate: dec.SampleRate()}
	buf := make([]byte, 4096)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm.Samples = appendStereo16(pcm.Samples, buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return PCM{}, fmt.Errorf("mp3 read failed: %w", err)
		}
	}
	if len(pcm.Samples) == 0 {
		return PCM{}, fmt.Errorf("mp3 contains no samples")
	}
	return pcm, nil
}

// appendStereo16 folds interleaved little-endian int16 stereo frames to mono.
func appendStereo16(dst []float64, b []byte) []float64 {
	for i := 0; i+3 < len(b); i += 4 {
		l := int16(b[i]) | int16(b[i+1])<<8
		r := int16(b[i+2]) | int16(b[i+3])<<8
		dst = append(dst, (float64(l)+float64(r))/(2*32768))
	}
	return dst
}

// Clip is a silent source that analyses a decoded track positioned by a
// clock. Headless runs use it in place of a Player.
type Clip struct {
	mu       sync.Mutex
	pcm      PCM
	analyser *Analyser
	now      func() time.Time
	start    time.Time
	pausedAt time.Duration
	paused   bool
	closed   bool
	loop     bool
}

// NewClip starts a clip at now().
func NewClip(pcm PCM, a *Analyser, now func() time.Time, loop bool) *Clip {
	if now == nil {
		now = time.Now
	}
	return &Clip{pcm: pcm, analyser: a, now: now, start: now(), loop: loop}
}

// DecodeClip decodes MP3 bytes into a clip.
func DecodeClip(data []byte, a *Analyser, now func() time.Time, loop bool) (*Clip, error) {
	pcm, err := DecodeMP3(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewClip(pcm, a, now, loop), nil
}

// Position returns the playback position.
func (c *Clip) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Clip) position() time.Duration {
	pos := c.pausedAt
	if !c.paused {
		pos = c.now().Sub(c.start)
	}
	d := c.pcm.Duration()
	if d <= 0 {
		return 0
	}
	if c.loop {
		return pos % d
	}
	return min(pos, d)
}

// Spectrum implements Source.
func (c *Clip) Spectrum(dst []uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.paused || len(c.pcm.Samples) == 0 {
		return false
	}
	pos := c.position()
	if !c.loop && pos >= c.pcm.Duration() {
		return false
	}

	end := int(pos.Seconds() * float64(c.pcm.SampleRate))
	end = min(max(end, 0), len(c.pcm.Samples))
	begin := max(0, end-c.analyser.Size())
	c.analyser.ByteFrequencyData(c.pcm.Samples[begin:end], dst)
	return true
}

// Pause implements Pauser.
func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.pausedAt = c.now().Sub(c.start)
	c.paused = true
}

// Resume implements Pauser.
func (c *Clip) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.start = c.now().Add(-c.pausedAt)
	c.paused = false
}

// Paused implements Pauser.
func (c *Clip) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Close implements Source.
func (c *Clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Clip) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
