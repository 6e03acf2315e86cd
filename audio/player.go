package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto/v2"
)

const (
	channelCount   = 2
	bytesPerFrame  = 4 // int16 stereo
	maxStreamBytes = 64 << 20
)

// Output wraps the process-wide oto context. The context is created on the
// first Play with that track's sample rate; oto allows only one per process.
type Output struct {
	mu    sync.Mutex
	ctx   *oto.Context
	ready chan struct{}
	rate  int
}

// Rate returns the output sample rate, or 0 before the first Play.
func (o *Output) Rate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

func (o *Output) context(rate int) (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx == nil {
		ctx, ready, err := oto.NewContext(rate, channelCount, oto.FormatSignedInt16LE)
		if err != nil {
			return nil, fmt.Errorf("audio output: %w", err)
		}
		o.ctx, o.ready, o.rate = ctx, ready, rate
	}
	if rate != o.rate {
		return nil, fmt.Errorf("audio output: track rate %d, device opened at %d", rate, o.rate)
	}
	<-o.ready
	return o.ctx, nil
}

// Player plays an MP3 through oto and taps the decoded samples for analysis.
type Player struct {
	mu       sync.Mutex
	out      oto.Player
	stream   *tapStream
	analyser *Analyser
	window   []float64
	paused   bool
	closed   bool
}

// Play decodes data and starts playback.
func (o *Output) Play(data []byte, a *Analyser, volume float64, loop bool) (*Player, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}
	ctx, err := o.context(dec.SampleRate())
	if err != nil {
		return nil, err
	}

	stream := &tapStream{
		dec:  dec,
		loop: loop,
		tap:  newRing(a.Size()),
		rate: dec.SampleRate(),
	}
	p := &Player{
		stream:   stream,
		analyser: a,
		window:   make([]float64, 0, a.Size()),
	}
	p.out = ctx.NewPlayer(stream)
	p.out.SetVolume(volume)
	p.out.Play()
	return p, nil
}

// Fetch downloads a track body for Play, bounded in size.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream fetch status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStreamBytes))
	if err != nil {
		return nil, fmt.Errorf("stream read failed: %w", err)
	}
	return data, nil
}

// Spectrum implements Source.
func (p *Player) Spectrum(dst []uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.paused {
		return false
	}
	p.window = p.stream.tap.snapshot(p.window)
	if len(p.window) == 0 {
		return false
	}
	p.analyser.ByteFrequencyData(p.window, dst)
	return true
}

// Pause implements Pauser.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.paused {
		return
	}
	p.out.Pause()
	p.paused = true
}

// Resume implements Pauser.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.paused {
		return
	}
	p.out.Play()
	p.paused = false
}

// Paused implements Pauser.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the audible playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	played := p.stream.consumed() - int64(p.out.UnplayedBufferSize())
	if played < 0 {
		played = 0
	}
	return time.Duration(played/bytesPerFrame) * time.Second / time.Duration(p.stream.rate)
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	p.out.Pause()
	if err := p.out.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	return nil
}

// tapStream feeds oto from the decoder and copies mono samples into the tap.
// Read runs on oto's goroutine.
type tapStream struct {
	mu    sync.Mutex
	dec   *mp3.Decoder
	loop  bool
	tap   *ring
	rate  int
	read  int64 // bytes read in the current pass
	scrap []float64
}

func (s *tapStream) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.dec.Read(b)
	if err == io.EOF && s.loop {
		if _, serr := s.dec.Seek(0, io.SeekStart); serr != nil {
			slog.Warn("audio loop rewind failed", "error", serr)
		} else {
			s.read = 0
			err = nil
		}
	}
	if n > 0 {
		s.read += int64(n)
		s.scrap = appendStereo16(s.scrap[:0], b[:n])
		s.tap.write(s.scrap)
	}
	return n, err
}

func (s *tapStream) consumed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read
}
