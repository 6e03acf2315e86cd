package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/stellar/assets"
	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/config"
	"github.com/pthm-cable/stellar/media"
	"github.com/pthm-cable/stellar/morph"
)

// fakeAssets is an in-memory AssetProvider.
type fakeAssets struct {
	mu        sync.Mutex
	names     []string
	data      map[string][]byte
	deleteErr error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{data: make(map[string][]byte)}
}

func (f *fakeAssets) put(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[name]; !ok {
		f.names = append(f.names, name)
	}
	f.data[name] = data
}

func (f *fakeAssets) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[name]
	return ok
}

func (f *fakeAssets) List(ctx context.Context) ([]assets.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]assets.Asset, len(f.names))
	for i, n := range f.names {
		out[i] = assets.Asset{Name: n, Size: int64(len(f.data[n]))}
	}
	return out, nil
}

func (f *fakeAssets) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[name]
	if !ok {
		return nil, assets.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (f *fakeAssets) Upload(ctx context.Context, name string, r io.Reader) (assets.Asset, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return assets.Asset{}, err
	}
	f.put(name, d)
	return assets.Asset{Name: name, Size: int64(len(d))}, nil
}

func (f *fakeAssets) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.data[name]; !ok {
		return assets.ErrNotFound
	}
	delete(f.data, name)
	f.names = slices.DeleteFunc(f.names, func(n string) bool { return n == name })
	return nil
}

// fakeSource is an audio source that reports a flat spectrum.
type fakeSource struct {
	mu     sync.Mutex
	level  uint8
	pos    time.Duration
	closed bool
}

func (s *fakeSource) Spectrum(dst []uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for i := range dst {
		dst[i] = s.level
	}
	return true
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) Position() time.Duration { return s.pos }

type fakeMedia struct {
	urlErr error
}

func (m *fakeMedia) Search(ctx context.Context, keywords string, limit int) ([]media.Track, error) {
	return []media.Track{{ID: 1, Name: keywords}}, nil
}

func (m *fakeMedia) StreamURL(ctx context.Context, id int64) (string, error) {
	if m.urlErr != nil {
		return "", m.urlErr
	}
	return fmt.Sprintf("http://stream/%d", id), nil
}

func (m *fakeMedia) Lyrics(ctx context.Context, id int64) (media.Lyrics, error) {
	if id == 2 {
		return nil, media.ErrNoLyrics
	}
	return media.Lyrics{{Time: 0, Text: "first"}, {Time: 2 * time.Second, Text: "second"}}, nil
}

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			dx, dy := x-12, y-12
			if dx*dx+dy*dy < 100 {
				img.Set(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Field.MetadataSeed = 7
	cfg.Cycle.Workers = 2
	cfg.Params.Stay = 2
	cfg.Params.MorphDuration = 1
	cfg.Params = cfg.Params.Clamped()
	return cfg
}

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	opts.FrameCountdown = true
	e := New(testConfig(t), opts)
	e.Start(context.Background())
	t.Cleanup(func() { e.Close() })
	return e
}

// settle ticks at now until every background request has been applied.
func settle(t *testing.T, e *Engine, now time.Time) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for {
		e.Tick(now)
		if e.Pending() == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("background work did not finish, %d pending", e.Pending())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func galleryOf(t *testing.T, names ...string) *fakeAssets {
	t.Helper()
	fa := newFakeAssets()
	colors := []color.RGBA{
		{255, 40, 40, 255}, {40, 255, 40, 255}, {40, 40, 255, 255}, {255, 255, 40, 255},
	}
	for i, n := range names {
		fa.put(n, pngBytes(t, colors[i%len(colors)]))
	}
	return fa
}

func loaded(t *testing.T, fa *fakeAssets) *Engine {
	t.Helper()
	e := newTestEngine(t, Options{Assets: fa})
	e.Tick(t0)
	e.LoadAssets()
	settle(t, e, t0)
	return e
}

func TestLoadAssetsFirstBecomesActive(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png", "c.png"))

	st := e.Status()
	if st.Active != 0 {
		t.Errorf("active = %d, want 0", st.Active)
	}
	if len(st.Entries) != 3 {
		t.Fatalf("gallery has %d entries, want 3", len(st.Entries))
	}
	for i, want := range []string{"a.png", "b.png", "c.png"} {
		if st.Entries[i].Name != want {
			t.Errorf("entry %d = %s, want %s", i, st.Entries[i].Name, want)
		}
	}
	if !e.state.Loaded() || st.Formation != 0 {
		t.Errorf("loaded = %v, formation = %v", e.state.Loaded(), st.Formation)
	}
}

func TestLoadFirstFailureKeepsState(t *testing.T) {
	fa := galleryOf(t, "b.png", "c.png")
	fa.names = append([]string{"broken.png"}, fa.names...)
	fa.data["broken.png"] = []byte("not an image")

	e := loaded(t, fa)
	st := e.Status()
	if e.state.Loaded() || st.Active != -1 {
		t.Errorf("loaded = %v, active = %d; want nothing loaded", e.state.Loaded(), st.Active)
	}
	if len(st.Entries) != 2 {
		t.Errorf("gallery has %d entries, want the 2 decodable ones", len(st.Entries))
	}
	if !slices.ContainsFunc(st.Notices, func(n Notice) bool { return n.Level == LevelError }) {
		t.Error("expected an error notice for the broken image")
	}
	if snap := st.Countdown; snap.Size != 0 {
		t.Errorf("countdown size = %d, want inert without a field", snap.Size)
	}
}

func TestLoadFailureAfterFieldPreservesIt(t *testing.T) {
	fa := galleryOf(t, "a.png", "b.png")
	e := loaded(t, fa)
	before := slices.Clone(e.state.Current.Position)

	fa.put("bad.png", []byte("junk"))
	fa.mu.Lock()
	fa.names = []string{"bad.png", "a.png"}
	fa.mu.Unlock()
	e.LoadAssets()
	settle(t, e, t0)

	if !e.state.Loaded() || !slices.Equal(before, e.state.Current.Position) {
		t.Error("failed first image replaced the displayed field")
	}
}

func TestAutoCycleWraps(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png", "c.png"))

	seq := []int{e.Status().Active}
	now := t0
	for i := 0; i < 400; i++ {
		now = now.Add(100 * time.Millisecond)
		e.Tick(now)
		if a := e.Status().Active; a != seq[len(seq)-1] {
			seq = append(seq, a)
		}
	}
	want := []int{0, 1, 2, 0, 1}
	if len(seq) < len(want) || !slices.Equal(seq[:len(want)], want) {
		t.Errorf("active sequence = %v, want prefix %v", seq, want)
	}
}

func TestSingleEntryIsInert(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png"))
	now := t0
	for i := 0; i < 100; i++ {
		now = now.Add(100 * time.Millisecond)
		e.Tick(now)
	}
	st := e.Status()
	if st.Active != 0 || st.InFlight || st.Countdown.Remaining != st.Countdown.Stay {
		t.Errorf("single entry cycled: %+v", st.Countdown)
	}
}

func TestSelectActiveIsNoop(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png"))
	e.SetAuto(false)
	now := t0.Add(1500 * time.Millisecond)
	e.Tick(now)
	before := e.Status()

	if err := e.Select(0); err != nil {
		t.Fatalf("select active: %v", err)
	}
	e.Tick(now)
	after := e.Status()
	if after.Active != 0 || after.InFlight || after.Morph != before.Morph ||
		after.Formation != before.Formation || after.Countdown != before.Countdown {
		t.Errorf("selecting the active entry changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestSelectRejectedInFlight(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png", "c.png"))
	e.SetAuto(false)
	e.Tick(t0.Add(time.Second))

	if err := e.Select(1); err != nil {
		t.Fatalf("select 1: %v", err)
	}
	if err := e.Select(2); !errors.Is(err, morph.ErrMorphInFlight) {
		t.Fatalf("select during morph: err = %v, want ErrMorphInFlight", err)
	}
	if e.Status().Active != 1 {
		t.Errorf("active = %d, want 1", e.Status().Active)
	}
	if err := e.Select(7); err != nil || e.Status().Active != 1 {
		t.Errorf("select missing index: err %v, active %d", err, e.Status().Active)
	}
}

func TestLoadSettleRetargetScenario(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png"))
	e.SetAuto(false)

	settled := t0.Add(10 * time.Second)
	e.Tick(settled)
	if f := e.Status().Formation; f != 1 {
		t.Fatalf("formation = %v after the formation window, want 1", f)
	}

	if err := e.Select(1); err != nil {
		t.Fatal(err)
	}
	e.Tick(settled.Add(500 * time.Millisecond))
	if m := e.Status().Morph; m <= 0 || m >= 1 {
		t.Errorf("morph halfway = %v, want in (0,1)", m)
	}

	e.Tick(settled.Add(time.Second))
	st := e.Status()
	if st.InFlight || st.Morph != 0 {
		t.Errorf("ramp not finished: inflight %v morph %v", st.InFlight, st.Morph)
	}
	b, _ := e.gallery.At(1)
	if !slices.Equal(e.state.Current.Position, b.Buffers.Position) || !slices.Equal(e.state.Current.Color, b.Buffers.Color) {
		t.Error("current buffers do not equal the target field")
	}
	if st.Countdown.Remaining != st.Countdown.Stay {
		t.Errorf("countdown = %d, want reset to %d", st.Countdown.Remaining, st.Countdown.Stay)
	}
}

func TestDeleteActiveRetargetsNext(t *testing.T) {
	fa := galleryOf(t, "a.png", "b.png", "c.png")
	e := loaded(t, fa)

	e.Delete(0)
	settle(t, e, t0)

	st := e.Status()
	if len(st.Entries) != 2 || st.Entries[0].Name != "b.png" {
		t.Fatalf("entries = %+v", st.Entries)
	}
	if st.Active != 0 || !st.InFlight {
		t.Errorf("active = %d inflight = %v, want morph to b.png", st.Active, st.InFlight)
	}
	if fa.has("a.png") {
		t.Error("asset provider still has a.png")
	}
}

func TestDeleteBeforeActiveShiftsIndex(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png", "c.png"))
	e.SetAuto(false)
	e.Tick(t0.Add(time.Second))
	if err := e.Select(2); err != nil {
		t.Fatal(err)
	}

	e.Delete(0)
	settle(t, e, t0.Add(time.Second))
	if a := e.Status().Active; a != 1 {
		t.Errorf("active = %d, want 1 after removing an earlier entry", a)
	}
}

func TestDeleteLastEntryResets(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png"))

	e.Delete(0)
	settle(t, e, t0)

	st := e.Status()
	if e.state.Loaded() || st.Active != -1 || len(st.Entries) != 0 {
		t.Errorf("loaded %v active %d entries %d; want pre-load state", e.state.Loaded(), st.Active, len(st.Entries))
	}
	if e.Frame().Current.Position != nil {
		t.Error("frame still references buffers")
	}
}

func TestDeleteErrorLeavesState(t *testing.T) {
	fa := galleryOf(t, "a.png", "b.png")
	e := loaded(t, fa)
	fa.deleteErr = errors.New("disk on fire")

	e.Delete(0)
	settle(t, e, t0)

	st := e.Status()
	if len(st.Entries) != 2 || st.Active != 0 {
		t.Errorf("state changed after failed delete: %d entries, active %d", len(st.Entries), st.Active)
	}
	if !slices.ContainsFunc(st.Notices, func(n Notice) bool { return n.Level == LevelError }) {
		t.Error("expected an error notice")
	}
}

func TestUploadExpandsWithoutReload(t *testing.T) {
	fa := galleryOf(t, "a.png")
	e := loaded(t, fa)
	e.Tick(t0.Add(3 * time.Second))
	formation := e.Status().Formation

	e.Upload("new.png", bytes.NewReader(pngBytes(t, color.RGBA{200, 100, 50, 255})))
	settle(t, e, t0.Add(3*time.Second))

	st := e.Status()
	if len(st.Entries) != 2 || st.Entries[1].Name != "new.png" {
		t.Fatalf("entries = %+v", st.Entries)
	}
	if st.Active != 0 || st.Formation != formation {
		t.Errorf("upload reloaded the field: active %d formation %v", st.Active, st.Formation)
	}
	if !fa.has("new.png") {
		t.Error("upload did not reach the provider")
	}
}

func TestUploadIntoEmptyLoads(t *testing.T) {
	e := newTestEngine(t, Options{Assets: newFakeAssets()})
	e.Tick(t0)
	e.Upload("first.png", bytes.NewReader(pngBytes(t, color.RGBA{255, 255, 255, 255})))
	settle(t, e, t0)

	if !e.state.Loaded() || e.Status().Active != 0 {
		t.Error("first upload into an empty gallery should load it")
	}
}

func TestReset(t *testing.T) {
	e := loaded(t, galleryOf(t, "a.png", "b.png"))
	e.Reset()
	e.Tick(t0)

	st := e.Status()
	if e.state.Loaded() || st.Active != -1 || len(st.Entries) != 0 || st.Pending != 0 {
		t.Errorf("reset left state: %+v", st)
	}
}

func TestSetParamsClamps(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.SetParams(config.Params{Saturation: 9, Brightness: -5, Stay: 0, MorphDuration: 100})

	p := e.Params()
	if p.Saturation != 3 || p.Brightness != -1 || p.Stay != 1 || p.MorphDuration != 30 {
		t.Errorf("params = %+v", p)
	}
	if s := e.countdown.Snapshot().Stay; s != 1 {
		t.Errorf("countdown stay = %d, want 1", s)
	}

	e.ResetParams()
	if p := e.Params(); p.Saturation != 0.5 || p.Stay != 1 || e.countdown.Auto() {
		t.Errorf("after reset params = %+v auto = %v", p, e.countdown.Auto())
	}
}

func TestPlayTrack(t *testing.T) {
	var opened []*fakeSource
	e := newTestEngine(t, Options{
		Media: &fakeMedia{},
		Stream: func(ctx context.Context, url string) (audio.Source, error) {
			s := &fakeSource{level: 200, pos: 3 * time.Second}
			opened = append(opened, s)
			return s, nil
		},
	})
	e.Tick(t0)

	e.PlayTrack(media.Track{ID: 1, Name: "one"})
	settle(t, e, t0)
	st := e.Status()
	if st.Track == nil || st.Track.ID != 1 || st.Lyric != "second" {
		t.Errorf("track %+v lyric %q", st.Track, st.Lyric)
	}

	e.Tick(t0.Add(16 * time.Millisecond))
	if e.Status().Bands.Level <= 0 {
		t.Error("bands did not react to the attached source")
	}

	e.PlayTrack(media.Track{ID: 2, Name: "two"})
	settle(t, e, t0)
	if len(opened) != 2 || !opened[0].closed {
		t.Errorf("previous source not closed (opened %d)", len(opened))
	}
	if l := e.Status().Lyric; l != "" {
		t.Errorf("lyric = %q, want none for a track without lyrics", l)
	}
}

func TestPlayTrackErrorNotifies(t *testing.T) {
	e := newTestEngine(t, Options{
		Media:  &fakeMedia{urlErr: media.ErrNoStream},
		Stream: func(ctx context.Context, url string) (audio.Source, error) { return &fakeSource{}, nil },
	})
	e.Tick(t0)
	e.PlayTrack(media.Track{ID: 9, Name: "locked"})
	settle(t, e, t0)

	st := e.Status()
	if st.Track != nil || e.deck.Active() {
		t.Error("failed track was attached")
	}
	if len(st.Notices) == 0 || st.Notices[0].Level != LevelError {
		t.Errorf("notices = %+v", st.Notices)
	}
}

func TestSearch(t *testing.T) {
	e := newTestEngine(t, Options{Media: &fakeMedia{}})
	e.Tick(t0)
	e.Search("aurora")
	settle(t, e, t0)
	if r := e.Status().Results; len(r) != 1 || r[0].Name != "aurora" {
		t.Errorf("results = %+v", r)
	}
}

func TestNoticesExpire(t *testing.T) {
	n := newNotices(time.Second)
	n.add(t0, LevelInfo, "a")
	n.add(t0.Add(500*time.Millisecond), LevelError, "b")

	n.expire(t0.Add(time.Second))
	if len(n.items) != 1 || n.items[0].Text != "b" {
		t.Errorf("items = %+v", n.items)
	}
	n.expire(t0.Add(2 * time.Second))
	if len(n.items) != 0 {
		t.Errorf("items = %+v, want none", n.items)
	}
}

func TestPoolSubmitDropsWhenFull(t *testing.T) {
	p := NewPool(nil, 1)
	open := func(context.Context) (io.ReadCloser, error) { return nil, errors.New("unused") }
	if !p.Submit(job{name: "a", open: open}) {
		t.Fatal("first job rejected")
	}
	if p.Submit(job{name: "b", open: open}) {
		t.Error("second job accepted by a full queue")
	}
}
