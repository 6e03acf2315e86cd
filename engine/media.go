package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/media"
)

// Attach makes src the audio source, closing the previous one. Lyrics of a
// previous track are dropped.
func (e *Engine) Attach(src audio.Source) {
	e.trackSeq++
	if err := e.deck.Attach(src); err != nil {
		slog.Warn("closing previous audio source", "error", err)
	}
	e.track = nil
	e.lyrics = nil
}

// TogglePlay pauses or resumes the audio source and reports whether it is
// now playing.
func (e *Engine) TogglePlay() bool {
	return e.deck.TogglePause()
}

// Search looks tracks up with the media provider. Results replace the
// previous ones when they arrive.
func (e *Engine) Search(keywords string) {
	if e.media == nil || keywords == "" {
		return
	}
	e.goAsync(func(ctx context.Context) {
		tracks, err := e.media.Search(ctx, keywords, 20)
		e.post(func(now time.Time) {
			if err != nil {
				e.notices.add(now, LevelError, fmt.Sprintf("search failed: %v", err))
				return
			}
			e.results = tracks
			if len(tracks) == 0 {
				e.notices.add(now, LevelInfo, fmt.Sprintf("nothing found for %q", keywords))
			}
		})
	})
}

// PlayTrack resolves and opens the stream of t, fetches its lyrics, and
// attaches it once ready. A newer PlayTrack or Attach supersedes a pending
// one.
func (e *Engine) PlayTrack(t media.Track) {
	if e.media == nil || e.openStream == nil {
		e.notices.add(e.last, LevelError, "no media provider configured")
		return
	}
	e.trackSeq++
	seq := e.trackSeq

	e.goAsync(func(ctx context.Context) {
		src, lyr, err := e.openTrack(ctx, t)
		e.post(func(now time.Time) {
			if err != nil {
				e.notices.add(now, LevelError, fmt.Sprintf("cannot play %s: %v", t.Name, err))
				return
			}
			if seq != e.trackSeq {
				src.Close()
				return
			}
			if err := e.deck.Attach(src); err != nil {
				slog.Warn("closing previous audio source", "error", err)
			}
			e.track = &t
			e.lyrics = lyr
			e.notices.add(now, LevelInfo, fmt.Sprintf("playing %s - %s", t.Name, t.Artist()))
		})
	})
}

func (e *Engine) openTrack(ctx context.Context, t media.Track) (audio.Source, media.Lyrics, error) {
	url, err := e.media.StreamURL(ctx, t.ID)
	if err != nil {
		return nil, nil, err
	}
	src, err := e.openStream(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	lyr, err := e.media.Lyrics(ctx, t.ID)
	if err != nil && !errors.Is(err, media.ErrNoLyrics) {
		slog.Warn("lyrics unavailable", "track", t.ID, "error", err)
	}
	return src, lyr, nil
}

// CurrentLyric returns the lyric line at the playback position.
func (e *Engine) CurrentLyric() string {
	if len(e.lyrics) == 0 {
		return ""
	}
	return e.lyrics.Current(e.deck.Position())
}
