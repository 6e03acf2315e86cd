package engine

import (
	"context"
	"io"

	"github.com/pthm-cable/stellar/assets"
	"github.com/pthm-cable/stellar/audio"
	"github.com/pthm-cable/stellar/media"
)

// AssetProvider is the local image store. assets.Store implements it.
type AssetProvider interface {
	List(ctx context.Context) ([]assets.Asset, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Upload(ctx context.Context, name string, r io.Reader) (assets.Asset, error)
	Delete(ctx context.Context, name string) error
}

// MediaProvider resolves tracks to streams and lyrics. media.Client
// implements it.
type MediaProvider interface {
	Search(ctx context.Context, keywords string, limit int) ([]media.Track, error)
	StreamURL(ctx context.Context, id int64) (string, error)
	Lyrics(ctx context.Context, id int64) (media.Lyrics, error)
}

// StreamOpener turns a resolved stream URL into a playing source. The
// windowed build plays through audio.Output; headless runs decode a Clip.
type StreamOpener func(ctx context.Context, url string) (audio.Source, error)

var (
	_ AssetProvider = (*assets.Store)(nil)
	_ MediaProvider = (*media.Client)(nil)
)
