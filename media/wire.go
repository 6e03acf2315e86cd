package media

import (
	"strings"
	"time"
)

// Wire shapes of the NetEase-compatible API. Only the fields we read.

type wireArtist struct {
	Name string `json:"name"`
}

type wireAlbum struct {
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

type wireSong struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Artists  []wireArtist `json:"ar"`
	Album    wireAlbum    `json:"al"`
	Duration int64        `json:"dt"` // ms
}

type wireSearch struct {
	Code   int `json:"code"`
	Result struct {
		Songs     []wireSong `json:"songs"`
		SongCount int        `json:"songCount"`
	} `json:"result"`
}

type wireSongURL struct {
	Code int `json:"code"`
	Data []struct {
		ID  int64  `json:"id"`
		URL string `json:"url"`
		BR  int    `json:"br"`
	} `json:"data"`
}

type wireLyric struct {
	Code int `json:"code"`
	LRC  struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	TLyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
}

func mapSong(s wireSong) Track {
	t := Track{
		ID:       s.ID,
		Name:     s.Name,
		Album:    s.Album.Name,
		Cover:    s.Album.PicURL,
		Duration: time.Duration(s.Duration) * time.Millisecond,
	}
	for _, a := range s.Artists {
		if a.Name != "" {
			t.Artists = append(t.Artists, a.Name)
		}
	}
	return t
}

// Track is one search result.
type Track struct {
	ID       int64
	Name     string
	Artists  []string
	Album    string
	Cover    string
	Duration time.Duration
}

// Artist returns the artists joined for display.
func (t Track) Artist() string {
	return strings.Join(t.Artists, " / ")
}
