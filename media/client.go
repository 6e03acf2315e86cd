// Package media talks to a NetEase-compatible music API for track search,
// stream URL resolution and lyrics.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pthm-cable/stellar/config"
)

var (
	// ErrNoStream means the track exists but no playable URL was returned
	// (region lock, VIP only, or no session).
	ErrNoStream = errors.New("no stream available")
	ErrNoLyrics = errors.New("no lyrics")
)

// sessionCookie is the cookie the API reads the login session from.
const sessionCookie = "MUSIC_U"

// Client is an HTTP client for the media API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration

	mu    sync.RWMutex
	token string
}

// NewClient constructs a client from config. A nil httpClient gets one with
// the configured timeout.
func NewClient(httpClient *http.Client, cfg config.MediaConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.Timeout * float64(time.Second))}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMs) * time.Millisecond,
		token:      cfg.SessionToken,
	}
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// HTTPClient returns the underlying client, for fetching stream bodies.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("media %s: %w", path, err)
	}
	c.mu.RLock()
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.token})
	}
	c.mu.RUnlock()

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("media %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("media %s: %w", path, err)
	}
	return nil
}

// apiCode checks the API's in-body status, which can be non-200 on an HTTP 200.
func apiCode(path string, code int) error {
	if code != 0 && code != http.StatusOK {
		return fmt.Errorf("media %s: api code %d", path, code)
	}
	return nil
}

// Search returns up to limit tracks matching keywords.
func (c *Client) Search(ctx context.Context, keywords string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 30
	}
	q := url.Values{}
	q.Set("keywords", keywords)
	q.Set("limit", strconv.Itoa(limit))

	var ws wireSearch
	if err := c.getJSON(ctx, "/cloudsearch", q, &ws); err != nil {
		return nil, err
	}
	if err := apiCode("/cloudsearch", ws.Code); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(ws.Result.Songs))
	for _, s := range ws.Result.Songs {
		tracks = append(tracks, mapSong(s))
	}
	return tracks, nil
}

// StreamURL resolves a playable URL for a track.
func (c *Client) StreamURL(ctx context.Context, id int64) (string, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	q.Set("level", "standard")

	var wu wireSongURL
	if err := c.getJSON(ctx, "/song/url/v1", q, &wu); err != nil {
		return "", err
	}
	if err := apiCode("/song/url/v1", wu.Code); err != nil {
		return "", err
	}
	for _, d := range wu.Data {
		if d.ID == id && d.URL != "" {
			return d.URL, nil
		}
	}
	return "", fmt.Errorf("track %d: %w", id, ErrNoStream)
}

// Lyrics fetches and parses the timed lyric of a track.
func (c *Client) Lyrics(ctx context.Context, id int64) (Lyrics, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))

	var wl wireLyric
	if err := c.getJSON(ctx, "/lyric", q, &wl); err != nil {
		return nil, err
	}
	if err := apiCode("/lyric", wl.Code); err != nil {
		return nil, err
	}
	lyr := ParseLRC(wl.LRC.Lyric)
	if len(lyr) == 0 {
		return nil, fmt.Errorf("track %d: %w", id, ErrNoLyrics)
	}
	return lyr, nil
}
