package engine

import (
	"log/slog"
	"time"
)

// Level is the severity of a notice.
type Level uint8

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is a short message shown on screen until it expires.
type Notice struct {
	Text    string
	Level   Level
	Expires time.Time
}

// notices keeps the visible messages, newest last.
type notices struct {
	ttl   time.Duration
	items []Notice
	limit int
}

func newNotices(ttl time.Duration) *notices {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &notices{ttl: ttl, limit: 5}
}

func (n *notices) add(now time.Time, level Level, text string) {
	if level == LevelError {
		slog.Warn("notice", "text", text)
	} else {
		slog.Info("notice", "text", text)
	}
	n.items = append(n.items, Notice{Text: text, Level: level, Expires: now.Add(n.ttl)})
	if len(n.items) > n.limit {
		n.items = n.items[len(n.items)-n.limit:]
	}
}

// expire drops notices whose time has passed.
func (n *notices) expire(now time.Time) {
	kept := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.Expires) {
			kept = append(kept, it)
		}
	}
	n.items = kept
}
