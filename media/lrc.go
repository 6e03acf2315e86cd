package media

import (
	"bufio"
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Line is one timed lyric line.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics is a timeline sorted by Time.
type Lyrics []Line

// ParseLRC parses LRC text. A line may carry several [mm:ss.xx] stamps; the
// [offset:ms] tag shifts every stamp. Metadata tags and untimed lines are
// skipped; empty-text lines are kept so a lyric can be cleared.
func ParseLRC(text string) Lyrics {
	var out Lyrics
	var offset time.Duration

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		rest := strings.TrimSpace(sc.Text())
		var stamps []time.Duration
		for strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				break
			}
			tag := rest[1:end]
			rest = rest[end+1:]

			if v, ok := strings.CutPrefix(tag, "offset:"); ok {
				if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					offset = time.Duration(ms) * time.Millisecond
				}
				continue
			}
			if d, ok := parseStamp(tag); ok {
				stamps = append(stamps, d)
			}
		}
		for _, d := range stamps {
			out = append(out, Line{Time: d, Text: strings.TrimSpace(rest)})
		}
	}

	// Positive offset shows lyrics earlier
	for i := range out {
		out[i].Time = max(out[i].Time-offset, 0)
	}
	slices.SortStableFunc(out, func(a, b Line) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}

// parseStamp parses mm:ss, mm:ss.x, mm:ss.xx or mm:ss.xxx.
func parseStamp(tag string) (time.Duration, bool) {
	mm, ss, ok := strings.Cut(tag, ":")
	if !ok {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 {
		return 0, false
	}
	s, err := strconv.ParseFloat(ss, 64)
	if err != nil || s < 0 || s >= 60 {
		return 0, false
	}
	return time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second)+0.5), true
}

// Current returns the line showing at playback position pos, or "" before
// the first line.
func (l Lyrics) Current(pos time.Duration) string {
	i, found := slices.BinarySearchFunc(l, pos, func(line Line, t time.Duration) int {
		return cmp.Compare(line.Time, t)
	})
	if found {
		// Last line sharing this stamp
		for i+1 < len(l) && l[i+1].Time == pos {
			i++
		}
		return l[i].Text
	}
	if i == 0 {
		return ""
	}
	return l[i-1].Text
}
