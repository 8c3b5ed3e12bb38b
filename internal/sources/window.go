package sources

import (
	"strconv"
	"strings"
	"time"
)

var postedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParsePosted parses the posting timestamp formats used by the supported sources.
// Zone-less values are read as UTC. Purely numeric values are unix seconds, or
// milliseconds when too large to be seconds.
func ParsePosted(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}

	for _, layout := range postedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// WithinWindow reports whether a posting is recent enough for q. Postings whose
// timestamp cannot be parsed are kept.
func WithinWindow(posted string, q Query) bool {
	window := q.Window()
	if window <= 0 {
		return true
	}

	t, ok := ParsePosted(posted)
	if !ok {
		return true
	}

	return !t.Before(q.now().Add(-window))
}
