package query

import (
	"math"
	"time"

	"github.com/maypok86/otter"
)

type parsed struct {
	t  time.Time
	ok bool
}

// created_at values repeat on every request, the set is small and immutable per record
var timestamps = func() otter.Cache[string, parsed] {
	c, err := otter.MustBuilder[string, parsed](10_000).Build()
	if err != nil {
		panic(err)
	}
	return c
}()

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTimestamp parses an ISO-8601 timestamp as stored in created_at.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(s string) (time.Time, bool) {
	if p, found := timestamps.Get(s); found {
		return p.t, p.ok
	}
	t, ok := ParseTimestamp(s)
	timestamps.Set(s, parsed{t: t, ok: ok})
	return t, ok
}

// epochNanos orders unparseable timestamps before every valid one.
func epochNanos(s string) int64 {
	t, ok := parseTimestamp(s)
	if !ok {
		return math.MinInt64
	}
	return t.UnixNano()
}
