package model

import (
	"math"
	"strings"
	"time"
)

// UnknownTime is the sentinel for a missing or unparseable timestamp. It
// compares as older than every real instant.
const UnknownTime int64 = math.MinInt64

// ReferenceClock is the injected "now" every time-sensitive derivation reads.
// Location is used to interpret zone-less fixture timestamps and to render
// clock text; nil means UTC.
type ReferenceClock struct {
	NowMs    int64
	Location *time.Location
}

// NewReferenceClock builds a clock at t, in t's location.
func NewReferenceClock(t time.Time) ReferenceClock {
	return ReferenceClock{NowMs: t.UnixMilli(), Location: t.Location()}
}

// Loc returns the clock location, defaulting to UTC.
func (c ReferenceClock) Loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Time returns the clock instant in its location.
func (c ReferenceClock) Time() time.Time {
	return time.UnixMilli(c.NowMs).In(c.Loc())
}

// At returns a copy of the clock moved to ms.
func (c ReferenceClock) At(ms int64) ReferenceClock {
	return ReferenceClock{NowMs: ms, Location: c.Location}
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a fixture timestamp into epoch milliseconds.
// Zone-less values are read in loc (UTC when nil). It reports false for empty
// or unparseable input.
func ParseTimestamp(s string, loc *time.Location) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownTime, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UnixMilli(), true
		}
	}
	return UnknownTime, false
}

// TimestampOrUnknown is ParseTimestamp without the ok flag.
func TimestampOrUnknown(s string, loc *time.Location) int64 {
	ms, _ := ParseTimestamp(s, loc)
	return ms
}

// FormatLocal renders ms as a zone-less local timestamp, or "" for UnknownTime.
func FormatLocal(ms int64, loc *time.Location) string {
	if ms == UnknownTime {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02T15:04:05")
}
