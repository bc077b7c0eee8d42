// Package timetag converts ATDF epochs and formats time tags the way the
// observable tables print them.
package timetag

import (
	"math"
	"strings"
	"time"
)

// Layout is the table time format, e.g. "05-Mar-1998 12:00:30.500000".
const Layout = "02-Jan-2006 15:04:05.000000"

// BaseYear is added to the two- or three-digit years stored in records.
const BaseYear = 1900

// FromDayOfYear builds a UTC time from a year offset and day of year.
// Day 1 is January 1st; out-of-range values normalise like time.Date.
func FromDayOfYear(yearOffset, doy, hour, minute, second int) time.Time {
	return time.Date(BaseYear+yearOffset, time.January, 1, hour, minute, second, 0, time.UTC).
		AddDate(0, 0, doy-1)
}

// Seconds converts a floating point interval to a Duration at microsecond
// resolution, so repeated additions of 0.1 s land on exact tags.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}

// Add offsets t by s seconds.
func Add(t time.Time, s float64) time.Time { return t.Add(Seconds(s)) }

// Format renders t in Layout, in UTC.
func Format(t time.Time) string { return t.UTC().Format(Layout) }

// Parse is the inverse of Format.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
}

// Span is a closed observation window.
type Span struct {
	Start time.Time
	End   time.Time
}

// IsZero reports an unset span.
func (s Span) IsZero() bool { return s.Start.IsZero() && s.End.IsZero() }

// Extend grows the span to cover t.
func (s Span) Extend(t time.Time) Span {
	if s.IsZero() {
		return Span{Start: t, End: t}
	}
	if t.Before(s.Start) {
		s.Start = t
	}
	if t.After(s.End) {
		s.End = t
	}
	return s
}

// Duration is End minus Start.
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }
