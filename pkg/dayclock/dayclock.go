// Package dayclock resolves "today" in the platform's canonical time zone.
// Snapshot-day boundaries must be deterministic regardless of where the
// process runs, so every day computation goes through a Clock built from
// configuration instead of the execution environment's local zone.
// No external dependencies - uses only standard library.
package dayclock

import (
	"fmt"
	"time"
)

// Day is a calendar day in the platform time zone, normalized to midnight.
type Day struct {
	t time.Time
}

// DayOf normalizes a time to the calendar day it falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{t: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)}
}

// FromDate builds a day from calendar components in loc. Use this when the
// source already names a calendar day (a SQL DATE column, say) and must not
// be shifted by zone conversion.
func FromDate(year int, month time.Month, dayOfMonth int, loc *time.Location) Day {
	return Day{t: time.Date(year, month, dayOfMonth, 0, 0, 0, 0, loc)}
}

// ParseDay parses a "2006-01-02" string as a day in loc.
func ParseDay(s string, loc *time.Location) (Day, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return Day{}, fmt.Errorf("dayclock: invalid day %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// Time returns midnight of the day in the platform time zone.
func (d Day) Time() time.Time {
	return d.t
}

// String returns the day in "2006-01-02" format.
func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Equal reports whether two days are the same calendar day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// Before reports whether d is earlier than other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// Sub returns the number of calendar days between d and other (d - other).
// DST makes zone-local midnights unevenly spaced (23h or 25h apart around a
// transition), so the distance is taken on the UTC calendar, where every day
// is exactly 24h.
func (d Day) Sub(other Day) int {
	a := time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(other.t.Year(), other.t.Month(), other.t.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// IsZero reports whether the day is uninitialized.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Clock provides time-zone-aware "now" and "today" for the engagement
// pipeline. The zero Clock is not usable; construct one with New.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Clock for the given platform time zone.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: time.Now}
}

// NewFixed creates a Clock whose Now always returns the given instant.
// Used in tests to make day boundaries deterministic.
func NewFixed(at time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: func() time.Time { return at }}
}

// Location returns the platform time zone.
func (c Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the platform time zone.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current calendar day in the platform time zone.
func (c Clock) Today() Day {
	return c.DayOf(c.now())
}

// DayOf normalizes a time to its calendar day in the platform time zone.
func (c Clock) DayOf(t time.Time) Day {
	return DayOf(t, c.loc)
}

// StartOfDay returns midnight of the day t falls on.
func (c Clock) StartOfDay(t time.Time) time.Time {
	return c.DayOf(t).Time()
}

// DaysAgo returns the instant n*24h boundaries back from the start of today.
func (c Clock) DaysAgo(n int) time.Time {
	return c.Today().AddDays(-n).Time()
}
