// Package calendar implements the timezone-aware calendar kernel (spec §4.1):
// start-of-day, same-day comparison, day/hour differences, and week/month/
// year interval endpoints. Every function is pure over (instant, zone).
package calendar

import (
	"fmt"
	"math"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// Interval is a closed [Start, End] local-time window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End] inclusive.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// LoadZone resolves an IANA zone name, wrapping the stdlib's own error so
// callers can recognize it as the spec's "unknown zone" failure.
func LoadZone(zone string) (*time.Location, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrUnknownZone, zone, err)
	}
	return loc, nil
}

// StartOfDay returns the instant representing 00:00:00 local time in zone
// on the calendar day that contains instant. Unlike a fixed-duration
// truncation, this reads the local wall clock and rebuilds midnight from
// its Y/M/D, so it is correct across DST transitions and non-hour offsets.
func StartOfDay(instant time.Time, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return startOfDayIn(instant, loc), nil
}

func startOfDayIn(instant time.Time, loc *time.Location) time.Time {
	local := instant.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time, zone string) (bool, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return false, err
	}
	return startOfDayIn(a, loc).Equal(startOfDayIn(b, loc)), nil
}

// DaysBetween returns the rounded whole-day difference of
// start_of_day(b) - start_of_day(a) in zone. Positive when b is after a.
func DaysBetween(a, b time.Time, zone string) (int, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return 0, err
	}
	sa := startOfDayIn(a, loc)
	sb := startOfDayIn(b, loc)
	hours := sb.Sub(sa).Hours()
	return int(math.Round(hours / 24)), nil
}

// HoursBetween returns the floored wall-time difference, in whole hours,
// of b - a. No timezone is needed: it operates on the instants directly.
func HoursBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours()))
}

// WeekInterval returns the Sunday 00:00 local through Saturday 23:59:59.999
// local window that contains instant. ok is false when zone is unrecognized.
func WeekInterval(instant time.Time, zone string) (iv Interval, ok bool) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Interval{}, false
	}
	today := startOfDayIn(instant, loc)
	weekday := int(today.Weekday()) // Sunday == 0
	start := today.AddDate(0, 0, -weekday)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return Interval{Start: start, End: end}, true
}

// MonthInterval returns the first-of-month 00:00 through last-of-month
// 23:59:59.999 local window that contains instant. The last day is derived
// by stepping to the first of the next month and subtracting, avoiding
// month-length hazards. ok is false when zone is unrecognized.
func MonthInterval(instant time.Time, zone string) (iv Interval, ok bool) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Interval{}, false
	}
	local := instant.In(loc)
	y, m, _ := local.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return Interval{Start: start, End: end}, true
}

// YearInterval returns January 1 00:00 local through December 31
// 23:59:59.999 local for the year containing instant. ok is false when
// zone is unrecognized.
func YearInterval(instant time.Time, zone string) (iv Interval, ok bool) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Interval{}, false
	}
	local := instant.In(loc)
	start := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0).Add(-time.Millisecond)
	return Interval{Start: start, End: end}, true
}
