// Package calendar normalizes instants to the school's local calendar (America/Sao_Paulo)
// and renders the pt-BR labels shown to staff.
package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // the local calendar must not depend on the host zoneinfo

	"github.com/pkg/errors"
)

// Clock returns the current instant. Services receive one so that tests can pin "now".
type Clock func() time.Time

// Location is the school's timezone; every calendar computation happens in it.
var Location = loadLocation("America/Sao_Paulo")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// SetTimezone switches Location; unknown names are rejected and leave Location untouched.
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return errors.Wrapf(err, "loading timezone %q", name)
	}
	Location = loc
	return nil
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func Local(t time.Time) time.Time {
	return t.In(Location)
}

// Date returns local midnight of the given calendar day. Out of range values are normalized.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

func StartOfDay(t time.Time) time.Time {
	t = Local(t)
	return Date(t.Year(), t.Month(), t.Day())
}

// EndOfDay returns the last nanosecond of t's local day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func StartOfMonth(t time.Time) time.Time {
	t = Local(t)
	return Date(t.Year(), t.Month(), 1)
}

// EndOfMonth returns the last nanosecond of t's local month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthRange returns the first and last instants of a month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := Date(year, month, 1)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DaysIn returns the number of days of a month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// ClampedDate returns the `day` of the month `months` after (year, month), clamped to the
// last day of that month (31 in February gives 28 or 29).
func ClampedDate(year int, month time.Month, months, day int) time.Time {
	first := Date(year, month+time.Month(months), 1)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date(first.Year(), first.Month(), day)
}

func SameDay(a, b time.Time) bool {
	a, b = Local(a), Local(b)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func SameMonth(a, b time.Time) bool {
	a, b = Local(a), Local(b)
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ParseClock converts a 24h "HH:MM" time to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, errors.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// At returns the instant of the "HH:MM" time on day's local calendar day.
func At(day time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(day).Add(time.Duration(minutes) * time.Minute), nil
}

// TimePeriod buckets a "HH:MM" time into a day period: 05-12 Manhã, 12-18 Tarde, otherwise Noite.
func TimePeriod(clock string) string {
	minutes, err := ParseClock(clock)
	if err != nil {
		return ""
	}
	switch h := minutes / 60; {
	case h >= 5 && h < 12:
		return "Manhã"
	case h >= 12 && h < 18:
		return "Tarde"
	default:
		return "Noite"
	}
}

// DurationMinutes returns the minutes between two "HH:MM" times.
// An end at or before the start is taken as the next day.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		e += 24 * 60
	}
	return e - s, nil
}

// DaysBetween returns the whole local calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	sa, sb := StartOfDay(a), StartOfDay(b)
	ua := time.Date(sa.Year(), sa.Month(), sa.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(sb.Year(), sb.Month(), sb.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(ub.Sub(ua).Hours() / 24))
}
