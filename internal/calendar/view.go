// Package calendar materialises the dates shown by a calendar view and
// navigates between windows. All functions are pure over their inputs.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
)

// ErrInvalidViewMode is returned for unknown view names.
var ErrInvalidViewMode = errors.New("view must be one of day, 4day, week, month")

// ViewMode selects how many dates a calendar window shows.
type ViewMode string

const (
	ViewDay     ViewMode = "day"
	ViewFourDay ViewMode = "4day"
	ViewWeek    ViewMode = "week"
	ViewMonth   ViewMode = "month"
)

// Modes lists the view modes in display order.
var Modes = []ViewMode{ViewDay, ViewFourDay, ViewWeek, ViewMonth}

// ParseViewMode accepts day, 4day, 4-day, week and month (case-insensitive).
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return ViewDay, nil
	case "4day", "4-day", "four-day":
		return ViewFourDay, nil
	case "week":
		return ViewWeek, nil
	case "month":
		return ViewMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
	}
}

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewDay, ViewFourDay, ViewWeek, ViewMonth:
		return true
	default:
		return false
	}
}

// DatesForView returns the dates shown for anchor in the given mode, each at
// local midnight in the anchor's location.
//
//   - day: the anchor only
//   - 4day: four consecutive dates starting at the anchor
//   - week: Sunday on/before the anchor through the following Saturday
//   - month: Sunday on/before the 1st through Saturday on/after the last day
//
// Unknown modes return nil.
func DatesForView(anchor time.Time, mode ViewMode) []time.Time {
	day := dateutil.TruncateToDay(anchor)

	switch mode {
	case ViewDay:
		return []time.Time{day}
	case ViewFourDay:
		return consecutive(day, 4)
	case ViewWeek:
		return consecutive(StartOfWeek(day), 7)
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		last := dateutil.AddDays(time.Date(day.Year(), day.Month()+1, 1, 0, 0, 0, 0, day.Location()), -1)
		start := StartOfWeek(first)
		end := EndOfWeek(last)
		n := daysBetween(start, end) + 1
		return consecutive(start, n)
	default:
		return nil
	}
}

// Step moves the anchor by delta natural steps of the mode: 1 day, 4 days,
// 7 days or 1 calendar month. Month steps clamp to the last day of the target
// month (Jan 31 + 1 month is Feb 28 or 29).
func Step(anchor time.Time, mode ViewMode, delta int) time.Time {
	day := dateutil.TruncateToDay(anchor)

	switch mode {
	case ViewDay:
		return dateutil.AddDays(day, delta)
	case ViewFourDay:
		return dateutil.AddDays(day, 4*delta)
	case ViewWeek:
		return dateutil.AddDays(day, 7*delta)
	case ViewMonth:
		first := time.Date(day.Year(), day.Month()+time.Month(delta), 1, 0, 0, 0, 0, day.Location())
		lastDay := dateutil.AddDays(time.Date(first.Year(), first.Month()+1, 1, 0, 0, 0, 0, day.Location()), -1).Day()
		return time.Date(first.Year(), first.Month(), min(day.Day(), lastDay), 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// Next advances the anchor by one step.
func Next(anchor time.Time, mode ViewMode) time.Time {
	return Step(anchor, mode, 1)
}

// Prev moves the anchor back by one step.
func Prev(anchor time.Time, mode ViewMode) time.Time {
	return Step(anchor, mode, -1)
}

// StartOfWeek returns the Sunday on or before t, at midnight.
func StartOfWeek(t time.Time) time.Time {
	day := dateutil.TruncateToDay(t)
	return dateutil.AddDays(day, -int(day.Weekday()))
}

// EndOfWeek returns the Saturday on or after t, at midnight.
func EndOfWeek(t time.Time) time.Time {
	day := dateutil.TruncateToDay(t)
	return dateutil.AddDays(day, int(time.Saturday-day.Weekday()))
}

func consecutive(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range n {
		dates[i] = dateutil.AddDays(start, i)
	}
	return dates
}

// daysBetween counts calendar days from a to b using UTC dates so DST
// transitions do not skew the count.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
