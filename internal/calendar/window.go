package calendar

import (
	"fmt"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/schedule"
)

// Day holds the placements for a single date, sorted by start then room.
type Day struct {
	Date       time.Time
	Placements []schedule.Placement
}

// Window is a materialised calendar view: its dates and the placements on
// them.
type Window struct {
	Mode   ViewMode
	Anchor time.Time
	Days   []Day
}

// NewWindow builds an empty window for anchor and mode.
func NewWindow(anchor time.Time, mode ViewMode) *Window {
	dates := DatesForView(anchor, mode)
	days := make([]Day, len(dates))
	for i, d := range dates {
		days[i] = Day{Date: d}
	}
	return &Window{Mode: mode, Anchor: dateutil.TruncateToDay(anchor), Days: days}
}

// NewWindowWithPlacements builds a window and distributes placements to their
// dates. Placements outside the window are ignored.
func NewWindowWithPlacements(anchor time.Time, mode ViewMode, placements []schedule.Placement) *Window {
	w := NewWindow(anchor, mode)
	w.Fill(placements)
	return w
}

// Fill replaces the placements of every day with those from placements.
func (w *Window) Fill(placements []schedule.Placement) {
	byKey := make(map[string]int, len(w.Days))
	for i := range w.Days {
		w.Days[i].Placements = nil
		byKey[dateutil.DateKey(w.Days[i].Date)] = i
	}
	for _, p := range placements {
		if i, ok := byKey[p.DateKey()]; ok {
			w.Days[i].Placements = append(w.Days[i].Placements, p.Clone())
		}
	}
	for i := range w.Days {
		schedule.SortPlacements(w.Days[i].Placements)
	}
}

// Dates returns the window's dates.
func (w *Window) Dates() []time.Time {
	dates := make([]time.Time, len(w.Days))
	for i, d := range w.Days {
		dates[i] = d.Date
	}
	return dates
}

// Range returns the first and last date of the window.
func (w *Window) Range() dateutil.DateRange {
	if len(w.Days) == 0 {
		return dateutil.DateRange{Start: w.Anchor, End: w.Anchor}
	}
	return dateutil.DateRange{Start: w.Days[0].Date, End: w.Days[len(w.Days)-1].Date}
}

// Contains reports whether date is shown in the window.
func (w *Window) Contains(date time.Time) bool {
	r := w.Range()
	return r.Contains(date)
}

// DayByDate returns the Day for date, or nil when outside the window.
func (w *Window) DayByDate(date time.Time) *Day {
	key := dateutil.DateKey(date)
	for i := range w.Days {
		if dateutil.DateKey(w.Days[i].Date) == key {
			return &w.Days[i]
		}
	}
	return nil
}

// Placements returns every placement in the window in display order.
func (w *Window) Placements() []schedule.Placement {
	var out []schedule.Placement
	for _, d := range w.Days {
		out = append(out, d.Placements...)
	}
	return out
}

// Next returns the window one step forward, without placements.
func (w *Window) Next() *Window {
	return NewWindow(Next(w.Anchor, w.Mode), w.Mode)
}

// Prev returns the window one step back, without placements.
func (w *Window) Prev() *Window {
	return NewWindow(Prev(w.Anchor, w.Mode), w.Mode)
}

// Title is a short heading such as "March 2025" or "Mar 9 - Mar 15 2025".
func (w *Window) Title() string {
	r := w.Range()
	switch w.Mode {
	case ViewMonth:
		return w.Anchor.Format("January 2006")
	case ViewDay:
		return w.Anchor.Format("Monday, Jan 2 2006")
	default:
		if r.Start.Year() != r.End.Year() {
			return fmt.Sprintf("%s - %s", r.Start.Format("Jan 2 2006"), r.End.Format("Jan 2 2006"))
		}
		return fmt.Sprintf("%s - %s", r.Start.Format("Jan 2"), r.End.Format("Jan 2 2006"))
	}
}
