// Package schedule defines the core domain types for barre: routines, rooms,
// dancers and the placements that put a routine in a room at a date and time.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
)

// Validation errors.
var (
	ErrInvalidClock    = errors.New("time must be in HH:MM format")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrCrossesMidnight = errors.New("placement would end after midnight")
	ErrStartOutOfRange = errors.New("start must be between 00:00 and 23:59")
	ErrMissingRoom     = errors.New("room is required")
	ErrMissingRoutine  = errors.New("routine is required")
	ErrInvalidDate     = errors.New("date is required")
	ErrRoutineNotFound = errors.New("routine not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrDancerNotFound  = errors.New("dancer not found")
	ErrEmptyName       = errors.New("name cannot be empty")
)

// TempIDPrefix marks client-side ids that have not yet been persisted.
const TempIDPrefix = "tmp-"

// Placement assigns a routine to a room at a date and start time.
type Placement struct {
	ID        string
	RoutineID string
	Routine   Routine // snapshot, carries the roster used for conflict checks
	RoomID    string
	Date      time.Time
	Start     Clock
	Duration  int // minutes
}

// End returns the derived end time. It may be 24:00 or later; Validate
// rejects anything past 24:00.
func (p Placement) End() Clock {
	return p.Start.AddMinutes(p.Duration)
}

// Weekday is derived from Date and only used for display.
func (p Placement) Weekday() time.Weekday {
	return p.Date.Weekday()
}

// DateKey returns the placement date as YYYY-MM-DD.
func (p Placement) DateKey() string {
	return dateutil.DateKey(p.Date)
}

// IsTemporary reports whether the placement still carries a client id.
func (p Placement) IsTemporary() bool {
	return p.ID == "" || strings.HasPrefix(p.ID, TempIDPrefix)
}

// Validate checks a placement before it enters a working set or the store.
func (p Placement) Validate() error {
	if p.RoutineID == "" {
		return ErrMissingRoutine
	}
	if p.RoomID == "" {
		return ErrMissingRoom
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.Start.Minute < 0 || p.Start.Minute >= 60 || p.Start.Minutes() < 0 || p.Start.Minutes() >= MinutesPerDay {
		return fmt.Errorf("%w: %s", ErrStartOutOfRange, p.Start)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, p.Duration)
	}
	if p.End().Minutes() > MinutesPerDay {
		return fmt.Errorf("%w: %s + %dm ends at %s", ErrCrossesMidnight, p.Start, p.Duration, p.End())
	}
	return nil
}

// OverlapsWith reports whether two placements share time on the same date.
// Rooms are not considered.
func (p Placement) OverlapsWith(other Placement) bool {
	return Overlaps(p.Start, p.End(), other.Start, other.End(), p.Date, other.Date)
}

// SameSlot reports whether the persisted fields (room, date, start, duration)
// are equal.
func (p Placement) SameSlot(other Placement) bool {
	return p.RoomID == other.RoomID &&
		dateutil.SameDay(p.Date, other.Date) &&
		p.Start == other.Start &&
		p.Duration == other.Duration
}

// Clone returns a deep copy, including the routine roster.
func (p Placement) Clone() Placement {
	p.Routine = p.Routine.Clone()
	return p
}

// String is used in log lines and error messages.
func (p Placement) String() string {
	title := p.Routine.Title
	if title == "" {
		title = p.RoutineID
	}
	return fmt.Sprintf("%q %s %s-%s", title, p.DateKey(), p.Start, p.End())
}

// SortPlacements orders placements by date, start, room then id.
func SortPlacements(ps []Placement) {
	slices.SortStableFunc(ps, ComparePlacements)
}

// ComparePlacements is the canonical ordering used for display and diffs.
func ComparePlacements(a, b Placement) int {
	if c := strings.Compare(a.DateKey(), b.DateKey()); c != 0 {
		return c
	}
	if c := a.Start.Minutes() - b.Start.Minutes(); c != 0 {
		return c
	}
	if c := strings.Compare(a.RoomID, b.RoomID); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// ClonePlacements deep-copies a slice of placements.
func ClonePlacements(ps []Placement) []Placement {
	if ps == nil {
		return nil
	}
	out := make([]Placement, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
