package schedule

import (
	"fmt"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
)

// MinutesPerDay is the length of a rehearsal day. A placement may end exactly
// at 24:00 but never past it.
const MinutesPerDay = 24 * 60

// Clock is a time of day. Hour may exceed 23 for derived end times; it is
// never wrapped into the next day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (or "H:MM") into a Clock within 00:00..23:59.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockFromMinutes converts minutes since midnight into a Clock.
func ClockFromMinutes(m int) Clock {
	return Clock{Hour: m / 60, Minute: m % 60}
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// AddMinutes returns the clock n minutes later. There is no midnight rollover:
// 23:30 plus 60 is 24:30.
func (c Clock) AddMinutes(n int) Clock {
	return ClockFromMinutes(c.Minutes() + n)
}

// Before reports whether c is strictly earlier than other.
func (c Clock) Before(other Clock) bool {
	return c.Minutes() < other.Minutes()
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Overlaps reports whether [aStart, aEnd) on aDate intersects [bStart, bEnd)
// on bDate. Intervals on different calendar dates never overlap, and
// touching intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Clock, aDate, bDate time.Time) bool {
	if !dateutil.SameDay(aDate, bDate) {
		return false
	}
	return aStart.Minutes() < bEnd.Minutes() && bStart.Minutes() < aEnd.Minutes()
}

// OverlapMinutes returns how many minutes two same-day intervals share.
func OverlapMinutes(aStart, aEnd, bStart, bEnd Clock) int {
	start := max(aStart.Minutes(), bStart.Minutes())
	end := min(aEnd.Minutes(), bEnd.Minutes())
	if end <= start {
		return 0
	}
	return end - start
}
