package schedule

import (
	"fmt"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
)

// Record is the wire shape of a placement at the persistence boundary.
// Date is a calendar date without time or zone; StartMinutes is minutes since
// local midnight.
type Record struct {
	ID           string `json:"id,omitempty"`
	RoutineID    string `json:"routineId"`
	RoomID       string `json:"roomId"`
	Date         string `json:"date"`
	StartMinutes int    `json:"startMinutes"`
	Duration     int    `json:"duration"`
}

// ToRecord converts a placement to its wire shape.
func ToRecord(p Placement) Record {
	return Record{
		ID:           p.ID,
		RoutineID:    p.RoutineID,
		RoomID:       p.RoomID,
		Date:         p.DateKey(),
		StartMinutes: p.Start.Minutes(),
		Duration:     p.Duration,
	}
}

// Validate checks the record fields independently of any catalog.
func (r Record) Validate() error {
	if r.RoutineID == "" {
		return ErrMissingRoutine
	}
	if r.RoomID == "" {
		return ErrMissingRoom
	}
	if _, err := time.Parse(dateutil.Layout, r.Date); err != nil {
		return fmt.Errorf("%w: %q", dateutil.ErrInvalidDateFormat, r.Date)
	}
	if r.StartMinutes < 0 || r.StartMinutes >= MinutesPerDay {
		return fmt.Errorf("%w: %d", ErrStartOutOfRange, r.StartMinutes)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, r.Duration)
	}
	if r.StartMinutes+r.Duration > MinutesPerDay {
		return ErrCrossesMidnight
	}
	return nil
}

// FromRecord converts a wire record into a placement dated at midnight in loc.
// The routine snapshot is left empty; see Catalog.Resolve.
func FromRecord(r Record, loc *time.Location) (Placement, error) {
	if err := r.Validate(); err != nil {
		return Placement{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(dateutil.Layout, r.Date, loc)
	if err != nil {
		return Placement{}, fmt.Errorf("%w: %q", dateutil.ErrInvalidDateFormat, r.Date)
	}
	return Placement{
		ID:        r.ID,
		RoutineID: r.RoutineID,
		Routine:   Routine{ID: r.RoutineID},
		RoomID:    r.RoomID,
		Date:      date,
		Start:     ClockFromMinutes(r.StartMinutes),
		Duration:  r.Duration,
	}, nil
}
