package planner

import (
	"context"
	"errors"

	"github.com/javiermolinar/barre/internal/schedule"
)

// ErrorKind maps planner and schedule errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrDuplicatePlacement):
		return "duplicate"
	case errors.Is(err, ErrRoomConflict):
		return "room_conflict"
	case errors.Is(err, ErrRoomUnavailable):
		return "room_unavailable"
	case errors.Is(err, ErrSlotOccupied):
		return "slot_occupied"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPlacementGone):
		return "not_found"
	case errors.Is(err, ErrConfirmationPending), errors.Is(err, ErrSaveInProgress):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrCrossesMidnight),
		errors.Is(err, schedule.ErrStartOutOfRange),
		errors.Is(err, schedule.ErrMissingRoom),
		errors.Is(err, schedule.ErrMissingRoutine),
		errors.Is(err, schedule.ErrInvalidDate):
		return "validation"
	}

	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return "persistence"
	}
	return "unexpected"
}
