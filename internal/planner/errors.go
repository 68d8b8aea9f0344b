package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/javiermolinar/barre/internal/schedule"
)

// Rejection sentinels. Match with errors.Is; the concrete error is a
// *Rejection carrying the conflicting placement.
var (
	ErrDuplicatePlacement = errors.New("routine is already placed in this slot")
	ErrRoomConflict       = errors.New("room is already occupied")
	ErrRoomUnavailable    = errors.New("room is not available")
)

// Session errors.
var (
	ErrNotFound            = errors.New("placement not found")
	ErrConfirmationPending = errors.New("a placement is waiting for confirmation")
	ErrNothingPending      = errors.New("no placement is waiting for confirmation")
	ErrSaveInProgress      = errors.New("a save is already in progress")
	ErrNothingToUndo       = errors.New("nothing to undo")
)

// ErrSlotOccupied is what a Store returns (wrapped) when its uniqueness
// constraint on room, date and start rejects a write.
var ErrSlotOccupied = errors.New("slot already occupied")

// ErrPlacementGone is what a Store returns (wrapped) when an update or delete
// names a placement it no longer holds.
var ErrPlacementGone = errors.New("no longer stored")

// RejectionKind classifies a hard rejection.
type RejectionKind int

const (
	KindDuplicate RejectionKind = iota + 1
	KindRoomConflict
	KindRoomUnavailable
)

func (k RejectionKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindRoomConflict:
		return "room_conflict"
	case KindRoomUnavailable:
		return "room_unavailable"
	default:
		return "unknown"
	}
}

// Rejection explains why a placement was refused. Nothing is mutated when a
// Rejection is returned.
type Rejection struct {
	Kind        RejectionKind
	Candidate   schedule.Placement
	Conflicting *schedule.Placement // nil for KindRoomUnavailable and late store conflicts
	RoomName    string
	Cause       error // store error for conflicts discovered during save
}

func (r *Rejection) Error() string {
	room := r.RoomName
	if room == "" {
		room = r.Candidate.RoomID
	}
	switch r.Kind {
	case KindDuplicate:
		return fmt.Sprintf("%v: %s is already in %s at %s on %s",
			ErrDuplicatePlacement, routineTitle(r.Candidate), room, r.Candidate.Start, r.Candidate.DateKey())
	case KindRoomConflict:
		if r.Conflicting == nil {
			return fmt.Sprintf("%v: %s on %s %s-%s was taken before it could be saved",
				ErrRoomConflict, room, r.Candidate.DateKey(), r.Candidate.Start, r.Candidate.End())
		}
		return fmt.Sprintf("%v: %s is booked for %s %s-%s on %s",
			ErrRoomConflict, room, routineTitle(*r.Conflicting),
			r.Conflicting.Start, r.Conflicting.End(), r.Conflicting.DateKey())
	case KindRoomUnavailable:
		return fmt.Sprintf("%v: %s", ErrRoomUnavailable, room)
	default:
		return "placement rejected"
	}
}

// Is matches the rejection sentinels.
func (r *Rejection) Is(target error) bool {
	switch r.Kind {
	case KindDuplicate:
		return target == ErrDuplicatePlacement
	case KindRoomConflict:
		return target == ErrRoomConflict
	case KindRoomUnavailable:
		return target == ErrRoomUnavailable
	}
	return false
}

func (r *Rejection) Unwrap() error {
	return r.Cause
}

// Op is the kind of write a save performs for one placement.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ItemFailure is one write that did not go through.
type ItemFailure struct {
	Op          Op
	PlacementID string
	Err         error
}

// SaveError reports the items of a save that failed. Items not listed were
// persisted and are already part of the baseline.
type SaveError struct {
	Failures []ItemFailure
}

func (e *SaveError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s %s: %v", f.Op, f.PlacementID, f.Err)
	}
	return fmt.Sprintf("save failed for %d item(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *SaveError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func routineTitle(p schedule.Placement) string {
	if p.Routine.Title != "" {
		return fmt.Sprintf("%q", p.Routine.Title)
	}
	return fmt.Sprintf("%q", p.RoutineID)
}
