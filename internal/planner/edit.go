package planner

import (
	"fmt"

	"github.com/javiermolinar/barre/internal/conflict"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/schedule"
)

// ProposePlacement tries to add routine at target. Checks run in order:
// validation, room availability, duplicate slot, room conflict, dancer
// conflicts. Hard failures return a *Rejection and change nothing. Dancer
// conflicts put the candidate on hold until Confirm or Cancel.
func (s *Session) ProposePlacement(routine schedule.Routine, target Target) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return Outcome{}, ErrConfirmationPending
	}
	if routine.ID == "" {
		return Outcome{}, schedule.ErrMissingRoutine
	}

	duration := target.Duration
	if duration == 0 {
		duration = routine.Duration
	}
	candidate := schedule.Placement{
		ID:        s.newID(),
		RoutineID: routine.ID,
		Routine:   routine.Clone(),
		RoomID:    target.RoomID,
		Date:      dateutil.TruncateToDay(target.Date),
		Start:     target.Start,
		Duration:  duration,
	}

	return s.place(OpPlace, candidate, s.working, true)
}

// MovePlacement moves an existing placement to target, keeping its routine.
// A zero target Duration keeps the current duration. The placement being
// moved never conflicts with itself.
func (s *Session) MovePlacement(id string, target Target) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return Outcome{}, ErrConfirmationPending
	}
	i := indexOf(s.working, id)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	current := s.working[i]

	candidate := current.Clone()
	candidate.RoomID = target.RoomID
	candidate.Date = dateutil.TruncateToDay(target.Date)
	candidate.Start = target.Start
	if target.Duration != 0 {
		candidate.Duration = target.Duration
	}

	return s.place(OpMove, candidate, without(s.working, id), candidate.RoomID != current.RoomID)
}

// ResizeDuration changes a placement's length. Growing into another
// placement in the same room is rejected like a move; dancer overlaps go
// through confirmation.
func (s *Session) ResizeDuration(id string, minutes int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return Outcome{}, ErrConfirmationPending
	}
	i := indexOf(s.working, id)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	candidate := s.working[i].Clone()
	candidate.Duration = minutes

	return s.place(OpResize, candidate, without(s.working, id), false)
}

// DeletePlacement removes a placement from the working set. No conflict
// check is needed to free a slot.
func (s *Session) DeletePlacement(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return ErrConfirmationPending
	}
	i := indexOf(s.working, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.working[i].Clone()

	s.pushHistory(Command{Op: OpRemove, PlacementID: id, Before: &removed})
	s.working = without(s.working, id)
	s.logger.Debug("placement deleted", "placement", removed.String(), "id", id)
	return nil
}

// Confirm applies the pending candidate despite its dancer conflicts.
func (s *Session) Confirm() (schedule.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return schedule.Placement{}, ErrNothingPending
	}
	p := s.pending
	s.pending = nil
	s.apply(p.Op, p.Candidate)
	s.metrics.ObserveProposal("confirmed")
	s.logger.Info("placement confirmed with dancer conflicts",
		"placement", p.Candidate.String(),
		"dancers", conflict.DancerIDs(p.Conflicts),
	)
	return p.Candidate.Clone(), nil
}

// Cancel drops the pending candidate. The working set is untouched.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ErrNothingPending
	}
	s.logger.Debug("pending placement cancelled", "placement", s.pending.Candidate.String())
	s.pending = nil
	s.metrics.ObserveProposal("cancelled")
	return nil
}

// place runs the checks shared by propose, move and resize against others,
// the working set minus the placement being changed.
func (s *Session) place(op CommandOp, candidate schedule.Placement, others []schedule.Placement, checkRoom bool) (Outcome, error) {
	log := s.logger.With("op", string(op), "placement", candidate.String(), "room", candidate.RoomID)

	if err := candidate.Validate(); err != nil {
		s.metrics.ObserveProposal("invalid")
		return Outcome{}, err
	}

	if checkRoom {
		if room, ok := s.catalog.Room(candidate.RoomID); !ok || !room.Active {
			if ok || len(s.catalog.Rooms()) > 0 {
				rej := &Rejection{Kind: KindRoomUnavailable, Candidate: candidate, RoomName: s.catalog.RoomName(candidate.RoomID)}
				s.metrics.ObserveProposal(KindRoomUnavailable.String())
				log.Info("placement rejected", "reason", KindRoomUnavailable.String())
				return Outcome{}, rej
			}
		}
	}

	if dup := findDuplicate(others, candidate); dup != nil {
		s.metrics.ObserveProposal(KindDuplicate.String())
		log.Info("placement rejected", "reason", KindDuplicate.String())
		return Outcome{}, &Rejection{
			Kind:        KindDuplicate,
			Candidate:   candidate,
			Conflicting: dup,
			RoomName:    s.catalog.RoomName(candidate.RoomID),
		}
	}

	s.metrics.ObserveConflictCheck("room")
	if occupied := conflict.FindRoomConflict(others, candidate); occupied != nil {
		s.metrics.ObserveProposal(KindRoomConflict.String())
		log.Info("placement rejected", "reason", KindRoomConflict.String(), "conflicting", occupied.ID)
		return Outcome{}, &Rejection{
			Kind:        KindRoomConflict,
			Candidate:   candidate,
			Conflicting: occupied,
			RoomName:    s.catalog.RoomName(candidate.RoomID),
		}
	}

	s.metrics.ObserveConflictCheck("dancer")
	if conflicts := conflict.DetectConflicts(others, candidate, s.catalog.Rooms()); len(conflicts) > 0 {
		s.pending = &PendingPlacement{Op: op, Candidate: candidate.Clone(), Conflicts: conflicts}
		s.metrics.ObserveProposal("pending")
		s.metrics.AddDancerConflicts(len(conflicts))
		log.Info("placement needs confirmation", "dancers", conflict.DancerIDs(conflicts))
		return Outcome{Status: StatusPending, Placement: candidate.Clone(), Conflicts: conflicts}, nil
	}

	s.apply(op, candidate)
	s.metrics.ObserveProposal("committed")
	log.Debug("placement committed")
	return Outcome{Status: StatusCommitted, Placement: candidate.Clone()}, nil
}

// apply writes an accepted candidate into the working set and records it.
func (s *Session) apply(op CommandOp, candidate schedule.Placement) {
	after := candidate.Clone()
	cmd := Command{Op: op, PlacementID: candidate.ID, After: &after}

	if i := indexOf(s.working, candidate.ID); i >= 0 {
		before := s.working[i].Clone()
		cmd.Before = &before
		s.pushHistory(cmd)
		s.working[i] = candidate.Clone()
		return
	}
	s.pushHistory(cmd)
	s.working = append(s.working, candidate.Clone())
}

// findDuplicate returns a placement of the same routine at the same room,
// date and start.
func findDuplicate(others []schedule.Placement, candidate schedule.Placement) *schedule.Placement {
	for _, p := range others {
		if p.RoutineID == candidate.RoutineID &&
			p.RoomID == candidate.RoomID &&
			p.Start == candidate.Start &&
			dateutil.SameDay(p.Date, candidate.Date) {
			found := p.Clone()
			return &found
		}
	}
	return nil
}
