package planner

import (
	"fmt"

	"github.com/javiermolinar/barre/internal/schedule"
)

// CommandOp names an edit applied to the working set.
type CommandOp string

const (
	OpPlace  CommandOp = "place"
	OpMove   CommandOp = "move"
	OpResize CommandOp = "resize"
	OpRemove CommandOp = "remove"
)

// Command is one applied edit. Before is nil for a place; After is nil for
// a remove.
type Command struct {
	Op          CommandOp
	PlacementID string
	Before      *schedule.Placement
	After       *schedule.Placement
}

// String describes the command for logs and the CLI.
func (c Command) String() string {
	switch {
	case c.After != nil && c.Before != nil:
		return fmt.Sprintf("%s %s -> %s", c.Op, c.Before, c.After)
	case c.After != nil:
		return fmt.Sprintf("%s %s", c.Op, c.After)
	case c.Before != nil:
		return fmt.Sprintf("%s %s", c.Op, c.Before)
	default:
		return string(c.Op) + " " + c.PlacementID
	}
}

// CanUndo reports whether Undo has anything to revert.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}

// Undo reverts the last applied command. Undo is refused while a
// confirmation is pending.
func (s *Session) Undo() (Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return Command{}, ErrConfirmationPending
	}
	if len(s.history) == 0 {
		return Command{}, ErrNothingToUndo
	}

	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.working = entry.working
	if n := len(s.log); n > 0 {
		s.log = s.log[:n-1]
	}
	s.logger.Debug("undo", "command", entry.command.String())
	return entry.command, nil
}

// pushHistory snapshots the working set before cmd is applied.
func (s *Session) pushHistory(cmd Command) {
	if len(s.history) >= s.maxHistory {
		s.history = s.history[1:]
	}
	s.history = append(s.history, historyEntry{
		command: cmd,
		working: schedule.ClonePlacements(s.working),
	})
	s.log = append(s.log, cmd)
}

// renameInHistory swaps a temporary id for its persisted id in every undo
// snapshot, so undoing after a save does not resurrect the temporary id.
func (s *Session) renameInHistory(oldID, newID string) {
	for i := range s.history {
		for j := range s.history[i].working {
			if s.history[i].working[j].ID == oldID {
				s.history[i].working[j].ID = newID
			}
		}
	}
	for i := range s.log {
		if s.log[i].PlacementID == oldID {
			s.log[i].PlacementID = newID
		}
	}
}
