// Package planner is the editing state machine for a schedule: a baseline
// synced with the store, a working set of local edits, and at most one
// placement waiting for the user to confirm dancer conflicts.
//
// Edits are applied locally and immediately. Save sends the difference
// between working set and baseline to a Store, item by item.
package planner

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/barre/internal/conflict"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/logging"
	"github.com/javiermolinar/barre/internal/metrics"
	"github.com/javiermolinar/barre/internal/schedule"
)

const defaultMaxHistory = 50

// State is the session's coarse state.
type State string

const (
	StateClean   State = "clean"
	StateDirty   State = "dirty"
	StatePending State = "pending_confirmation"
)

// Status says whether a proposal was applied.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusPending   Status = "pending_confirmation"
)

// Target is where a routine should go. A zero Duration means the routine's
// default length.
type Target struct {
	RoomID   string
	Date     time.Time
	Start    schedule.Clock
	Duration int
}

// Outcome is the result of a successful proposal, move or resize.
// When Status is StatusPending, Conflicts lists the double-booked dancers and
// the working set is unchanged until Confirm.
type Outcome struct {
	Status    Status
	Placement schedule.Placement
	Conflicts []conflict.Conflict
}

// PendingPlacement is a candidate held back for confirmation.
type PendingPlacement struct {
	Op        CommandOp
	Candidate schedule.Placement
	Conflicts []conflict.Conflict
}

type historyEntry struct {
	command Command
	working []schedule.Placement // working set before the command
}

// Session owns one editor's baseline and working set. It is safe for
// concurrent use; Save releases the lock while the store is called.
type Session struct {
	mu sync.Mutex

	catalog *schedule.Catalog

	// Saved state (synced with the store)
	baseline []schedule.Placement
	// Working state, in insertion order
	working []schedule.Placement

	pending *PendingPlacement

	history    []historyEntry
	maxHistory int
	log        []Command

	inFlight bool

	newID   func() string
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator overrides how temporary ids are made.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMetrics records proposals and saves on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = c
	}
}

// WithMaxHistory bounds the undo history.
func WithMaxHistory(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// NewSession starts a clean session from a baseline snapshot. The catalog
// supplies rooms and routine rosters; it may be nil, in which case room
// availability is not checked and placements keep their own snapshots.
func NewSession(baseline []schedule.Placement, catalog *schedule.Catalog, opts ...Option) *Session {
	if catalog == nil {
		catalog = schedule.NewCatalog()
	}
	s := &Session{
		catalog:    catalog,
		maxHistory: defaultMaxHistory,
		newID:      func() string { return schedule.TempIDPrefix + uuid.NewString() },
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.baseline = make([]schedule.Placement, 0, len(baseline))
	for _, p := range baseline {
		s.baseline = append(s.baseline, s.resolve(p))
	}
	s.working = schedule.ClonePlacements(s.baseline)
	return s
}

// State reports Clean, Dirty or PendingConfirmation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pending != nil:
		return StatePending
	case !ComputeDiff(s.baseline, s.working).Empty():
		return StateDirty
	default:
		return StateClean
	}
}

// IsDirty reports whether the working set differs from the baseline.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !ComputeDiff(s.baseline, s.working).Empty()
}

// Working returns a copy of the working set in display order.
func (s *Session) Working() []schedule.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := schedule.ClonePlacements(s.working)
	schedule.SortPlacements(out)
	return out
}

// Baseline returns a copy of the last synced state in display order.
func (s *Session) Baseline() []schedule.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := schedule.ClonePlacements(s.baseline)
	schedule.SortPlacements(out)
	return out
}

// Placement returns the working-set placement with id.
func (s *Session) Placement(id string) (schedule.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.working, id)
	if i < 0 {
		return schedule.Placement{}, false
	}
	return s.working[i].Clone(), true
}

// PlacementsIn returns working-set placements whose date is within r.
func (s *Session) PlacementsIn(r dateutil.DateRange) []schedule.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schedule.Placement
	for _, p := range s.working {
		if r.Contains(p.Date) {
			out = append(out, p.Clone())
		}
	}
	schedule.SortPlacements(out)
	return out
}

// Pending returns the placement waiting for confirmation, if any.
func (s *Session) Pending() (PendingPlacement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingPlacement{}, false
	}
	p := *s.pending
	p.Candidate = p.Candidate.Clone()
	return p, true
}

// Catalog returns the catalog the session resolves against.
func (s *Session) Catalog() *schedule.Catalog {
	return s.catalog
}

// SetRoutine applies an updated routine (for example a roster change) to the
// catalog and to every placement snapshot that references it. Roster
// changes are not persisted placement fields and do not make the session
// dirty.
func (s *Session) SetRoutine(r schedule.Routine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.AddRoutine(r)
	for _, set := range [][]schedule.Placement{s.baseline, s.working} {
		for i := range set {
			if set[i].RoutineID == r.ID {
				set[i].Routine = r.Clone()
			}
		}
	}
}

// Log returns the commands applied since the last sync, oldest first.
func (s *Session) Log() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

func (s *Session) resolve(p schedule.Placement) schedule.Placement {
	p = p.Clone()
	if r, ok := s.catalog.Routine(p.RoutineID); ok {
		p.Routine = r
	}
	return p
}

func indexOf(ps []schedule.Placement, id string) int {
	for i := range ps {
		if ps[i].ID == id {
			return i
		}
	}
	return -1
}

func without(ps []schedule.Placement, id string) []schedule.Placement {
	out := make([]schedule.Placement, 0, len(ps))
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
