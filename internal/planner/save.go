package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/schedule"
)

// Store is the persistence collaborator. Create and Update must wrap
// ErrSlotOccupied when the room, date and start are already taken. Update
// and Delete must wrap ErrPlacementGone when the id is not stored.
type Store interface {
	ListPlacements(ctx context.Context, r *dateutil.DateRange) ([]schedule.Placement, error)
	CreatePlacement(ctx context.Context, rec schedule.Record) (schedule.Placement, error)
	UpdatePlacement(ctx context.Context, id string, rec schedule.Record) (schedule.Placement, error)
	DeletePlacement(ctx context.Context, id string) error
}

// SaveReport lists what a save persisted and what it could not.
type SaveReport struct {
	Created  map[string]schedule.Placement // working id -> persisted placement
	Updated  []string
	Deleted  []string
	Failures []ItemFailure
}

// maxParkAttempts bounds how many free starts are tried when parking a
// placement during a save.
const maxParkAttempts = 8

// Load reads placements in r (nil for all) and starts a clean session.
func Load(ctx context.Context, store Store, catalog *schedule.Catalog, r *dateutil.DateRange, opts ...Option) (*Session, error) {
	placements, err := store.ListPlacements(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("loading placements: %w", err)
	}
	return NewSession(placements, catalog, opts...), nil
}

// Save persists the current diff one item at a time: deletes first, then
// updates and creates. The batch is frozen when Save is called; edits made
// while it runs stay in the working set for the next save.
//
// Writes that hit an occupied slot are retried while other writes keep
// freeing slots, so chained moves within a room go through in any order.
// When a cycle of moves blocks itself, one of them is parked on a free start
// to break it. A slot still taken once nothing moves is reported as a
// room-conflict *Rejection for that item.
//
// A delete of a row that is already gone counts as deleted. An update of a
// row that is gone recreates it under a new id.
//
// Items that succeed move into the baseline and temporary ids are replaced
// by persisted ids. Items that fail stay dirty and are returned in a
// *SaveError. An empty diff returns immediately without calling the store.
func (s *Session) Save(ctx context.Context, store Store) (SaveReport, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return SaveReport{}, ErrSaveInProgress
	}
	diff := ComputeDiff(s.baseline, s.working)
	if diff.Empty() {
		s.mu.Unlock()
		return SaveReport{}, nil
	}
	s.inFlight = true
	catalog := s.catalog
	b := &batch{
		store:   store,
		report:  SaveReport{Created: make(map[string]schedule.Placement)},
		updated: make(map[string]schedule.Placement),
		parked:  make(map[string]schedule.Placement),
		stored:  make(map[string]schedule.Placement),
		origin:  make(map[string]schedule.Placement),
		known:   make(map[slotKey]struct{}),
	}
	for _, p := range s.baseline {
		b.stored[p.ID] = p
		b.known[keyOf(p)] = struct{}{}
	}
	for _, p := range s.working {
		b.known[keyOf(p)] = struct{}{}
	}
	s.mu.Unlock()

	began := time.Now()

	fail := func(op Op, p schedule.Placement, id string, err error) {
		if errors.Is(err, ErrSlotOccupied) {
			err = &Rejection{Kind: KindRoomConflict, Candidate: p, RoomName: catalog.RoomName(p.RoomID), Cause: err}
		}
		b.report.Failures = append(b.report.Failures, ItemFailure{Op: op, PlacementID: id, Err: err})
		s.metrics.ObserveSaveItem(string(op), false)
	}

	for _, id := range diff.ToDelete {
		if err := ctx.Err(); err != nil {
			fail(OpDelete, schedule.Placement{ID: id}, id, err)
			continue
		}
		if err := store.DeletePlacement(ctx, id); err != nil && !errors.Is(err, ErrPlacementGone) {
			fail(OpDelete, schedule.Placement{ID: id}, id, err)
			continue
		}
		b.report.Deleted = append(b.report.Deleted, id)
		s.metrics.ObserveSaveItem(string(OpDelete), true)
	}

	queue := make([]saveItem, 0, len(diff.ToUpdate)+len(diff.ToCreate))
	for _, p := range diff.ToUpdate {
		queue = append(queue, saveItem{op: OpUpdate, p: p})
	}
	for _, p := range diff.ToCreate {
		queue = append(queue, saveItem{op: OpCreate, p: p})
	}

	for len(queue) > 0 {
		var blocked []saveItem
		for _, it := range queue {
			if err := ctx.Err(); err != nil {
				fail(it.op, it.p, it.p.ID, err)
				continue
			}
			op, err := b.write(ctx, it)
			switch {
			case errors.Is(err, ErrSlotOccupied):
				it.op, it.err = op, err
				blocked = append(blocked, it)
			case err != nil:
				fail(op, it.p, it.p.ID, err)
			default:
				s.metrics.ObserveSaveItem(string(op), true)
			}
		}
		if len(blocked) == len(queue) && !b.park(ctx, blocked) {
			for _, it := range blocked {
				fail(it.op, it.p, it.p.ID, it.err)
			}
			break
		}
		if len(blocked) > 0 {
			s.logger.Debug("retrying blocked writes", "count", len(blocked))
		}
		queue = blocked
	}
	b.unpark(ctx)

	report := b.report
	s.mu.Lock()
	s.reconcile(b)
	s.inFlight = false
	if len(report.Failures) == 0 {
		s.log = nil
	}
	s.mu.Unlock()

	s.metrics.ObserveSaveDuration(time.Since(began).Seconds())

	if len(report.Failures) > 0 {
		s.logger.Warn("save incomplete",
			"created", len(report.Created),
			"updated", len(report.Updated),
			"deleted", len(report.Deleted),
			"failed", len(report.Failures),
		)
		return report, &SaveError{Failures: report.Failures}
	}
	s.logger.Debug("save complete",
		"created", len(report.Created),
		"updated", len(report.Updated),
		"deleted", len(report.Deleted),
	)
	return report, nil
}

type saveItem struct {
	op  Op
	p   schedule.Placement
	err error
}

type slotKey struct {
	room  string
	date  string
	start int
}

func keyOf(p schedule.Placement) slotKey {
	return slotKey{room: p.RoomID, date: p.DateKey(), start: p.Start.Minutes()}
}

// batch is the state of one Save while it talks to the store.
type batch struct {
	store   Store
	report  SaveReport
	updated map[string]schedule.Placement // persisted updates by id
	sent    []schedule.Placement          // creates as they were sent
	gone    []string                      // updated ids the store no longer held
	parked  map[string]schedule.Placement // rows moved aside and not yet at their target
	stored  map[string]schedule.Placement // where each baseline row sits in the store
	origin  map[string]schedule.Placement // parked rows before they were moved
	known   map[slotKey]struct{}          // starts the session knows to be in use
}

// write sends one item and returns the op it ended up as.
func (b *batch) write(ctx context.Context, it saveItem) (Op, error) {
	p := it.p
	if it.op == OpUpdate {
		saved, err := b.store.UpdatePlacement(ctx, p.ID, schedule.ToRecord(p))
		switch {
		case errors.Is(err, ErrPlacementGone):
			b.gone = append(b.gone, p.ID)
			delete(b.parked, p.ID)
		case err != nil:
			return OpUpdate, err
		default:
			if saved.ID == "" {
				saved = p
			}
			b.updated[p.ID] = adopt(saved, p)
			b.report.Updated = append(b.report.Updated, p.ID)
			delete(b.parked, p.ID)
			b.stored[p.ID] = p
			return OpUpdate, nil
		}
	}

	rec := schedule.ToRecord(p)
	rec.ID = ""
	saved, err := b.store.CreatePlacement(ctx, rec)
	if err != nil {
		return OpCreate, err
	}
	if saved.ID == "" {
		return OpCreate, errors.New("store returned no id")
	}
	b.sent = append(b.sent, p)
	b.report.Created[p.ID] = adopt(saved, p)
	return OpCreate, nil
}

// park moves one blocked update to a free start in its current room and
// date, vacating a start another blocked item is waiting for. It reports
// whether anything moved.
func (b *batch) park(ctx context.Context, blocked []saveItem) bool {
	if len(blocked) < 2 {
		return false
	}
	wanted := make(map[slotKey]struct{}, len(blocked))
	for _, it := range blocked {
		wanted[keyOf(it.p)] = struct{}{}
	}
	for _, it := range blocked {
		if it.op != OpUpdate {
			continue
		}
		if _, ok := b.parked[it.p.ID]; ok {
			continue
		}
		current, ok := b.stored[it.p.ID]
		if !ok {
			continue
		}
		if _, ok := wanted[keyOf(current)]; !ok {
			continue
		}
		attempts := 0
		for m := 0; m+current.Duration <= 24*60 && attempts < maxParkAttempts; m++ {
			aside := current.Clone()
			aside.Start = schedule.ClockFromMinutes(m)
			if _, used := b.known[keyOf(aside)]; used {
				continue
			}
			attempts++
			b.known[keyOf(aside)] = struct{}{}
			if _, err := b.store.UpdatePlacement(ctx, aside.ID, schedule.ToRecord(aside)); err != nil {
				if errors.Is(err, ErrSlotOccupied) {
					continue
				}
				break
			}
			b.origin[aside.ID] = current
			b.parked[aside.ID] = aside
			b.stored[aside.ID] = aside
			return true
		}
	}
	return false
}

// unpark puts parked rows back where they were when the save started.
func (b *batch) unpark(ctx context.Context) {
	for id := range b.parked {
		back := b.origin[id]
		if _, err := b.store.UpdatePlacement(ctx, id, schedule.ToRecord(back)); err != nil {
			continue
		}
		delete(b.parked, id)
		b.stored[id] = back
	}
}

// reconcile folds persisted items into the baseline. Called with mu held.
func (s *Session) reconcile(b *batch) {
	for _, id := range b.report.Deleted {
		s.baseline = without(s.baseline, id)
	}
	for _, id := range b.gone {
		s.baseline = without(s.baseline, id)
	}
	for _, id := range b.report.Updated {
		if i := indexOf(s.baseline, id); i >= 0 {
			s.baseline[i] = b.updated[id].Clone()
		}
	}
	for id, aside := range b.parked {
		if i := indexOf(s.baseline, id); i >= 0 {
			s.baseline[i] = aside.Clone()
		}
	}
	for _, p := range b.sent {
		saved := b.report.Created[p.ID]
		s.baseline = append(s.baseline, saved.Clone())
		s.adoptCreated(p.ID, saved, p)
	}
}

// CommitSync records that every create in the working set has been persisted
// by the caller: temporary ids are replaced with the server records in
// assigned (keyed by temporary id), and the working set becomes the new
// baseline.
func (s *Session) CommitSync(assigned map[string]schedule.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tmpID, saved := range assigned {
		i := indexOf(s.working, tmpID)
		if i < 0 {
			continue
		}
		s.adoptCreated(tmpID, adopt(saved, s.working[i]), s.working[i])
	}
	s.baseline = schedule.ClonePlacements(s.working)
	s.history = nil
	s.log = nil
}

// adoptCreated swaps a temporary id for its persisted one everywhere the
// session refers to it. If the working copy was not edited since it was
// sent, it is replaced by the persisted record. Called with mu held.
func (s *Session) adoptCreated(tmpID string, saved, sent schedule.Placement) {
	if i := indexOf(s.working, tmpID); i >= 0 {
		if s.working[i].SameSlot(sent) {
			s.working[i] = saved.Clone()
		} else {
			s.working[i].ID = saved.ID
		}
	}
	if s.pending != nil && s.pending.Candidate.ID == tmpID {
		s.pending.Candidate.ID = saved.ID
	}
	s.renameInHistory(tmpID, saved.ID)
}

// adopt keeps the local routine snapshot when the store returns only ids.
func adopt(saved, local schedule.Placement) schedule.Placement {
	if saved.Routine.Title == "" && len(saved.Routine.DancerIDs) == 0 {
		saved.Routine = local.Routine.Clone()
	}
	if saved.RoutineID == "" {
		saved.RoutineID = local.RoutineID
	}
	return saved
}
