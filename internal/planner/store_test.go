package planner_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
)

// memStore is an in-memory planner.Store with the same uniqueness rule as
// the SQLite store.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]schedule.Record
	nextID  int
	calls   int
	failFor map[string]error // keyed by "<op>:<routineId>"

	// When set, CreatePlacement signals entered and waits on release.
	entered chan struct{}
	release chan struct{}
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]schedule.Record), failFor: make(map[string]error)}
}

func (m *memStore) ListPlacements(_ context.Context, r *dateutil.DateRange) ([]schedule.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []schedule.Placement
	for _, rec := range m.rows {
		p, err := schedule.FromRecord(rec, time.Local)
		if err != nil {
			return nil, err
		}
		if r == nil || r.Contains(p.Date) {
			out = append(out, p)
		}
	}
	schedule.SortPlacements(out)
	return out, nil
}

func (m *memStore) CreatePlacement(_ context.Context, rec schedule.Record) (schedule.Placement, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.failFor["create:"+rec.RoutineID]; err != nil {
		return schedule.Placement{}, err
	}
	if err := m.checkSlot("", rec); err != nil {
		return schedule.Placement{}, err
	}
	m.nextID++
	rec.ID = fmt.Sprintf("srv-%d", m.nextID)
	m.rows[rec.ID] = rec
	return schedule.FromRecord(rec, time.Local)
}

func (m *memStore) UpdatePlacement(_ context.Context, id string, rec schedule.Record) (schedule.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.failFor["update:"+rec.RoutineID]; err != nil {
		return schedule.Placement{}, err
	}
	if _, ok := m.rows[id]; !ok {
		return schedule.Placement{}, fmt.Errorf("placement %s: %w", id, planner.ErrPlacementGone)
	}
	if err := m.checkSlot(id, rec); err != nil {
		return schedule.Placement{}, err
	}
	rec.ID = id
	m.rows[id] = rec
	return schedule.FromRecord(rec, time.Local)
}

func (m *memStore) DeletePlacement(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("placement %s: %w", id, planner.ErrPlacementGone)
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) checkSlot(id string, rec schedule.Record) error {
	for otherID, other := range m.rows {
		if otherID != id && other.RoomID == rec.RoomID && other.Date == rec.Date && other.StartMinutes == rec.StartMinutes {
			return fmt.Errorf("inserting placement: %w", planner.ErrSlotOccupied)
		}
	}
	return nil
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// seed inserts a record directly, bypassing the session.
func (m *memStore) seed(rec schedule.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID] = rec
}

// drop removes a row directly, as another editor would.
func (m *memStore) drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
}

func (m *memStore) startOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].StartMinutes
}
