// Package conflict detects room double-bookings and dancer overlaps between
// placements. Everything here is pure: no I/O, no clocks, inputs are never
// mutated.
package conflict

import (
	"time"

	"github.com/javiermolinar/barre/internal/schedule"
)

// Entry is one placement a dancer is already booked into.
type Entry struct {
	PlacementID  string
	RoutineID    string
	RoutineTitle string
	RoomID       string
	RoomName     string
	Date         time.Time
	Start        schedule.Clock
	End          schedule.Clock
}

// Conflict lists every overlapping placement that shares one dancer with the
// candidate.
type Conflict struct {
	DancerID string
	Entries  []Entry
}

// DetectConflicts returns the dancer conflicts the candidate would introduce,
// grouped by dancer. Placements with the candidate's id or routine are not
// compared. Dancers appear in the order they are first found; entries follow
// the order of existing.
func DetectConflicts(existing []schedule.Placement, candidate schedule.Placement, rooms []schedule.Room) []Conflict {
	if len(candidate.Routine.DancerIDs) == 0 {
		return nil
	}

	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}

	var result []Conflict
	index := make(map[string]int)

	for _, other := range existing {
		if other.ID == candidate.ID || other.RoutineID == candidate.RoutineID {
			continue
		}
		if !candidate.OverlapsWith(other) {
			continue
		}
		shared := sharedDancers(candidate.Routine.DancerIDs, other.Routine.DancerIDs)
		if len(shared) == 0 {
			continue
		}
		entry := newEntry(other, roomNames)
		for _, dancerID := range shared {
			i, ok := index[dancerID]
			if !ok {
				i = len(result)
				index[dancerID] = i
				result = append(result, Conflict{DancerID: dancerID})
			}
			result[i].Entries = append(result[i].Entries, entry)
		}
	}
	return result
}

// FindRoomConflict returns the first placement occupying the candidate's room
// in an overlapping interval on the same date, or nil.
func FindRoomConflict(existing []schedule.Placement, candidate schedule.Placement) *schedule.Placement {
	for i := range existing {
		other := existing[i]
		if other.ID == candidate.ID || other.RoomID != candidate.RoomID {
			continue
		}
		if candidate.OverlapsWith(other) {
			found := other.Clone()
			return &found
		}
	}
	return nil
}

// DancerIDs lists the dancers involved in a set of conflicts.
func DancerIDs(conflicts []Conflict) []string {
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.DancerID
	}
	return ids
}

// sharedDancers intersects two rosters in the order of a, without duplicates.
func sharedDancers(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func newEntry(p schedule.Placement, roomNames map[string]string) Entry {
	name := roomNames[p.RoomID]
	if name == "" {
		name = p.RoomID
	}
	title := p.Routine.Title
	if title == "" {
		title = p.RoutineID
	}
	return Entry{
		PlacementID:  p.ID,
		RoutineID:    p.RoutineID,
		RoutineTitle: title,
		RoomID:       p.RoomID,
		RoomName:     name,
		Date:         p.Date,
		Start:        p.Start,
		End:          p.End(),
	}
}
