package planner

import (
	"slices"

	"github.com/javiermolinar/barre/internal/schedule"
)

// Diff is the set of writes needed to turn a baseline into a working set.
type Diff struct {
	ToCreate []schedule.Placement
	ToUpdate []schedule.Placement
	ToDelete []string
}

// Empty reports whether there is nothing to write.
func (d Diff) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// Len is the total number of writes.
func (d Diff) Len() int {
	return len(d.ToCreate) + len(d.ToUpdate) + len(d.ToDelete)
}

// ComputeDiff partitions working against baseline by id: ids only in working
// are creates, ids only in baseline are deletes, and ids in both whose room,
// date, start or duration differ are updates. Results are in display order;
// deletes are sorted by id.
func ComputeDiff(baseline, working []schedule.Placement) Diff {
	base := make(map[string]schedule.Placement, len(baseline))
	for _, p := range baseline {
		base[p.ID] = p
	}

	var d Diff
	seen := make(map[string]struct{}, len(working))
	for _, p := range working {
		seen[p.ID] = struct{}{}
		old, ok := base[p.ID]
		switch {
		case !ok:
			d.ToCreate = append(d.ToCreate, p.Clone())
		case !old.SameSlot(p):
			d.ToUpdate = append(d.ToUpdate, p.Clone())
		}
	}
	for _, p := range baseline {
		if _, ok := seen[p.ID]; !ok {
			d.ToDelete = append(d.ToDelete, p.ID)
		}
	}

	schedule.SortPlacements(d.ToCreate)
	schedule.SortPlacements(d.ToUpdate)
	slices.Sort(d.ToDelete)
	return d
}

// Diff returns the writes pending against the baseline.
func (s *Session) Diff() Diff {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeDiff(s.baseline, s.working)
}
