package conflict

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/barre/internal/schedule"
)

// NameFunc resolves an id to a display name.
type NameFunc func(id string) string

// Describe renders one line per dancer naming every routine and room the
// dancer is already booked into.
func Describe(conflicts []Conflict, dancerName NameFunc) []string {
	if dancerName == nil {
		dancerName = func(id string) string { return id }
	}
	lines := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts := make([]string, len(c.Entries))
		for i, e := range c.Entries {
			parts[i] = fmt.Sprintf("%q in %s %s-%s", e.RoutineTitle, e.RoomName, e.Start, e.End)
		}
		lines = append(lines, fmt.Sprintf("%s is already in %s", dancerName(c.DancerID), strings.Join(parts, ", ")))
	}
	return lines
}

// Kind separates hard room double-bookings from advisory dancer overlaps.
type Kind string

const (
	KindRoom   Kind = "room"
	KindDancer Kind = "dancer"
)

// Finding is one pair of placements that collide.
type Finding struct {
	Kind      Kind
	First     schedule.Placement
	Second    schedule.Placement
	DancerIDs []string // set for KindDancer
}

// Scan audits a whole set of placements, reporting each colliding pair once.
// Room findings come before dancer findings for the same pair.
func Scan(placements []schedule.Placement) []Finding {
	sorted := schedule.ClonePlacements(placements)
	schedule.SortPlacements(sorted)

	var findings []Finding
	for i := range sorted {
		a := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if b.DateKey() != a.DateKey() || b.Start.Minutes() >= a.End().Minutes() {
				break
			}
			if !a.OverlapsWith(b) {
				continue
			}
			if a.RoomID == b.RoomID {
				findings = append(findings, Finding{Kind: KindRoom, First: a, Second: b})
			}
			if a.RoutineID == b.RoutineID {
				continue
			}
			if shared := sharedDancers(a.Routine.DancerIDs, b.Routine.DancerIDs); len(shared) > 0 {
				findings = append(findings, Finding{Kind: KindDancer, First: a, Second: b, DancerIDs: shared})
			}
		}
	}
	return findings
}

// HasRoomConflicts reports whether any finding is a room double-booking.
func HasRoomConflicts(findings []Finding) bool {
	for _, f := range findings {
		if f.Kind == KindRoom {
			return true
		}
	}
	return false
}
