package schedule

import (
	"slices"
	"strings"
)

// Routine is a choreographed piece with a fixed roster of dancers.
type Routine struct {
	ID        string
	Title     string
	TeacherID string
	GenreID   string
	LevelID   *string // optional
	Duration  int     // default length in minutes
	Color     string
	DancerIDs []string
}

// HasDancer reports whether the dancer is on the roster.
func (r Routine) HasDancer(id string) bool {
	return slices.Contains(r.DancerIDs, id)
}

// Clone copies the roster so snapshots do not alias.
func (r Routine) Clone() Routine {
	r.DancerIDs = slices.Clone(r.DancerIDs)
	if r.LevelID != nil {
		level := *r.LevelID
		r.LevelID = &level
	}
	return r
}

// Dancer is a student who may appear in several routines.
type Dancer struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Classes []string
}

// Teacher owns routines.
type Teacher struct {
	ID   string
	Name string
}

// Genre classifies routines (jazz, tap, ...).
type Genre struct {
	ID   string
	Name string
}

// Level classifies routines by skill level.
type Level struct {
	ID   string
	Name string
}

// Room is a rehearsal space. Inactive rooms cannot take new placements.
type Room struct {
	ID       string
	Name     string
	Active   bool
	Capacity int
}

// Catalog is the directory a session resolves ids against.
// It is not safe for concurrent mutation.
type Catalog struct {
	routines map[string]Routine
	rooms    map[string]Room
	dancers  map[string]Dancer
	teachers map[string]Teacher
	genres   map[string]Genre
	levels   map[string]Level
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		routines: make(map[string]Routine),
		rooms:    make(map[string]Room),
		dancers:  make(map[string]Dancer),
		teachers: make(map[string]Teacher),
		genres:   make(map[string]Genre),
		levels:   make(map[string]Level),
	}
}

// AddRoutine inserts or replaces a routine.
func (c *Catalog) AddRoutine(r Routine) {
	c.routines[r.ID] = r.Clone()
}

// AddRoom inserts or replaces a room.
func (c *Catalog) AddRoom(r Room) {
	c.rooms[r.ID] = r
}

func (c *Catalog) AddDancer(d Dancer) {
	c.dancers[d.ID] = d
}

func (c *Catalog) AddTeacher(t Teacher) {
	c.teachers[t.ID] = t
}

func (c *Catalog) AddGenre(g Genre) {
	c.genres[g.ID] = g
}

func (c *Catalog) AddLevel(l Level) {
	c.levels[l.ID] = l
}

// Routine looks up a routine by id.
func (c *Catalog) Routine(id string) (Routine, bool) {
	r, ok := c.routines[id]
	if !ok {
		return Routine{}, false
	}
	return r.Clone(), true
}

// Room looks up a room by id.
func (c *Catalog) Room(id string) (Room, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// Dancer looks up a dancer by id.
func (c *Catalog) Dancer(id string) (Dancer, bool) {
	d, ok := c.dancers[id]
	return d, ok
}

// Routines returns all routines ordered by title.
func (c *Catalog) Routines() []Routine {
	out := make([]Routine, 0, len(c.routines))
	for _, r := range c.routines {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, func(a, b Routine) int {
		if n := strings.Compare(a.Title, b.Title); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Rooms returns all rooms ordered by name.
func (c *Catalog) Rooms() []Room {
	out := make([]Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Room) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Dancers returns all dancers ordered by name.
func (c *Catalog) Dancers() []Dancer {
	out := make([]Dancer, 0, len(c.dancers))
	for _, d := range c.dancers {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Dancer) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Teachers returns all teachers ordered by name.
func (c *Catalog) Teachers() []Teacher {
	return sortedByName(c.teachers, func(t Teacher) (string, string) { return t.Name, t.ID })
}

// Genres returns all genres ordered by name.
func (c *Catalog) Genres() []Genre {
	return sortedByName(c.genres, func(g Genre) (string, string) { return g.Name, g.ID })
}

// Levels returns all levels ordered by name.
func (c *Catalog) Levels() []Level {
	return sortedByName(c.levels, func(l Level) (string, string) { return l.Name, l.ID })
}

func sortedByName[T any](m map[string]T, key func(T) (name, id string)) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int {
		an, aid := key(a)
		bn, bid := key(b)
		if n := strings.Compare(an, bn); n != 0 {
			return n
		}
		return strings.Compare(aid, bid)
	})
	return out
}

// RoomName returns the room name, or the id when unknown.
func (c *Catalog) RoomName(id string) string {
	if r, ok := c.rooms[id]; ok && r.Name != "" {
		return r.Name
	}
	return id
}

// DancerName returns the dancer name, or the id when unknown.
func (c *Catalog) DancerName(id string) string {
	if d, ok := c.dancers[id]; ok && d.Name != "" {
		return d.Name
	}
	return id
}

// TeacherName returns the teacher name, or the id when unknown.
func (c *Catalog) TeacherName(id string) string {
	if t, ok := c.teachers[id]; ok && t.Name != "" {
		return t.Name
	}
	return id
}

// Resolve attaches the current routine snapshot to a placement. Placements
// whose routine is unknown are returned unchanged.
func (c *Catalog) Resolve(p Placement) Placement {
	if r, ok := c.Routine(p.RoutineID); ok {
		p.Routine = r
	}
	return p
}

// FindRoutine looks a routine up by id, then by title (case-insensitive).
func (c *Catalog) FindRoutine(ref string) (Routine, bool) {
	r, ok := findByRef(c.routines, ref, func(r Routine) string { return r.Title })
	if !ok {
		return Routine{}, false
	}
	return r.Clone(), true
}

// FindRoom looks a room up by id, then by name.
func (c *Catalog) FindRoom(ref string) (Room, bool) {
	return findByRef(c.rooms, ref, func(r Room) string { return r.Name })
}

// FindDancer looks a dancer up by id, then by name.
func (c *Catalog) FindDancer(ref string) (Dancer, bool) {
	return findByRef(c.dancers, ref, func(d Dancer) string { return d.Name })
}

// FindTeacher looks a teacher up by id, then by name.
func (c *Catalog) FindTeacher(ref string) (Teacher, bool) {
	return findByRef(c.teachers, ref, func(t Teacher) string { return t.Name })
}

// FindGenre looks a genre up by id, then by name.
func (c *Catalog) FindGenre(ref string) (Genre, bool) {
	return findByRef(c.genres, ref, func(g Genre) string { return g.Name })
}

// FindLevel looks a level up by id, then by name.
func (c *Catalog) FindLevel(ref string) (Level, bool) {
	return findByRef(c.levels, ref, func(l Level) string { return l.Name })
}

// findByRef matches an exact id first. Name matches are tried in id order so
// duplicates resolve the same way every time.
func findByRef[T any](m map[string]T, ref string, name func(T) string) (T, bool) {
	if v, ok := m[ref]; ok {
		return v, true
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		var zero T
		return zero, false
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if strings.EqualFold(strings.TrimSpace(name(m[id])), ref) {
			return m[id], true
		}
	}
	var zero T
	return zero, false
}
