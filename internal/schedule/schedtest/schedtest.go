// Package schedtest provides deterministic fixtures for schedule tests.
package schedtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/javiermolinar/barre/internal/schedule"
)

// Date returns local midnight for the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// At builds a clock, panicking on invalid input. Tests only.
func At(hhmm string) schedule.Clock {
	c, err := schedule.ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	return c
}

// RoutineOption configures a routine fixture.
type RoutineOption func(*schedule.Routine)

// NewRoutine returns a routine with a one-hour default duration.
func NewRoutine(id string, opts ...RoutineOption) schedule.Routine {
	r := schedule.Routine{
		ID:        id,
		Title:     "Routine " + id,
		TeacherID: "teacher-1",
		GenreID:   "genre-1",
		Duration:  60,
		Color:     "#8e7cc3",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithDancers sets the roster.
func WithDancers(ids ...string) RoutineOption {
	return func(r *schedule.Routine) {
		r.DancerIDs = ids
	}
}

// WithTitle overrides the routine title.
func WithTitle(title string) RoutineOption {
	return func(r *schedule.Routine) {
		r.Title = title
	}
}

// WithDefaultDuration overrides the routine's default length.
func WithDefaultDuration(minutes int) RoutineOption {
	return func(r *schedule.Routine) {
		r.Duration = minutes
	}
}

// PlacementOption configures a placement fixture.
type PlacementOption func(*schedule.Placement)

// NewPlacement places routine r with sensible defaults: room-a on
// 2025-03-10 at 10:00 for the routine's default duration.
func NewPlacement(id string, r schedule.Routine, opts ...PlacementOption) schedule.Placement {
	p := schedule.Placement{
		ID:        id,
		RoutineID: r.ID,
		Routine:   r,
		RoomID:    "room-a",
		Date:      Date(2025, time.March, 10),
		Start:     schedule.Clock{Hour: 10},
		Duration:  r.Duration,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// InRoom sets the room.
func InRoom(roomID string) PlacementOption {
	return func(p *schedule.Placement) {
		p.RoomID = roomID
	}
}

// On sets the date.
func On(date time.Time) PlacementOption {
	return func(p *schedule.Placement) {
		p.Date = date
	}
}

// StartingAt sets the start time from "HH:MM".
func StartingAt(hhmm string) PlacementOption {
	return func(p *schedule.Placement) {
		p.Start = At(hhmm)
	}
}

// Lasting sets the duration in minutes.
func Lasting(minutes int) PlacementOption {
	return func(p *schedule.Placement) {
		p.Duration = minutes
	}
}

// Rooms returns active rooms named after their ids.
func Rooms(ids ...string) []schedule.Room {
	rooms := make([]schedule.Room, len(ids))
	for i, id := range ids {
		rooms[i] = schedule.Room{ID: id, Name: "Studio " + id, Active: true, Capacity: 20}
	}
	return rooms
}

// Catalog builds a catalog from routines and rooms.
func Catalog(routines []schedule.Routine, rooms []schedule.Room) *schedule.Catalog {
	c := schedule.NewCatalog()
	for _, r := range routines {
		c.AddRoutine(r)
	}
	for _, r := range rooms {
		c.AddRoom(r)
	}
	return c
}

// IDGenerator produces deterministic identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator yields ids like "<prefix>-1". When prefix is empty,
// schedule.TempIDPrefix without the dash is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "tmp"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}
