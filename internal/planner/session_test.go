package planner_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
	"github.com/javiermolinar/barre/internal/schedule/schedtest"
)

var (
	day = schedtest.Date(2025, time.March, 10)

	routineR = schedtest.NewRoutine("R", schedtest.WithTitle("Rhapsody"), schedtest.WithDancers("A", "B"))
	routineS = schedtest.NewRoutine("S", schedtest.WithTitle("Sarabande"), schedtest.WithDancers("C"))
	routineT = schedtest.NewRoutine("T", schedtest.WithTitle("Tarantella"), schedtest.WithDancers("B"))
)

func newTestSession(t *testing.T, baseline ...schedule.Placement) *planner.Session {
	t.Helper()
	rooms := append(schedtest.Rooms("room1", "room2"), schedule.Room{ID: "closed", Name: "Old Studio", Active: false})
	catalog := schedtest.Catalog([]schedule.Routine{routineR, routineS, routineT}, rooms)
	ids := schedtest.NewIDGenerator("tmp")
	return planner.NewSession(baseline, catalog, planner.WithIDGenerator(ids.Next))
}

func target(room, start string) planner.Target {
	return planner.Target{RoomID: room, Date: day, Start: schedtest.At(start)}
}

func TestEndToEndDropAndNoOpMove(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, planner.StateClean, s.State())

	out, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, planner.StatusCommitted, out.Status)
	assert.Equal(t, 60, out.Placement.Duration)
	require.Len(t, s.Working(), 1)
	assert.Equal(t, planner.StateDirty, s.State())

	before := s.Working()
	moved, err := s.MovePlacement(out.Placement.ID, target("room1", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, planner.StatusCommitted, moved.Status)
	assert.Equal(t, before, s.Working())
	assert.True(t, s.IsDirty())
}

func TestProposeDuplicateIsDistinctFromRoomConflict(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	_, err := s.ProposePlacement(routineR, target("room1", "10:00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrDuplicatePlacement)
	assert.NotErrorIs(t, err, planner.ErrRoomConflict)

	var rej *planner.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, planner.KindDuplicate, rej.Kind)
	assert.Len(t, s.Working(), 1)
	assert.Equal(t, planner.StateClean, s.State())
}

func TestProposeRoomConflict(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	tests := []struct {
		name    string
		routine schedule.Routine
		start   string
	}{
		{"other routine overlapping", routineS, "10:30"},
		{"same routine different start", routineR, "10:30"},
		{"nested", routineS, "10:15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ProposePlacement(tt.routine, target("room1", tt.start))
			assert.ErrorIs(t, err, planner.ErrRoomConflict)

			var rej *planner.Rejection
			require.ErrorAs(t, err, &rej)
			require.NotNil(t, rej.Conflicting)
			assert.Equal(t, "p1", rej.Conflicting.ID)
			assert.Contains(t, err.Error(), "Studio room1")
			assert.Len(t, s.Working(), 1)
		})
	}

	out, err := s.ProposePlacement(routineS, target("room1", "11:00"))
	require.NoError(t, err, "touching the end of p1 must be allowed")
	assert.Equal(t, planner.StatusCommitted, out.Status)
}

func TestProposeRoomUnavailable(t *testing.T) {
	s := newTestSession(t)

	for _, room := range []string{"closed", "nowhere"} {
		_, err := s.ProposePlacement(routineS, target(room, "10:00"))
		assert.ErrorIs(t, err, planner.ErrRoomUnavailable, room)
	}
	assert.Empty(t, s.Working())
}

func TestProposeValidation(t *testing.T) {
	s := newTestSession(t)

	_, err := s.ProposePlacement(routineS, target("room1", "23:30"))
	assert.ErrorIs(t, err, schedule.ErrCrossesMidnight)

	late, err := s.ProposePlacement(routineS, target("room1", "23:00"))
	require.NoError(t, err)
	assert.Equal(t, schedule.Clock{Hour: 24}, late.Placement.End())

	_, err = s.ProposePlacement(schedule.Routine{}, target("room1", "09:00"))
	assert.ErrorIs(t, err, schedule.ErrMissingRoutine)

	_, err = s.ProposePlacement(schedtest.NewRoutine("Z", schedtest.WithDefaultDuration(0)), target("room1", "09:00"))
	assert.ErrorIs(t, err, schedule.ErrInvalidDuration)
}

func TestDancerConflictConfirm(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	out, err := s.ProposePlacement(routineT, target("room2", "10:30"))
	require.NoError(t, err)
	assert.Equal(t, planner.StatusPending, out.Status)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, "B", out.Conflicts[0].DancerID)
	assert.Equal(t, "Rhapsody", out.Conflicts[0].Entries[0].RoutineTitle)
	assert.Equal(t, "Studio room1", out.Conflicts[0].Entries[0].RoomName)

	assert.Len(t, s.Working(), 1, "pending candidate must not be in the working set")
	assert.Equal(t, planner.StatePending, s.State())

	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, out.Placement.ID, pending.Candidate.ID)

	_, err = s.ProposePlacement(routineS, target("room2", "15:00"))
	assert.ErrorIs(t, err, planner.ErrConfirmationPending)
	_, err = s.MovePlacement("p1", target("room1", "12:00"))
	assert.ErrorIs(t, err, planner.ErrConfirmationPending)
	assert.ErrorIs(t, s.DeletePlacement("p1"), planner.ErrConfirmationPending)
	_, err = s.Undo()
	assert.ErrorIs(t, err, planner.ErrConfirmationPending)

	placed, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, out.Placement.ID, placed.ID)
	assert.Len(t, s.Working(), 2)
	assert.Equal(t, planner.StateDirty, s.State())

	_, err = s.Confirm()
	assert.ErrorIs(t, err, planner.ErrNothingPending)
}

func TestDancerConflictCancel(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	out, err := s.ProposePlacement(routineT, target("room2", "10:30"))
	require.NoError(t, err)
	require.Equal(t, planner.StatusPending, out.Status)

	require.NoError(t, s.Cancel())
	assert.Equal(t, planner.StateClean, s.State())
	assert.True(t, s.Diff().Empty())
	assert.Empty(t, s.Log())
	assert.ErrorIs(t, s.Cancel(), planner.ErrNothingPending)
}

func TestMovePlacement(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	p2 := schedtest.NewPlacement("p2", routineS, schedtest.InRoom("room2"), schedtest.On(day), schedtest.StartingAt("10:00"))

	t.Run("into occupied room", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.MovePlacement("p2", target("room1", "10:30"))
		assert.ErrorIs(t, err, planner.ErrRoomConflict)
		got, _ := s.Placement("p2")
		assert.Equal(t, "room2", got.RoomID)
		assert.False(t, s.IsDirty())
	})

	t.Run("right after occupant", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		out, err := s.MovePlacement("p2", target("room1", "11:00"))
		require.NoError(t, err)
		assert.Equal(t, planner.StatusCommitted, out.Status)
		assert.Equal(t, "p2", out.Placement.ID)
		assert.Equal(t, []schedule.Placement{out.Placement}, s.Diff().ToUpdate)
	})

	t.Run("overlapping its own old slot", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.MovePlacement("p1", target("room1", "10:30"))
		require.NoError(t, err)
	})

	t.Run("to another date", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.MovePlacement("p2", planner.Target{RoomID: "room1", Date: day.AddDate(0, 0, 7), Start: schedtest.At("10:00")})
		require.NoError(t, err)
	})

	t.Run("into closed room", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.MovePlacement("p1", target("closed", "10:00"))
		assert.ErrorIs(t, err, planner.ErrRoomUnavailable)
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.MovePlacement("nope", target("room1", "10:00"))
		assert.ErrorIs(t, err, planner.ErrNotFound)
	})
}

func TestResizeDuration(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	p2 := schedtest.NewPlacement("p2", routineS, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("11:00"))

	t.Run("grow into neighbour", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.ResizeDuration("p1", 90)
		assert.ErrorIs(t, err, planner.ErrRoomConflict)
		got, _ := s.Placement("p1")
		assert.Equal(t, 60, got.Duration)
	})

	t.Run("shrink", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		out, err := s.ResizeDuration("p1", 45)
		require.NoError(t, err)
		assert.Equal(t, schedule.Clock{Hour: 10, Minute: 45}, out.Placement.End())
		assert.True(t, s.IsDirty())
	})

	t.Run("same duration is a no-op", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.ResizeDuration("p1", 60)
		require.NoError(t, err)
		assert.False(t, s.IsDirty())
	})

	t.Run("invalid durations", func(t *testing.T) {
		s := newTestSession(t, p1, p2)
		_, err := s.ResizeDuration("p2", 0)
		assert.ErrorIs(t, err, schedule.ErrInvalidDuration)
		_, err = s.ResizeDuration("p2", 13*60+1)
		assert.ErrorIs(t, err, schedule.ErrCrossesMidnight)
	})

	t.Run("dancer overlap goes to confirmation", func(t *testing.T) {
		p3 := schedtest.NewPlacement("p3", routineT, schedtest.InRoom("room2"), schedtest.On(day), schedtest.StartingAt("11:00"))
		s := newTestSession(t, p1, p3)

		out, err := s.ResizeDuration("p1", 90)
		require.NoError(t, err)
		require.Equal(t, planner.StatusPending, out.Status)
		require.Len(t, out.Conflicts, 1)
		assert.Equal(t, "B", out.Conflicts[0].DancerID)

		_, err = s.Confirm()
		require.NoError(t, err)
		got, _ := s.Placement("p1")
		assert.Equal(t, 90, got.Duration)
		assert.Len(t, s.Working(), 2)
	})
}

func TestDeletePlacement(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	require.NoError(t, s.DeletePlacement("p1"))
	assert.Empty(t, s.Working())
	assert.Equal(t, []string{"p1"}, s.Diff().ToDelete)
	assert.ErrorIs(t, s.DeletePlacement("p1"), planner.ErrNotFound)
}

func TestComputeDiff(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	p2 := schedtest.NewPlacement("p2", routineS, schedtest.InRoom("room2"), schedtest.On(day), schedtest.StartingAt("10:00"))
	p3 := schedtest.NewPlacement("tmp-3", routineT, schedtest.InRoom("room2"), schedtest.On(day), schedtest.StartingAt("14:00"))
	p1Moved := p1
	p1Moved.Start = schedtest.At("12:00")

	d := planner.ComputeDiff([]schedule.Placement{p1, p2}, []schedule.Placement{p1Moved, p3})

	require.Len(t, d.ToUpdate, 1)
	assert.Equal(t, "p1", d.ToUpdate[0].ID)
	assert.Equal(t, schedtest.At("12:00"), d.ToUpdate[0].Start)
	require.Len(t, d.ToCreate, 1)
	assert.Equal(t, "tmp-3", d.ToCreate[0].ID)
	assert.Equal(t, []string{"p2"}, d.ToDelete)
	assert.Equal(t, 3, d.Len())

	t.Run("unchanged placements are omitted", func(t *testing.T) {
		same := planner.ComputeDiff([]schedule.Placement{p1, p2}, []schedule.Placement{p2, p1})
		assert.True(t, same.Empty())
	})

	t.Run("roster changes are not updates", func(t *testing.T) {
		changed := p1.Clone()
		changed.Routine.DancerIDs = []string{"Z"}
		assert.True(t, planner.ComputeDiff([]schedule.Placement{p1}, []schedule.Placement{changed}).Empty())
	})
}

func TestSessionDiffMatchesEdits(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	p2 := schedtest.NewPlacement("p2", routineS, schedtest.InRoom("room2"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1, p2)

	_, err := s.MovePlacement("p1", target("room1", "12:00"))
	require.NoError(t, err)
	require.NoError(t, s.DeletePlacement("p2"))
	created, err := s.ProposePlacement(routineS, target("room2", "14:00"))
	require.NoError(t, err)

	d := s.Diff()
	require.Len(t, d.ToUpdate, 1)
	assert.Equal(t, "p1", d.ToUpdate[0].ID)
	require.Len(t, d.ToCreate, 1)
	assert.Equal(t, created.Placement.ID, d.ToCreate[0].ID)
	assert.Equal(t, []string{"p2"}, d.ToDelete)

	log := s.Log()
	require.Len(t, log, 3)
	assert.Equal(t, planner.OpMove, log[0].Op)
	assert.Equal(t, planner.OpRemove, log[1].Op)
	assert.Equal(t, planner.OpPlace, log[2].Op)
}

func TestSaveAssignsServerIDs(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := newTestSession(t)

	_, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)
	_, err = s.ProposePlacement(routineS, target("room2", "09:00"))
	require.NoError(t, err)

	report, err := s.Save(ctx, store)
	require.NoError(t, err)
	assert.Len(t, report.Created, 2)
	assert.Equal(t, planner.StateClean, s.State())
	assert.Empty(t, s.Log())
	for _, p := range s.Working() {
		assert.False(t, p.IsTemporary(), "id %s should be persisted", p.ID)
		assert.NotEmpty(t, p.Routine.Title, "routine snapshot should survive the save")
	}

	calls := store.callCount()
	report, err = s.Save(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, calls, store.callCount(), "an empty diff must not reach the store")
}

func TestSaveUpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(schedule.Record{ID: "p1", RoutineID: "R", RoomID: "room1", Date: "2025-03-10", StartMinutes: 600, Duration: 60})
	store.seed(schedule.Record{ID: "p2", RoutineID: "S", RoomID: "room2", Date: "2025-03-10", StartMinutes: 600, Duration: 60})

	s, err := planner.Load(ctx, store, schedtest.Catalog([]schedule.Routine{routineR, routineS}, schedtest.Rooms("room1", "room2")), nil)
	require.NoError(t, err)
	require.Len(t, s.Working(), 2)

	_, err = s.MovePlacement("p1", target("room1", "12:00"))
	require.NoError(t, err)
	require.NoError(t, s.DeletePlacement("p2"))

	report, err := s.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, report.Updated)
	assert.Equal(t, []string{"p2"}, report.Deleted)
	assert.False(t, s.IsDirty())

	stored, err := store.ListPlacements(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, schedtest.At("12:00"), stored[0].Start)
}

func TestSavePartialFailureKeepsFailedItemsDirty(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failFor["create:S"] = fmt.Errorf("insert: %w", planner.ErrSlotOccupied)
	s := newTestSession(t)

	_, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)
	failing, err := s.ProposePlacement(routineS, target("room2", "09:00"))
	require.NoError(t, err)

	report, err := s.Save(ctx, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrRoomConflict)
	assert.ErrorIs(t, err, planner.ErrSlotOccupied)

	var saveErr *planner.SaveError
	require.ErrorAs(t, err, &saveErr)
	require.Len(t, saveErr.Failures, 1)
	assert.Equal(t, planner.OpCreate, saveErr.Failures[0].Op)
	assert.Equal(t, failing.Placement.ID, saveErr.Failures[0].PlacementID)
	assert.Len(t, report.Created, 1)

	assert.Equal(t, planner.StateDirty, s.State())
	d := s.Diff()
	require.Len(t, d.ToCreate, 1)
	assert.Equal(t, "S", d.ToCreate[0].RoutineID)
	assert.Len(t, s.Baseline(), 1)
	assert.Len(t, s.Working(), 2)

	delete(store.failFor, "create:S")
	_, err = s.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, planner.StateClean, s.State())
}

func TestSaveFailureLeavesWorkingSetUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failFor["create:R"] = errors.New("disk full")
	s := newTestSession(t)

	_, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)
	before := s.Working()

	_, err = s.Save(ctx, store)
	require.Error(t, err)
	assert.NotErrorIs(t, err, planner.ErrRoomConflict)
	assert.Equal(t, before, s.Working())
	assert.True(t, s.IsDirty())
	assert.Equal(t, "persistence", planner.ErrorKind(err))
}

func TestSaveLateRoomConflictFromAnotherSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := newTestSession(t)

	_, err := s.ProposePlacement(routineS, target("room1", "09:00"))
	require.NoError(t, err)

	// another editor takes the slot first
	store.seed(schedule.Record{ID: "other", RoutineID: "R", RoomID: "room1", Date: "2025-03-10", StartMinutes: 540, Duration: 60})

	_, err = s.Save(ctx, store)
	assert.ErrorIs(t, err, planner.ErrRoomConflict)
	assert.True(t, s.IsDirty())
}

func loadTwoInRoom1(t *testing.T, store *memStore) *planner.Session {
	t.Helper()
	store.seed(schedule.Record{ID: "p1", RoutineID: "R", RoomID: "room1", Date: "2025-03-10", StartMinutes: 600, Duration: 60})
	store.seed(schedule.Record{ID: "p2", RoutineID: "S", RoomID: "room1", Date: "2025-03-10", StartMinutes: 660, Duration: 60})
	catalog := schedtest.Catalog([]schedule.Routine{routineR, routineS}, schedtest.Rooms("room1", "room2"))
	s, err := planner.Load(context.Background(), store, catalog, nil)
	require.NoError(t, err)
	return s
}

func TestSaveChainedMovesInOneRoom(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loadTwoInRoom1(t, store)

	// p1 takes the start p2 is leaving; the diff lists p1 first.
	_, err := s.MovePlacement("p2", target("room1", "12:00"))
	require.NoError(t, err)
	_, err = s.MovePlacement("p1", target("room1", "11:00"))
	require.NoError(t, err)

	report, err := s.Save(ctx, store)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, report.Updated)
	assert.Empty(t, report.Failures)
	assert.Equal(t, planner.StateClean, s.State())
	assert.Equal(t, 660, store.startOf("p1"))
	assert.Equal(t, 720, store.startOf("p2"))
}

func TestSaveSwappedStarts(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loadTwoInRoom1(t, store)

	_, err := s.MovePlacement("p2", target("room1", "12:00"))
	require.NoError(t, err)
	_, err = s.MovePlacement("p1", target("room1", "11:00"))
	require.NoError(t, err)
	_, err = s.MovePlacement("p2", target("room1", "10:00"))
	require.NoError(t, err)

	_, err = s.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, planner.StateClean, s.State())
	assert.Equal(t, 660, store.startOf("p1"))
	assert.Equal(t, 600, store.startOf("p2"))

	stored, err := store.ListPlacements(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSaveBlockedByAnotherEditorLeavesStoreAlone(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loadTwoInRoom1(t, store)

	_, err := s.MovePlacement("p1", target("room1", "14:00"))
	require.NoError(t, err)
	_, err = s.MovePlacement("p2", target("room1", "15:00"))
	require.NoError(t, err)

	// both targets are taken behind the session's back
	store.seed(schedule.Record{ID: "x1", RoutineID: "T", RoomID: "room1", Date: "2025-03-10", StartMinutes: 840, Duration: 30})
	store.seed(schedule.Record{ID: "x2", RoutineID: "T", RoomID: "room1", Date: "2025-03-10", StartMinutes: 900, Duration: 30})

	_, err = s.Save(ctx, store)
	assert.ErrorIs(t, err, planner.ErrRoomConflict)

	var saveErr *planner.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Len(t, saveErr.Failures, 2)
	assert.Equal(t, 600, store.startOf("p1"))
	assert.Equal(t, 660, store.startOf("p2"))
	assert.True(t, s.IsDirty())
}

func TestSaveDeleteAlreadyGone(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loadTwoInRoom1(t, store)

	require.NoError(t, s.DeletePlacement("p1"))
	store.drop("p1")

	report, err := s.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, report.Deleted)
	assert.Equal(t, planner.StateClean, s.State())
	assert.Len(t, s.Baseline(), 1)
}

func TestSaveUpdateOfVanishedRowRecreatesIt(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loadTwoInRoom1(t, store)

	_, err := s.MovePlacement("p1", target("room2", "10:00"))
	require.NoError(t, err)
	store.drop("p1")

	report, err := s.Save(ctx, store)
	require.NoError(t, err)
	require.Contains(t, report.Created, "p1")
	assert.Empty(t, report.Updated)
	assert.Equal(t, planner.StateClean, s.State())

	newID := report.Created["p1"].ID
	assert.NotEqual(t, "p1", newID)
	p, ok := s.Placement(newID)
	require.True(t, ok)
	assert.Equal(t, "room2", p.RoomID)
	_, ok = s.Placement("p1")
	assert.False(t, ok)
	assert.Len(t, s.Baseline(), 2)
}

func TestSaveCancelledContext(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t)
	_, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, store)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.callCount())
	assert.True(t, s.IsDirty())
}

func TestSaveFreezesBatchAndQueuesLaterEdits(t *testing.T) {
	store := newMemStore()
	store.entered = make(chan struct{})
	store.release = make(chan struct{})
	s := newTestSession(t)

	first, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background(), store)
		done <- err
	}()
	<-store.entered

	_, err = s.Save(context.Background(), store)
	assert.ErrorIs(t, err, planner.ErrSaveInProgress)

	second, err := s.ProposePlacement(routineS, target("room2", "09:00"))
	require.NoError(t, err)

	close(store.release)
	require.NoError(t, <-done)

	d := s.Diff()
	require.Len(t, d.ToCreate, 1)
	assert.Equal(t, second.Placement.ID, d.ToCreate[0].ID)
	_, stillTemp := s.Placement(first.Placement.ID)
	assert.False(t, stillTemp, "first placement should carry its persisted id")
	assert.Len(t, s.Working(), 2)
}

func TestCommitSync(t *testing.T) {
	s := newTestSession(t)
	out, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)

	server := out.Placement
	server.ID = "srv-9"
	server.Routine = schedule.Routine{ID: "R"}
	s.CommitSync(map[string]schedule.Placement{out.Placement.ID: server})

	assert.Equal(t, planner.StateClean, s.State())
	working := s.Working()
	require.Len(t, working, 1)
	assert.Equal(t, "srv-9", working[0].ID)
	assert.Equal(t, "Rhapsody", working[0].Routine.Title)
	assert.False(t, s.CanUndo())

	s.CommitSync(nil)
	assert.Equal(t, planner.StateClean, s.State())
}

func TestUndo(t *testing.T) {
	s := newTestSession(t)

	out, err := s.ProposePlacement(routineR, target("room1", "09:00"))
	require.NoError(t, err)
	_, err = s.MovePlacement(out.Placement.ID, target("room2", "11:00"))
	require.NoError(t, err)

	cmd, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, planner.OpMove, cmd.Op)
	got, ok := s.Placement(out.Placement.ID)
	require.True(t, ok)
	assert.Equal(t, "room1", got.RoomID)
	assert.Equal(t, schedtest.At("09:00"), got.Start)
	assert.Len(t, s.Log(), 1)

	_, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, planner.StateClean, s.State())

	_, err = s.Undo()
	assert.ErrorIs(t, err, planner.ErrNothingToUndo)
}

func TestUndoHistoryIsBounded(t *testing.T) {
	rooms := schedtest.Rooms("room1")
	s := planner.NewSession(nil, schedtest.Catalog([]schedule.Routine{routineR}, rooms), planner.WithMaxHistory(2))
	for _, start := range []string{"08:00", "10:00", "12:00"} {
		_, err := s.ProposePlacement(routineR, target("room1", start))
		require.NoError(t, err)
	}
	_, err := s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	assert.ErrorIs(t, err, planner.ErrNothingToUndo)
	assert.Len(t, s.Working(), 1)
}

func TestSetRoutineRosterChange(t *testing.T) {
	p1 := schedtest.NewPlacement("p1", routineR, schedtest.InRoom("room1"), schedtest.On(day), schedtest.StartingAt("10:00"))
	s := newTestSession(t, p1)

	updated := routineR.Clone()
	updated.DancerIDs = append(updated.DancerIDs, "C")
	s.SetRoutine(updated)
	assert.False(t, s.IsDirty())

	out, err := s.ProposePlacement(routineS, target("room2", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, planner.StatusPending, out.Status)
	assert.Equal(t, "C", out.Conflicts[0].DancerID)
}

func TestWeeklyTargets(t *testing.T) {
	targets := planner.WeeklyTargets(target("room1", "18:00"), 3)
	require.Len(t, targets, 3)
	want := []string{"2025-03-10", "2025-03-17", "2025-03-24"}
	for i, tg := range targets {
		assert.Equal(t, want[i], tg.Date.Format("2006-01-02"))
		assert.Equal(t, schedtest.At("18:00"), tg.Start)
	}
	assert.Len(t, planner.WeeklyTargets(target("room1", "18:00"), 0), 1)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&planner.Rejection{Kind: planner.KindDuplicate}, "duplicate"},
		{&planner.Rejection{Kind: planner.KindRoomConflict}, "room_conflict"},
		{&planner.Rejection{Kind: planner.KindRoomUnavailable}, "room_unavailable"},
		{fmt.Errorf("x: %w", planner.ErrNotFound), "not_found"},
		{fmt.Errorf("placement p1: %w", planner.ErrPlacementGone), "not_found"},
		{schedule.ErrCrossesMidnight, "validation"},
		{context.Canceled, "cancelled"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, planner.ErrorKind(tt.err), "%v", tt.err)
	}
}
