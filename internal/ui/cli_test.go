package ui

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/barre/internal/config"
	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/schedule"
)

// testNow is a Wednesday; 2025-03-10 is the following Monday.
var testNow = time.Date(2025, 3, 5, 9, 0, 0, 0, time.Local)

type studio struct {
	store *db.SQLite
	path  string
	ana   string
	bea   string
}

// newStudio opens a temp database with three rooms (one closed), two
// dancers and three routines:
//
//	Rhapsody  60 min  Ana, Bea
//	Tango     45 min  Ana
//	Solo      30 min  Bea
func newStudio(t *testing.T) *studio {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "barre.db")
	store, err := db.New(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, r := range []schedule.Room{
		{ID: "room1", Name: "Studio 1", Active: true},
		{ID: "room2", Name: "Studio 2", Active: true},
		{ID: "room3", Name: "Garage", Active: false},
	} {
		if _, err := store.CreateRoom(ctx, r); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
	}

	s := &studio{store: store, path: path}
	for _, d := range []struct {
		name string
		id   *string
	}{{"Ana", &s.ana}, {"Bea", &s.bea}} {
		created, err := store.CreateDancer(ctx, schedule.Dancer{Name: d.name})
		if err != nil {
			t.Fatalf("CreateDancer failed: %v", err)
		}
		*d.id = created.ID
	}

	for _, r := range []schedule.Routine{
		{ID: "rhapsody", Title: "Rhapsody", Duration: 60, DancerIDs: []string{s.ana, s.bea}},
		{ID: "tango", Title: "Tango", Duration: 45, DancerIDs: []string{s.ana}},
		{ID: "solo", Title: "Solo", Duration: 30, DancerIDs: []string{s.bea}},
	} {
		if _, err := store.CreateRoutine(ctx, r); err != nil {
			t.Fatalf("CreateRoutine failed: %v", err)
		}
	}
	return s
}

// run executes one command line against a fresh App sharing the studio's
// database, so flag values never leak between invocations.
func (s *studio) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = s.path
	cfg.UI.Color = "never"

	app := NewApp(s.store, cfg)
	app.now = func() time.Time { return testNow }
	app.in = strings.NewReader("")

	var out, errOut bytes.Buffer
	app.root.SetOut(&out)
	app.root.SetErr(&errOut)
	app.root.SetArgs(args)

	err := app.ExecuteContext(context.Background())
	if cerr := app.Close(); cerr != nil {
		t.Fatalf("Close failed: %v", cerr)
	}
	return out.String(), err
}

// mustRun fails the test if the command fails.
func (s *studio) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := s.run(t, args...)
	if err != nil {
		t.Fatalf("barre %s failed: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (s *studio) placements(t *testing.T) []schedule.Placement {
	t.Helper()
	ps, err := s.store.ListPlacements(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPlacements failed: %v", err)
	}
	return ps
}

// only returns the single stored placement.
func (s *studio) only(t *testing.T) schedule.Placement {
	t.Helper()
	ps := s.placements(t)
	if len(ps) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(ps))
	}
	return ps[0]
}

func TestVersionCommand(t *testing.T) {
	s := newStudio(t)
	out := s.mustRun(t, "version")
	if !strings.HasPrefix(out, "barre ") {
		t.Errorf("version output = %q", out)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	s := newStudio(t)
	if _, err := s.run(t, "reticulate"); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestInvalidLogLevelFails(t *testing.T) {
	s := newStudio(t)
	_, err := s.run(t, "list", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}
