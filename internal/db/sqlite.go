// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite" // SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotOccupied is returned when room, date and start are already
	// taken. It is the planner's sentinel so sessions can report it as a
	// room conflict.
	ErrSlotOccupied = planner.ErrSlotOccupied
	// ErrPlacementGone marks updates and deletes of a placement that is not
	// stored. Those errors also match ErrNotFound.
	ErrPlacementGone = planner.ErrPlacementGone
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

var placementColumns = []string{"id", "routine_id", "room_id", "date", "start_minutes", "duration"}

// SQLite implements planner.Store and the studio directory using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ planner.Store = (*SQLite)(nil)

// New creates a new SQLite repository at path and runs migrations.
func New(path string) (*SQLite, error) {
	return open(path+"?"+pragmas+"&_pragma=journal_mode(WAL)", 0)
}

// NewMemory opens a private in-memory database. It holds a single
// connection, since every connection to :memory: is a separate database.
func NewMemory() (*SQLite, error) {
	return open(":memory:?"+pragmas, 1)
}

func open(dsn string, maxConns int) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// PlacementFilter narrows ListPlacementsFiltered. Zero fields match
// everything.
type PlacementFilter struct {
	Range     *dateutil.DateRange
	RoomID    string
	RoutineID string
	DancerID  string
}

// ListPlacements returns placements within r (inclusive), or all when r is
// nil, ordered by date, start and room.
func (s *SQLite) ListPlacements(ctx context.Context, r *dateutil.DateRange) ([]schedule.Placement, error) {
	return s.ListPlacementsFiltered(ctx, PlacementFilter{Range: r})
}

// ListPlacementsFiltered returns placements matching f.
func (s *SQLite) ListPlacementsFiltered(ctx context.Context, f PlacementFilter) ([]schedule.Placement, error) {
	q := sq.Select(prefixed("p", placementColumns)...).
		From("placements p").
		OrderBy("p.date", "p.start_minutes", "p.room_id", "p.id")

	if f.Range != nil {
		q = q.Where(sq.GtOrEq{"p.date": dateutil.DateKey(f.Range.Start)}).
			Where(sq.LtOrEq{"p.date": dateutil.DateKey(f.Range.End)})
	}
	if f.RoomID != "" {
		q = q.Where(sq.Eq{"p.room_id": f.RoomID})
	}
	if f.RoutineID != "" {
		q = q.Where(sq.Eq{"p.routine_id": f.RoutineID})
	}
	if f.DancerID != "" {
		q = q.Join("routine_dancers rd ON rd.routine_id = p.routine_id").
			Where(sq.Eq{"rd.dancer_id": f.DancerID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building placement query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying placements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var placements []schedule.Placement
	for rows.Next() {
		var rec schedule.Record
		if err := rows.Scan(&rec.ID, &rec.RoutineID, &rec.RoomID, &rec.Date, &rec.StartMinutes, &rec.Duration); err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}
		p, err := schedule.FromRecord(rec, time.Local)
		if err != nil {
			return nil, fmt.Errorf("placement %s: %w", rec.ID, err)
		}
		placements = append(placements, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placements: %w", err)
	}

	return placements, nil
}

// GetPlacement retrieves a placement by ID.
func (s *SQLite) GetPlacement(ctx context.Context, id string) (schedule.Placement, error) {
	query, args, err := sq.Select(placementColumns...).
		From("placements").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return schedule.Placement{}, fmt.Errorf("building placement query: %w", err)
	}

	var rec schedule.Record
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&rec.ID, &rec.RoutineID, &rec.RoomID, &rec.Date, &rec.StartMinutes, &rec.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Placement{}, fmt.Errorf("placement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return schedule.Placement{}, fmt.Errorf("querying placement: %w", err)
	}

	return schedule.FromRecord(rec, time.Local)
}

// CreatePlacement inserts rec under a new ULID. Any id on rec is ignored.
// Returns ErrSlotOccupied if the room already has a placement starting at the
// same date and minute.
func (s *SQLite) CreatePlacement(ctx context.Context, rec schedule.Record) (schedule.Placement, error) {
	if err := rec.Validate(); err != nil {
		return schedule.Placement{}, err
	}

	rec.ID = newID()

	query, args, err := sq.Insert("placements").
		Columns(placementColumns...).
		Values(rec.ID, rec.RoutineID, rec.RoomID, rec.Date, rec.StartMinutes, rec.Duration).
		ToSql()
	if err != nil {
		return schedule.Placement{}, fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return schedule.Placement{}, fmt.Errorf("inserting placement: %w", mapConstraint(err))
	}

	return schedule.FromRecord(rec, time.Local)
}

// UpdatePlacement overwrites the slot of placement id.
func (s *SQLite) UpdatePlacement(ctx context.Context, id string, rec schedule.Record) (schedule.Placement, error) {
	if err := rec.Validate(); err != nil {
		return schedule.Placement{}, err
	}
	rec.ID = id

	query, args, err := sq.Update("placements").
		SetMap(map[string]any{
			"routine_id":    rec.RoutineID,
			"room_id":       rec.RoomID,
			"date":          rec.Date,
			"start_minutes": rec.StartMinutes,
			"duration":      rec.Duration,
			"updated_at":    sq.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return schedule.Placement{}, fmt.Errorf("building update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return schedule.Placement{}, fmt.Errorf("updating placement: %w", mapConstraint(err))
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schedule.Placement{}, placementGone(id)
	}

	return schedule.FromRecord(rec, time.Local)
}

// DeletePlacement removes placement id.
func (s *SQLite) DeletePlacement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM placements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting placement: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return placementGone(id)
	}

	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// mapConstraint turns the placements uniqueness violation into
// ErrSlotOccupied and leaves other errors alone.
func mapConstraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %v", ErrSlotOccupied, err)
	}
	return err
}

func placementGone(id string) error {
	return fmt.Errorf("placement %s: %w (%w)", id, ErrNotFound, ErrPlacementGone)
}

func newID() string {
	return ulid.Make().String()
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}
