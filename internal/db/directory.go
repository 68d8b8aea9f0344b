package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/javiermolinar/barre/internal/schedule"
)

// CreateRoom adds a room. An empty ID gets a new ULID.
func (s *SQLite) CreateRoom(ctx context.Context, r schedule.Room) (schedule.Room, error) {
	if strings.TrimSpace(r.Name) == "" {
		return schedule.Room{}, schedule.ErrEmptyName
	}
	assignID(&r.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, active, capacity) VALUES (?, ?, ?, ?)`,
		r.ID, r.Name, r.Active, r.Capacity,
	)
	if err != nil {
		return schedule.Room{}, fmt.Errorf("inserting room: %w", err)
	}
	return r, nil
}

// ListRooms returns all rooms ordered by name.
func (s *SQLite) ListRooms(ctx context.Context) ([]schedule.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, active, capacity FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rooms []schedule.Room
	for rows.Next() {
		var r schedule.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Active, &r.Capacity); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return rooms, nil
}

// SetRoomActive opens or closes a room for new placements. Existing
// placements in the room are kept.
func (s *SQLite) SetRoomActive(ctx context.Context, id string, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("room %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateDancer adds a dancer. An empty ID gets a new ULID.
func (s *SQLite) CreateDancer(ctx context.Context, d schedule.Dancer) (schedule.Dancer, error) {
	if strings.TrimSpace(d.Name) == "" {
		return schedule.Dancer{}, schedule.ErrEmptyName
	}
	assignID(&d.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dancers (id, name, email, phone, classes) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Email, d.Phone, strings.Join(d.Classes, ","),
	)
	if err != nil {
		return schedule.Dancer{}, fmt.Errorf("inserting dancer: %w", err)
	}
	return d, nil
}

// ListDancers returns all dancers ordered by name.
func (s *SQLite) ListDancers(ctx context.Context) ([]schedule.Dancer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone, classes FROM dancers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying dancers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dancers []schedule.Dancer
	for rows.Next() {
		var (
			d       schedule.Dancer
			classes string
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &classes); err != nil {
			return nil, fmt.Errorf("scanning dancer: %w", err)
		}
		if classes != "" {
			d.Classes = strings.Split(classes, ",")
		}
		dancers = append(dancers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dancers: %w", err)
	}
	return dancers, nil
}

// CreateTeacher adds a teacher.
func (s *SQLite) CreateTeacher(ctx context.Context, name string) (schedule.Teacher, error) {
	id, err := s.createNamed(ctx, "teachers", name)
	return schedule.Teacher{ID: id, Name: name}, err
}

// CreateGenre adds a genre. Names are unique.
func (s *SQLite) CreateGenre(ctx context.Context, name string) (schedule.Genre, error) {
	id, err := s.createNamed(ctx, "genres", name)
	return schedule.Genre{ID: id, Name: name}, err
}

// CreateLevel adds a level. Names are unique.
func (s *SQLite) CreateLevel(ctx context.Context, name string) (schedule.Level, error) {
	id, err := s.createNamed(ctx, "levels", name)
	return schedule.Level{ID: id, Name: name}, err
}

func (s *SQLite) createNamed(ctx context.Context, table, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", schedule.ErrEmptyName
	}
	id := newID()

	query, args, err := sq.Insert(table).Columns("id", "name").Values(id, name).ToSql()
	if err != nil {
		return "", fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting into %s: %w", table, err)
	}
	return id, nil
}

type named struct {
	ID   string
	Name string
}

func (s *SQLite) listNamed(ctx context.Context, table string) ([]named, error) {
	query, args, err := sq.Select("id", "name").From(table).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []named
	for rows.Next() {
		var n named
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateRoutine adds a routine together with its roster.
func (s *SQLite) CreateRoutine(ctx context.Context, r schedule.Routine) (schedule.Routine, error) {
	if strings.TrimSpace(r.Title) == "" {
		return schedule.Routine{}, schedule.ErrEmptyName
	}
	if r.Duration <= 0 {
		return schedule.Routine{}, fmt.Errorf("%w: %d", schedule.ErrInvalidDuration, r.Duration)
	}
	assignID(&r.ID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO routines (id, title, teacher_id, genre_id, level_id, duration, color)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Title, nullString(r.TeacherID), nullString(r.GenreID), r.LevelID, r.Duration, r.Color,
		)
		if err != nil {
			return fmt.Errorf("inserting routine: %w", err)
		}
		return insertRoster(ctx, tx, r.ID, r.DancerIDs)
	})
	if err != nil {
		return schedule.Routine{}, err
	}
	return r.Clone(), nil
}

// SetRoster replaces the dancers of routine id.
func (s *SQLite) SetRoster(ctx context.Context, id string, dancerIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM routines WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("querying routine: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("routine %s: %w", id, ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM routine_dancers WHERE routine_id = ?`, id); err != nil {
			return fmt.Errorf("clearing roster: %w", err)
		}
		return insertRoster(ctx, tx, id, dancerIDs)
	})
}

func insertRoster(ctx context.Context, tx *sql.Tx, routineID string, dancerIDs []string) error {
	if len(dancerIDs) == 0 {
		return nil
	}

	q := sq.Insert("routine_dancers").Columns("routine_id", "dancer_id").Options("OR IGNORE")
	for _, d := range dancerIDs {
		q = q.Values(routineID, d)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building roster insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting roster: %w", err)
	}
	return nil
}

// ListRoutines returns all routines with their rosters, ordered by title.
func (s *SQLite) ListRoutines(ctx context.Context) ([]schedule.Routine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, teacher_id, genre_id, level_id, duration, color
		FROM routines
		ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		routines []schedule.Routine
		index    = make(map[string]int)
	)
	for rows.Next() {
		var (
			r       schedule.Routine
			teacher sql.NullString
			genre   sql.NullString
			level   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &teacher, &genre, &level, &r.Duration, &r.Color); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		r.TeacherID = teacher.String
		r.GenreID = genre.String
		if level.Valid {
			r.LevelID = &level.String
		}
		index[r.ID] = len(routines)
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating routines: %w", err)
	}

	roster, err := s.db.QueryContext(ctx, `SELECT routine_id, dancer_id FROM routine_dancers ORDER BY routine_id, dancer_id`)
	if err != nil {
		return nil, fmt.Errorf("querying rosters: %w", err)
	}
	defer func() { _ = roster.Close() }()

	for roster.Next() {
		var routineID, dancerID string
		if err := roster.Scan(&routineID, &dancerID); err != nil {
			return nil, fmt.Errorf("scanning roster: %w", err)
		}
		if i, ok := index[routineID]; ok {
			routines[i].DancerIDs = append(routines[i].DancerIDs, dancerID)
		}
	}
	if err := roster.Err(); err != nil {
		return nil, fmt.Errorf("iterating rosters: %w", err)
	}

	return routines, nil
}

// Catalog loads the whole directory into a schedule.Catalog.
func (s *SQLite) Catalog(ctx context.Context) (*schedule.Catalog, error) {
	c := schedule.NewCatalog()

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		c.AddRoom(r)
	}

	dancers, err := s.ListDancers(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range dancers {
		c.AddDancer(d)
	}

	routines, err := s.ListRoutines(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range routines {
		c.AddRoutine(r)
	}

	teachers, err := s.listNamed(ctx, "teachers")
	if err != nil {
		return nil, err
	}
	for _, t := range teachers {
		c.AddTeacher(schedule.Teacher{ID: t.ID, Name: t.Name})
	}

	genres, err := s.listNamed(ctx, "genres")
	if err != nil {
		return nil, err
	}
	for _, g := range genres {
		c.AddGenre(schedule.Genre{ID: g.ID, Name: g.Name})
	}

	levels, err := s.listNamed(ctx, "levels")
	if err != nil {
		return nil, err
	}
	for _, l := range levels {
		c.AddLevel(schedule.Level{ID: l.ID, Name: l.Name})
	}

	return c, nil
}

func assignID(id *string) {
	if *id == "" {
		*id = newID()
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
