package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			active     INTEGER NOT NULL DEFAULT 1 CHECK(active IN (0, 1)),
			capacity   INTEGER NOT NULL DEFAULT 0 CHECK(capacity >= 0),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS dancers (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			classes    TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS teachers (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS genres (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS levels (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS routines (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			teacher_id TEXT REFERENCES teachers(id),
			genre_id   TEXT REFERENCES genres(id),
			level_id   TEXT REFERENCES levels(id),
			duration   INTEGER NOT NULL CHECK(duration > 0 AND duration <= 1440),
			color      TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS routine_dancers (
			routine_id TEXT NOT NULL REFERENCES routines(id) ON DELETE CASCADE,
			dancer_id  TEXT NOT NULL REFERENCES dancers(id) ON DELETE CASCADE,
			PRIMARY KEY (routine_id, dancer_id)
		);

		CREATE TABLE IF NOT EXISTS placements (
			id            TEXT PRIMARY KEY,
			routine_id    TEXT NOT NULL REFERENCES routines(id),
			room_id       TEXT NOT NULL REFERENCES rooms(id),
			date          TEXT NOT NULL,
			start_minutes INTEGER NOT NULL CHECK(start_minutes BETWEEN 0 AND 1439),
			duration      INTEGER NOT NULL CHECK(duration > 0),
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK(start_minutes + duration <= 1440),
			UNIQUE(room_id, date, start_minutes)
		);

		CREATE INDEX IF NOT EXISTS idx_placements_date ON placements(date);
		CREATE INDEX IF NOT EXISTS idx_placements_routine ON placements(routine_id);
		CREATE INDEX IF NOT EXISTS idx_routine_dancers_dancer ON routine_dancers(dancer_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
