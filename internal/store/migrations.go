package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per monitoring run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			alarms INTEGER NOT NULL DEFAULT 0
		)`,

		// Alarm events table - one row per alarm transition
		`CREATE TABLE IF NOT EXISTS alarm_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL CHECK(kind IN ('start', 'stop')),
			cause TEXT NOT NULL DEFAULT '' CHECK(cause IN ('', 'phone', 'eyes', 'both')),
			ear REAL NOT NULL DEFAULT 0,
			closed_frames INTEGER NOT NULL DEFAULT 0,
			frame INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_alarm_events_session_id ON alarm_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alarm_events_created_at ON alarm_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
