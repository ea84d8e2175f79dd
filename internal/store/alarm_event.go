package store

import (
	"database/sql"
	"time"
)

// Event kinds.
const (
	KindStart = "start"
	KindStop  = "stop"
)

// AlarmEvent is one alarm transition within a session.
type AlarmEvent struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Kind         string    `json:"kind"`
	Cause        string    `json:"cause,omitempty"`
	EAR          float64   `json:"ear"`
	ClosedFrames int       `json:"closed_frames"`
	Frame        int       `json:"frame"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventRepository provides access to alarm events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the alarm event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an alarm event. A start event also increments the
// session's alarm counter.
func (r *EventRepository) Create(e *AlarmEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO alarm_events (session_id, kind, cause, ear, closed_frames, frame, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Kind, e.Cause, e.EAR, e.ClosedFrames, e.Frame, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	if e.Kind == KindStart {
		if _, err := tx.Exec(`UPDATE sessions SET alarms = alarms + 1 WHERE id = ?`, e.SessionID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	e.ID, _ = result.LastInsertId()
	return nil
}

// ListBySession returns a session's events in chronological order.
func (r *EventRepository) ListBySession(sessionID string) ([]*AlarmEvent, error) {
	return r.query(
		`SELECT id, session_id, kind, cause, ear, closed_frames, frame, created_at
		 FROM alarm_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
}

// Recent returns the newest events across all sessions, newest first.
func (r *EventRepository) Recent(limit int) ([]*AlarmEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(
		`SELECT id, session_id, kind, cause, ear, closed_frames, frame, created_at
		 FROM alarm_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

func (r *EventRepository) query(q string, args ...any) ([]*AlarmEvent, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AlarmEvent
	for rows.Next() {
		e := &AlarmEvent{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Cause, &e.EAR, &e.ClosedFrames, &e.Frame, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
