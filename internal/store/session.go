package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gamewell/collector/internal/model"
)

// SessionStore owns session rows. The tracker is the only writer of
// lifecycle fields and the sync engine the only writer of sync-state fields,
// so individual row updates need no cross-component locking.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionCols = `id, game_name, game_executable, category, started_at, ended_at, duration_minutes, is_late_night, is_synced, synced_at, created_at`

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var category string
	var endedAt sql.NullTime
	var syncedAt sql.NullTime

	err := scanner.Scan(
		&s.ID, &s.GameName, &s.GameExecutable, &category,
		&s.StartedAt, &endedAt, &s.DurationMinutes, &s.IsLateNight,
		&s.IsSynced, &syncedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Category = model.ParseCategory(category)
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		s.SyncedAt = &t
	}
	return &s, nil
}

// Create inserts a new open session. The row starts with a null end time and
// is not eligible for sync until closed.
func (s *SessionStore) Create(gameName, executable string, category model.Category, startedAt time.Time) (*model.Session, error) {
	result, err := s.db.Exec(
		`INSERT INTO sessions (game_name, game_executable, category, started_at) VALUES (?, ?, ?, ?)`,
		gameName, executable, string(category), startedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the session with the given id, or ErrNotFound.
func (s *SessionStore) GetByID(id int64) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Close sets the end time and derived fields on an open session. It rejects
// unknown ids, already-closed sessions, and end times before the start.
func (s *SessionStore) Close(id int64, endedAt time.Time, lateNightHour int) (*model.Session, error) {
	sess, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sess.EndedAt != nil {
		return nil, ErrSessionClosed
	}
	if endedAt.Before(sess.StartedAt) {
		return nil, ErrEndBeforeStart
	}

	duration := int(endedAt.Sub(sess.StartedAt).Minutes())
	lateNight := model.IsLateNight(sess.StartedAt.Local(), endedAt.Local(), lateNightHour)

	_, err = s.db.Exec(
		`UPDATE sessions SET ended_at = ?, duration_minutes = ?, is_late_night = ? WHERE id = ? AND ended_at IS NULL`,
		endedAt.UTC(), duration, lateNight, id,
	)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return s.GetByID(id)
}

// ListUnsynced returns ended, unsynced sessions oldest-first, capped at
// limit. Oldest-first bounds staleness and gives fair progress when some
// rows keep failing to push.
func (s *SessionStore) ListUnsynced(limit int) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM sessions
		 WHERE ended_at IS NOT NULL AND is_synced = 0
		 ORDER BY started_at ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unsynced sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// MarkSynced records a successful push. Idempotent: marking an
// already-synced row is a no-op, not an error.
func (s *SessionStore) MarkSynced(id int64, syncedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET is_synced = 1, synced_at = ? WHERE id = ? AND is_synced = 0`,
		syncedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// ListSince returns sessions that started at or after the given time,
// oldest-first. Used by the analytics boundary.
func (s *SessionStore) ListSince(since time.Time) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM sessions WHERE started_at >= ? ORDER BY started_at ASC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions since: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// ListRecent returns the newest sessions first, capped at limit.
func (s *SessionStore) ListRecent(limit int) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// ActiveByExecutable returns the open session for the given executable, or
// ErrNotFound if none is open.
func (s *SessionStore) ActiveByExecutable(executable string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE game_executable = ? AND ended_at IS NULL ORDER BY started_at DESC LIMIT 1`,
		executable,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active session by executable: %w", err)
	}
	return sess, nil
}

// CountUnsynced returns how many ended sessions still await sync.
func (s *SessionStore) CountUnsynced() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE ended_at IS NOT NULL AND is_synced = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unsynced: %w", err)
	}
	return n, nil
}
