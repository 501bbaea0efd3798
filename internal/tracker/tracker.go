// Package tracker is the seam between the external activity source and the
// session store: it receives process start/stop events, owns the open
// session per executable, and closes sessions with their derived fields.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamewell/collector/internal/classify"
	"github.com/gamewell/collector/internal/model"
	"github.com/gamewell/collector/internal/store"
)

// Notifier receives live session lifecycle events for the dashboard feed.
// Implementations must not block.
type Notifier interface {
	SessionStarted(s *model.Session)
	SessionEnded(s *model.Session)
}

// Tracker turns raw activity events into session rows.
type Tracker struct {
	sessions      *store.SessionStore
	lateNightHour int
	notifier      Notifier
	logger        *slog.Logger
}

// New creates a tracker. notifier may be nil when no live feed is attached.
func New(sessions *store.SessionStore, lateNightHour int, notifier Notifier, logger *slog.Logger) *Tracker {
	if lateNightHour <= 0 || lateNightHour > 23 {
		lateNightHour = model.DefaultLateNightHour
	}
	return &Tracker{
		sessions:      sessions,
		lateNightHour: lateNightHour,
		notifier:      notifier,
		logger:        logger,
	}
}

// OnSessionStart records a new session for the given executable. If an open
// session already exists for the same executable (a missed stop event), it
// is closed at the new start time first so one process never holds two open
// rows.
func (t *Tracker) OnSessionStart(executable string, startedAt time.Time) (*model.Session, error) {
	if stale, err := t.sessions.ActiveByExecutable(executable); err == nil {
		t.logger.Warn("closing stale session before new start", "session_id", stale.ID, "executable", executable)
		if _, err := t.sessions.Close(stale.ID, startedAt, t.lateNightHour); err != nil {
			return nil, fmt.Errorf("close stale session: %w", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	game := classify.Classify(executable)
	sess, err := t.sessions.Create(game.Name, executable, game.Category, startedAt)
	if err != nil {
		return nil, err
	}

	t.logger.Info("session started", "session_id", sess.ID, "game", sess.GameName, "category", sess.Category)
	if t.notifier != nil {
		t.notifier.SessionStarted(sess)
	}
	return sess, nil
}

// OnSessionEnd closes the session, computing its duration and late-night
// flag. Unknown ids and already-closed sessions are rejected with the
// store's sentinel errors.
func (t *Tracker) OnSessionEnd(sessionID int64, endedAt time.Time) (*model.Session, error) {
	sess, err := t.sessions.Close(sessionID, endedAt, t.lateNightHour)
	if err != nil {
		return nil, err
	}

	t.logger.Info("session ended",
		"session_id", sess.ID,
		"game", sess.GameName,
		"duration_minutes", sess.DurationMinutes,
		"late_night", sess.IsLateNight,
	)
	if t.notifier != nil {
		t.notifier.SessionEnded(sess)
	}
	return sess, nil
}
