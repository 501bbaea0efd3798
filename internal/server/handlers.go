package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gamewell/collector/internal/analytics"
	"github.com/gamewell/collector/internal/model"
	"github.com/gamewell/collector/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Activity source boundary ---

type activityStartRequest struct {
	Executable string     `json:"executable"`
	Timestamp  *time.Time `json:"timestamp"`
}

func (s *Server) activityStart(w http.ResponseWriter, r *http.Request) {
	var req activityStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Executable == "" {
		writeError(w, http.StatusBadRequest, "executable is required")
		return
	}

	at := time.Now()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	sess, err := s.tracker.OnSessionStart(req.Executable, at)
	if err != nil {
		s.logger.Error("activity start", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record session start")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

type activityEndRequest struct {
	SessionID int64      `json:"session_id"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) activityEnd(w http.ResponseWriter, r *http.Request) {
	var req activityEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	at := time.Now()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	sess, err := s.tracker.OnSessionEnd(req.SessionID, at)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown session")
		return
	case errors.Is(err, store.ErrSessionClosed):
		writeError(w, http.StatusConflict, "session already closed")
		return
	case errors.Is(err, store.ErrEndBeforeStart):
		writeError(w, http.StatusBadRequest, "end time before start time")
		return
	case err != nil:
		s.logger.Error("activity end", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record session end")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// --- Sync engine boundary ---

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status()
	if err != nil {
		s.logger.Error("status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) syncNow(w http.ResponseWriter, r *http.Request) {
	result := s.engine.Sync(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	ok := s.engine.TestConnection(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) getChild(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"child_id": s.engine.ChildID()})
}

type setChildRequest struct {
	ChildID string `json:"child_id"`
}

func (s *Server) setChild(w http.ResponseWriter, r *http.Request) {
	var req setChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.engine.Configure(req.ChildID); err != nil {
		s.logger.Error("set child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save child link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"child_id": req.ChildID})
}

// --- Sessions and analytics ---

// windowSessions returns sessions from the trailing N days (default 7,
// capped at 90) for analytics queries.
func (s *Server) windowSessions(r *http.Request, now time.Time) ([]model.Session, error) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}
	return s.sessions.ListSince(now.AddDate(0, 0, -days))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.windowSessions(r, time.Now())
	if err != nil {
		s.logger.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) analyticsHealth(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.windowSessions(r, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Health(sessions))
}

func (s *Server) analyticsBurnout(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	sessions, err := s.windowSessions(r, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Burnout(sessions, now))
}

func (s *Server) analyticsWeekly(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	sessions, err := s.sessions.ListSince(now.AddDate(0, 0, -7))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Weekly(sessions, now))
}

func (s *Server) analyticsCategories(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.windowSessions(r, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, analytics.CategoryBreakdown(sessions))
}

func (s *Server) analyticsDominance(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.windowSessions(r, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, analytics.GameDominance(sessions))
}

// analyticsLateNight reports the current 7-day window against the 7 days
// before it so the trend has a real previous-period sample.
func (s *Server) analyticsLateNight(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	all, err := s.sessions.ListSince(now.AddDate(0, 0, -14))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	cutoff := now.AddDate(0, 0, -7)
	var current, prior []model.Session
	for _, sess := range all {
		if sess.StartedAt.Before(cutoff) {
			prior = append(prior, sess)
		} else {
			current = append(current, sess)
		}
	}

	previous := analytics.LateNightGaming(prior, nil)
	writeJSON(w, http.StatusOK, analytics.LateNightGaming(current, &previous))
}
