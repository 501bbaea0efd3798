// Package server exposes the collector's boundary surface on localhost:
// settings/IPC operations for the sync engine, activity events from the
// process monitor, session listings, analytics, and the live feed.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gamewell/collector/internal/live"
	"github.com/gamewell/collector/internal/store"
	sessionsync "github.com/gamewell/collector/internal/sync"
	"github.com/gamewell/collector/internal/tracker"
)

type Server struct {
	sessions *store.SessionStore
	engine   *sessionsync.Engine
	tracker  *tracker.Tracker
	feed     *live.Feed
	logger   *slog.Logger
}

func New(sessions *store.SessionStore, engine *sessionsync.Engine, trk *tracker.Tracker, feed *live.Feed, logger *slog.Logger) *Server {
	return &Server{
		sessions: sessions,
		engine:   engine,
		tracker:  trk,
		feed:     feed,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	// Activity source boundary.
	mux.HandleFunc("POST /api/activity/start", s.activityStart)
	mux.HandleFunc("POST /api/activity/end", s.activityEnd)

	// Sync engine boundary.
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("POST /api/sync", s.syncNow)
	mux.HandleFunc("POST /api/test-connection", s.testConnection)
	mux.HandleFunc("GET /api/child", s.getChild)
	mux.HandleFunc("PUT /api/child", s.setChild)

	// Session and analytics boundary.
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/analytics/health", s.analyticsHealth)
	mux.HandleFunc("GET /api/analytics/burnout", s.analyticsBurnout)
	mux.HandleFunc("GET /api/analytics/weekly", s.analyticsWeekly)
	mux.HandleFunc("GET /api/analytics/categories", s.analyticsCategories)
	mux.HandleFunc("GET /api/analytics/dominance", s.analyticsDominance)
	mux.HandleFunc("GET /api/analytics/late-night", s.analyticsLateNight)

	// Live feed for the dashboard.
	mux.HandleFunc("GET /ws", s.feed.Handler())

	return requestLogger(s.logger.With("component", "http"))(mux)
}
