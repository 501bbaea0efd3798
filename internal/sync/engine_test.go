package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamewell/collector/internal/api"
	"github.com/gamewell/collector/internal/database"
	"github.com/gamewell/collector/internal/model"
	"github.com/gamewell/collector/internal/store"
)

func setupEngine(t *testing.T, handler http.Handler) (*Engine, *store.SessionStore, *store.SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sessions := store.NewSessionStore(db)
	settings := store.NewSettingsStore(db)
	client := api.NewClient(server.URL, 5*time.Second)
	engine := NewEngine(sessions, settings, client, Config{}, nil, slog.New(slog.DiscardHandler))
	return engine, sessions, settings
}

func addEndedSession(t *testing.T, ss *store.SessionStore, game string, start time.Time, minutes int) *model.Session {
	t.Helper()
	sess, err := ss.Create(game, game+".exe", model.CategoryCasual, start)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	closed, err := ss.Close(sess.ID, start.Add(time.Duration(minutes)*time.Minute), model.DefaultLateNightHour)
	if err != nil {
		t.Fatalf("close session: %v", err)
	}
	return closed
}

func TestInitializeBootstrapsDeviceIdentityOnce(t *testing.T) {
	engine, _, settings := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if err := engine.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	first, err := settings.Get(store.KeyDeviceID)
	if err != nil {
		t.Fatalf("get device id: %v", err)
	}
	if first == "" {
		t.Fatal("expected generated device id")
	}

	// Second call reuses the persisted identity.
	if err := engine.Initialize(); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	second, _ := settings.Get(store.KeyDeviceID)
	if second != first {
		t.Errorf("device id changed across initialize calls: %q vs %q", first, second)
	}

	name, _ := settings.Get(store.KeyDeviceName)
	if name == "" {
		t.Error("expected persisted device name")
	}
}

func TestSyncWithoutChildIDTouchesNoNetwork(t *testing.T) {
	var calls atomic.Int32
	engine, sessions, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	engine.Initialize()
	addEndedSession(t, sessions, "Minecraft", time.Now().UTC().Add(-2*time.Hour), 60)

	result := engine.Sync(context.Background())
	if result.Success {
		t.Error("expected precondition failure")
	}
	if result.Message != "No child ID configured" {
		t.Errorf("message = %q", result.Message)
	}
	if calls.Load() != 0 {
		t.Errorf("network calls = %d, want 0", calls.Load())
	}
}

func TestSyncPushesEligibleSessions(t *testing.T) {
	var pushes []api.SessionPush
	engine, sessions, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p api.SessionPush
		json.NewDecoder(r.Body).Decode(&p)
		pushes = append(pushes, p)
		w.WriteHeader(http.StatusCreated)
	}))
	engine.Initialize()
	engine.Configure("child-1")

	base := time.Now().UTC().Add(-6 * time.Hour)
	addEndedSession(t, sessions, "Minecraft", base, 60)
	addEndedSession(t, sessions, "Roblox", base.Add(2*time.Hour), 45)

	result := engine.Sync(context.Background())
	if !result.Success {
		t.Fatalf("sync failed: %s", result.Message)
	}
	if result.Synced != 2 {
		t.Errorf("synced = %d, want 2", result.Synced)
	}
	if len(pushes) != 2 {
		t.Fatalf("pushes = %d, want 2", len(pushes))
	}
	// Oldest first.
	if pushes[0].GameName != "Minecraft" || pushes[1].GameName != "Roblox" {
		t.Errorf("push order = [%s, %s]", pushes[0].GameName, pushes[1].GameName)
	}
	if pushes[0].ChildID != "child-1" {
		t.Errorf("child_id = %q", pushes[0].ChildID)
	}

	status, _ := engine.Status()
	if !status.IsOnline {
		t.Error("expected online after successful pushes")
	}
}

func TestSyncIdempotentWithZeroEligibleRows(t *testing.T) {
	var calls atomic.Int32
	engine, sessions, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	engine.Initialize()
	engine.Configure("child-1")

	addEndedSession(t, sessions, "Minecraft", time.Now().UTC().Add(-3*time.Hour), 60)

	first := engine.Sync(context.Background())
	if !first.Success || first.Synced != 1 {
		t.Fatalf("first sync = %+v", first)
	}
	callsAfterFirst := calls.Load()

	second := engine.Sync(context.Background())
	if !second.Success || second.Synced != 0 {
		t.Errorf("second sync = %+v, want success with 0 synced", second)
	}
	if calls.Load() != callsAfterFirst {
		t.Errorf("second sync issued %d network calls, want 0", calls.Load()-callsAfterFirst)
	}
}

func TestSyncPartialFailureContinuesBatch(t *testing.T) {
	// The remote rejects one specific session; the others must still sync.
	engine, sessions, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p api.SessionPush
		json.NewDecoder(r.Body).Decode(&p)
		if p.GameName == "Roblox" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	engine.Initialize()
	engine.Configure("child-1")

	base := time.Now().UTC().Add(-8 * time.Hour)
	addEndedSession(t, sessions, "Minecraft", base, 60)
	failing := addEndedSession(t, sessions, "Roblox", base.Add(2*time.Hour), 30)
	addEndedSession(t, sessions, "Celeste", base.Add(4*time.Hour), 45)

	result := engine.Sync(context.Background())
	if !result.Success {
		t.Fatalf("sync failed: %s", result.Message)
	}
	if result.Synced != 2 {
		t.Errorf("synced = %d, want 2", result.Synced)
	}

	// The failing session stays eligible for the next cycle.
	unsynced, err := sessions.ListUnsynced(batchLimit)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	if len(unsynced) != 1 || unsynced[0].ID != failing.ID {
		t.Errorf("unsynced = %v, want only session %d", unsynced, failing.ID)
	}
}

func TestHeartbeatFlipsOnlineFlag(t *testing.T) {
	var fail atomic.Bool
	engine, _, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	engine.Initialize()
	engine.Configure("child-1")

	if !engine.TestConnection(context.Background()) {
		t.Fatal("expected successful connection test")
	}
	status, _ := engine.Status()
	if !status.IsOnline {
		t.Error("expected online after heartbeat success")
	}

	fail.Store(true)
	if engine.TestConnection(context.Background()) {
		t.Fatal("expected failed connection test")
	}
	status, _ = engine.Status()
	if status.IsOnline {
		t.Error("expected offline after heartbeat failure")
	}
}

func TestHeartbeatNoopWithoutChild(t *testing.T) {
	var calls atomic.Int32
	engine, _, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	engine.Initialize()

	if err := engine.SendHeartbeat(context.Background()); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("network calls = %d, want 0 without child link", calls.Load())
	}
}

func TestConfigurePersistsChildID(t *testing.T) {
	engine, _, settings := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	engine.Initialize()

	if err := engine.Configure("child-9"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	persisted, _ := settings.Get(store.KeyChildID)
	if persisted != "child-9" {
		t.Errorf("persisted = %q, want child-9", persisted)
	}
	if engine.ChildID() != "child-9" {
		t.Errorf("in-memory = %q, want child-9", engine.ChildID())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	engine, _, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Second start is a no-op, not a second pair of timers.
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}

	engine.Stop()
	// Stopping again must be safe.
	engine.Stop()
}

func TestStatusLazilyInitializes(t *testing.T) {
	engine, _, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	status, err := engine.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DeviceID == "" {
		t.Error("expected device id from lazy initialization")
	}
	if !status.IsOnline {
		t.Error("expected optimistic online before any network attempt")
	}
}
