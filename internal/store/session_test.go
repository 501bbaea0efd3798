package store

import (
	"errors"
	"testing"
	"time"

	"github.com/gamewell/collector/internal/database"
	"github.com/gamewell/collector/internal/model"
)

func setupSessionTestDB(t *testing.T) *SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db)
}

func TestSessionCreateAndClose(t *testing.T) {
	ss := setupSessionTestDB(t)

	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)
	sess, err := ss.Create("Minecraft", "minecraft.exe", model.CategoryCreative, start)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.GameName != "Minecraft" {
		t.Errorf("game_name = %q, want %q", sess.GameName, "Minecraft")
	}
	if sess.EndedAt != nil {
		t.Error("expected open session after create")
	}
	if sess.IsSynced {
		t.Error("expected new session unsynced")
	}

	end := start.Add(90 * time.Minute)
	closed, err := ss.Close(sess.ID, end, model.DefaultLateNightHour)
	if err != nil {
		t.Fatalf("close session: %v", err)
	}
	if closed.EndedAt == nil || !closed.EndedAt.Equal(end) {
		t.Errorf("ended_at = %v, want %v", closed.EndedAt, end)
	}
	if closed.DurationMinutes != 90 {
		t.Errorf("duration_minutes = %d, want 90", closed.DurationMinutes)
	}
	if closed.IsLateNight {
		t.Error("afternoon session flagged late-night")
	}
}

func TestSessionCloseRejectsAlreadyClosed(t *testing.T) {
	ss := setupSessionTestDB(t)

	start := time.Now().UTC().Add(-time.Hour)
	sess, err := ss.Create("Rocket League", "rocketleague.exe", model.CategoryCompetitive, start)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := ss.Close(sess.ID, start.Add(30*time.Minute), model.DefaultLateNightHour); err != nil {
		t.Fatalf("first close: %v", err)
	}

	_, err = ss.Close(sess.ID, start.Add(40*time.Minute), model.DefaultLateNightHour)
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second close err = %v, want ErrSessionClosed", err)
	}
}

func TestSessionCloseRejectsUnknownID(t *testing.T) {
	ss := setupSessionTestDB(t)

	_, err := ss.Close(9999, time.Now().UTC(), model.DefaultLateNightHour)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionCloseRejectsEndBeforeStart(t *testing.T) {
	ss := setupSessionTestDB(t)

	start := time.Now().UTC()
	sess, err := ss.Create("Roblox", "roblox.exe", model.CategorySocial, start)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, err = ss.Close(sess.ID, start.Add(-time.Minute), model.DefaultLateNightHour)
	if !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("err = %v, want ErrEndBeforeStart", err)
	}
}

func TestListUnsyncedFiltersAndOrders(t *testing.T) {
	ss := setupSessionTestDB(t)

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// Oldest, ended, unsynced.
	s1, _ := ss.Create("Minecraft", "minecraft.exe", model.CategoryCreative, base)
	ss.Close(s1.ID, base.Add(time.Hour), model.DefaultLateNightHour)

	// Still open: must never appear.
	ss.Create("Fortnite", "fortnite.exe", model.CategoryCompetitive, base.Add(time.Hour))

	// Ended and already synced: must never appear.
	s3, _ := ss.Create("Roblox", "roblox.exe", model.CategorySocial, base.Add(2*time.Hour))
	ss.Close(s3.ID, base.Add(3*time.Hour), model.DefaultLateNightHour)
	ss.MarkSynced(s3.ID, base.Add(4*time.Hour))

	// Newer, ended, unsynced.
	s4, _ := ss.Create("Stardew Valley", "stardew.exe", model.CategoryCasual, base.Add(3*time.Hour))
	ss.Close(s4.ID, base.Add(4*time.Hour), model.DefaultLateNightHour)

	unsynced, err := ss.ListUnsynced(50)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	if len(unsynced) != 2 {
		t.Fatalf("len = %d, want 2", len(unsynced))
	}
	if unsynced[0].ID != s1.ID || unsynced[1].ID != s4.ID {
		t.Errorf("order = [%d, %d], want oldest-first [%d, %d]", unsynced[0].ID, unsynced[1].ID, s1.ID, s4.ID)
	}
	for _, u := range unsynced {
		if u.EndedAt == nil {
			t.Error("open session returned as eligible")
		}
		if u.IsSynced {
			t.Error("synced session returned as eligible")
		}
	}
}

func TestListUnsyncedRespectsLimit(t *testing.T) {
	ss := setupSessionTestDB(t)

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s, _ := ss.Create("Minecraft", "minecraft.exe", model.CategoryCreative, base.Add(time.Duration(i)*time.Hour))
		ss.Close(s.ID, base.Add(time.Duration(i)*time.Hour+30*time.Minute), model.DefaultLateNightHour)
	}

	unsynced, err := ss.ListUnsynced(3)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	if len(unsynced) != 3 {
		t.Errorf("len = %d, want 3", len(unsynced))
	}
}

func TestMarkSyncedIdempotent(t *testing.T) {
	ss := setupSessionTestDB(t)

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	sess, _ := ss.Create("Minecraft", "minecraft.exe", model.CategoryCreative, start)
	ss.Close(sess.ID, start.Add(time.Hour), model.DefaultLateNightHour)

	first := start.Add(2 * time.Hour)
	if err := ss.MarkSynced(sess.ID, first); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	// Second call is a no-op and must not move synced_at.
	if err := ss.MarkSynced(sess.ID, first.Add(time.Hour)); err != nil {
		t.Fatalf("second mark synced: %v", err)
	}

	got, err := ss.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !got.IsSynced {
		t.Error("expected synced session")
	}
	if got.SyncedAt == nil || !got.SyncedAt.Equal(first) {
		t.Errorf("synced_at = %v, want %v", got.SyncedAt, first)
	}
}

func TestActiveByExecutable(t *testing.T) {
	ss := setupSessionTestDB(t)

	start := time.Now().UTC().Add(-time.Hour)
	sess, _ := ss.Create("Fortnite", "fortnite.exe", model.CategoryCompetitive, start)

	got, err := ss.ActiveByExecutable("fortnite.exe")
	if err != nil {
		t.Fatalf("active by executable: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("id = %d, want %d", got.ID, sess.ID)
	}

	ss.Close(sess.ID, start.Add(30*time.Minute), model.DefaultLateNightHour)
	_, err = ss.ActiveByExecutable("fortnite.exe")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after close", err)
	}
}

func TestLateNightFlagOnClose(t *testing.T) {
	ss := setupSessionTestDB(t)

	// 21:30 to 23:00 local overlaps the 22:00 window.
	start := time.Date(2026, 3, 10, 21, 30, 0, 0, time.Local)
	sess, _ := ss.Create("Fortnite", "fortnite.exe", model.CategoryCompetitive, start)
	closed, err := ss.Close(sess.ID, start.Add(90*time.Minute), model.DefaultLateNightHour)
	if err != nil {
		t.Fatalf("close session: %v", err)
	}
	if !closed.IsLateNight {
		t.Error("session spanning 22:00 not flagged late-night")
	}
}
