// Package sync reconciles locally recorded sessions with the remote
// collection endpoint and reports device liveness.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamewell/collector/internal/api"
	"github.com/gamewell/collector/internal/model"
	"github.com/gamewell/collector/internal/store"
)

// batchLimit caps how many sessions one cycle pushes. Bounding the batch
// caps per-cycle network and memory cost; a pathological backlog drains
// over several cycles instead of blocking one.
const batchLimit = 50

// Config holds the engine's injected knobs.
type Config struct {
	SyncInterval      time.Duration
	HeartbeatInterval time.Duration
}

// Result is the outcome of one sync cycle, surfaced to the boundary.
type Result struct {
	Success bool   `json:"success"`
	Synced  int    `json:"synced"`
	Message string `json:"message,omitempty"`
}

// Engine owns device identity, online/offline status, and the two periodic
// tasks (sync and heartbeat). All state transitions go through the mutex;
// the timer goroutines never share anything else.
type Engine struct {
	mu       sync.Mutex
	sessions *store.SessionStore
	settings *store.SettingsStore
	client   *api.Client
	logger   *slog.Logger
	notify   func(model.SyncStatus)

	cfg         Config
	childID     string
	device      model.Device
	online      bool
	initialized bool
	syncing     bool

	runCtx   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	hbCancel context.CancelFunc
	hbDone   chan struct{}
}

// NewEngine creates a sync engine. notify, if non-nil, is invoked with the
// new status whenever the online flag or child link changes; it must not
// block. The engine starts optimistically online until a network attempt
// proves otherwise.
func NewEngine(sessions *store.SessionStore, settings *store.SettingsStore, client *api.Client, cfg Config, notify func(model.SyncStatus), logger *slog.Logger) *Engine {
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = 60 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 60 * time.Second
	}
	return &Engine{
		sessions: sessions,
		settings: settings,
		client:   client,
		cfg:      cfg,
		notify:   notify,
		logger:   logger,
		online:   true,
	}
}

// Initialize loads or creates the persisted device identity and child link.
// Idempotent: once identity is set, subsequent calls are no-ops.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initializeLocked()
}

func (e *Engine) initializeLocked() error {
	if e.initialized {
		return nil
	}

	deviceID, err := e.settings.SetIfAbsent(store.KeyDeviceID, uuid.NewString())
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown-device"
	}
	deviceName, err := e.settings.SetIfAbsent(store.KeyDeviceName, hostname)
	if err != nil {
		return err
	}

	childID, err := e.settings.Get(store.KeyChildID)
	if err != nil {
		return err
	}

	e.device = model.Device{ID: deviceID, Name: deviceName}
	e.childID = childID
	e.initialized = true
	e.logger.Info("sync engine initialized", "device_id", deviceID, "device_name", deviceName, "linked", childID != "")
	return nil
}

// Start is the idempotent entry point: it initializes identity, performs
// one immediate sync, then arms the sync timer. The heartbeat timer is
// armed only once a child is linked.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return nil
	}
	if err := e.initializeLocked(); err != nil {
		e.mu.Unlock()
		return err
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.runCtx = ctx
	e.done = make(chan struct{})
	linked := e.childID != ""
	e.mu.Unlock()

	go func() {
		defer close(e.done)

		e.Sync(ctx)

		ticker := time.NewTicker(e.cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Sync(ctx)
			}
		}
	}()

	if linked {
		e.startHeartbeat(ctx)
	}
	return nil
}

// startHeartbeat arms the heartbeat loop: one immediate ping, then one per
// interval. Heartbeat failures only flip the online flag; they never stop
// the loop.
func (e *Engine) startHeartbeat(ctx context.Context) {
	e.mu.Lock()
	if e.hbCancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, e.hbCancel = context.WithCancel(ctx)
	e.hbDone = make(chan struct{})
	e.mu.Unlock()

	go func() {
		defer close(e.hbDone)

		if err := e.SendHeartbeat(ctx); err != nil {
			e.logger.Warn("heartbeat failed", "error", err)
		}

		ticker := time.NewTicker(e.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.SendHeartbeat(ctx); err != nil {
					e.logger.Warn("heartbeat failed", "error", err)
				}
			}
		}
	}()
}

// Stop cancels both timers and waits until no further callback can fire.
// In-flight network calls are not aborted. Safe to call when not started.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	hbCancel, hbDone := e.hbCancel, e.hbDone
	e.cancel, e.done = nil, nil
	e.hbCancel, e.hbDone = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if hbCancel != nil {
		hbCancel()
		<-hbDone
	}
}

// Sync pushes up to one batch of eligible sessions. Each session is pushed
// independently: one failure is logged and skipped, never aborting the
// batch, so a single bad row cannot stall the backlog behind it. A failed
// row simply stays eligible for the next cycle.
func (e *Engine) Sync(ctx context.Context) Result {
	e.mu.Lock()
	if e.syncing {
		// A previous cycle is still in flight; skip rather than overlap.
		e.mu.Unlock()
		return Result{Success: true, Message: "sync already in progress"}
	}
	e.syncing = true
	childID := e.childID
	deviceName := e.device.Name
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if childID == "" {
		return Result{Success: false, Message: "No child ID configured"}
	}

	eligible, err := e.sessions.ListUnsynced(batchLimit)
	if err != nil {
		e.logger.Error("sync: list unsynced", "error", err)
		e.setOnline(false)
		return Result{Success: false, Message: err.Error()}
	}

	synced := 0
	for _, sess := range eligible {
		push := api.SessionPush{
			ChildID:   childID,
			GameName:  sess.GameName,
			Category:  string(sess.Category),
			StartedAt: sess.StartedAt,
			EndedAt:   *sess.EndedAt,
			DeviceID:  deviceName,
		}

		if err := e.client.PushSession(ctx, push); err != nil {
			// A refused connection means we are offline; a non-2xx means
			// the server is reachable but rejected this row.
			var connErr *api.ConnectError
			e.setOnline(!errors.As(err, &connErr))
			e.logger.Warn("sync: push session failed", "session_id", sess.ID, "error", err)
			continue
		}

		e.setOnline(true)
		if err := e.sessions.MarkSynced(sess.ID, time.Now()); err != nil {
			// The push landed but the local write failed: the row stays
			// eligible and the remote side may see it twice. Accepted
			// at-least-once semantics.
			e.logger.Error("sync: mark synced", "session_id", sess.ID, "error", err)
		}
		synced++
	}

	if len(eligible) > 0 {
		e.logger.Info("sync cycle complete", "eligible", len(eligible), "synced", synced)
	}
	return Result{Success: true, Synced: synced}
}

// SendHeartbeat pings the collection endpoint to report liveness. A no-op
// until a child is linked. Success marks the device online; any failure
// marks it offline and is returned for logging only, never escalated.
func (e *Engine) SendHeartbeat(ctx context.Context) error {
	e.mu.Lock()
	childID := e.childID
	e.mu.Unlock()

	if childID == "" {
		return nil
	}

	if err := e.client.Heartbeat(ctx, childID); err != nil {
		e.setOnline(false)
		return err
	}
	e.setOnline(true)
	return nil
}

// TestConnection performs one heartbeat and reports whether it succeeded.
// This is the synchronous user-facing "test" action.
func (e *Engine) TestConnection(ctx context.Context) bool {
	return e.SendHeartbeat(ctx) == nil
}

// Configure links (or unlinks, with an empty id) the child this device
// reports for. The link is persisted and, if the engine is already running,
// the heartbeat timer is armed so liveness reporting begins immediately.
func (e *Engine) Configure(childID string) error {
	if err := e.settings.Set(store.KeyChildID, childID); err != nil {
		return err
	}

	e.mu.Lock()
	e.childID = childID
	running := e.cancel != nil
	runCtx := e.runCtx
	e.mu.Unlock()

	e.notifyStatus()
	if running && childID != "" {
		e.startHeartbeat(runCtx)
	}
	return nil
}

// ChildID returns the currently linked child id, empty if unlinked.
func (e *Engine) ChildID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.childID
}

// Status returns the boundary-facing view of the engine, establishing
// device identity first if that has not happened yet.
func (e *Engine) Status() (model.SyncStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.initializeLocked(); err != nil {
		return model.SyncStatus{}, err
	}
	return model.SyncStatus{
		IsOnline: e.online,
		ChildID:  e.childID,
		DeviceID: e.device.ID,
	}, nil
}

// setOnline records the outcome of the most recent network attempt and
// notifies the boundary when the flag flips.
func (e *Engine) setOnline(online bool) {
	e.mu.Lock()
	changed := e.online != online
	e.online = online
	e.mu.Unlock()

	if changed {
		e.logger.Info("connectivity changed", "online", online)
		e.notifyStatus()
	}
}

func (e *Engine) notifyStatus() {
	if e.notify == nil {
		return
	}
	e.mu.Lock()
	status := model.SyncStatus{IsOnline: e.online, ChildID: e.childID, DeviceID: e.device.ID}
	e.mu.Unlock()
	e.notify(status)
}
