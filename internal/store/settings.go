package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Settings keys persisted across restarts. Device identity and the linked
// child id are the only state the collector needs to survive a restart.
const (
	KeyDeviceID   = "device_id"
	KeyDeviceName = "device_name"
	KeyChildID    = "child_id"
)

// SettingsStore is a small key/value table for collector state.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key. Missing keys return an empty string and no
// error so callers can treat absence as "not yet configured".
func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SetIfAbsent stores value only when key has no value yet. Returns the value
// that is persisted after the call, which is the existing one if present.
func (s *SettingsStore) SetIfAbsent(key, value string) (string, error) {
	existing, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}
	if err := s.Set(key, value); err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *SettingsStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
