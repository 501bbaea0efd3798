// Package config loads collector configuration from an optional YAML file
// with environment-variable overrides. Every knob has a default so the
// collector runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime knob for the collector.
type Config struct {
	DBPath            string
	APIEndpoint       string
	ListenAddr        string
	SyncInterval      time.Duration
	HeartbeatInterval time.Duration
	LateNightHour     int
	LogLevel          string
	LogFormat         string
}

// fileConfig mirrors Config for the YAML layer. Durations are strings in
// the file ("30s", "2m") and parsed after decoding; pointers distinguish
// "absent" from zero values.
type fileConfig struct {
	DBPath            *string `yaml:"db_path"`
	APIEndpoint       *string `yaml:"api_endpoint"`
	ListenAddr        *string `yaml:"listen_addr"`
	SyncInterval      *string `yaml:"sync_interval"`
	HeartbeatInterval *string `yaml:"heartbeat_interval"`
	LateNightHour     *int    `yaml:"late_night_hour"`
	LogLevel          *string `yaml:"log_level"`
	LogFormat         *string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:            "gamewell.db",
		APIEndpoint:       "https://api.gamewell.app/v1/sessions",
		ListenAddr:        "127.0.0.1:4780",
		SyncInterval:      60 * time.Second,
		HeartbeatInterval: 60 * time.Second,
		LateNightHour:     22,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is empty or the file is missing, the file layer is skipped), then
// GAMEWELL_* environment variables on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.LateNightHour < 0 || cfg.LateNightHour > 23 {
		return Config{}, fmt.Errorf("late_night_hour %d out of range", cfg.LateNightHour)
	}
	if cfg.SyncInterval <= 0 || cfg.HeartbeatInterval <= 0 {
		return Config{}, fmt.Errorf("intervals must be positive")
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.APIEndpoint != nil {
		cfg.APIEndpoint = *fc.APIEndpoint
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}
	if fc.SyncInterval != nil {
		d, err := time.ParseDuration(*fc.SyncInterval)
		if err != nil {
			return fmt.Errorf("parse sync_interval: %w", err)
		}
		cfg.SyncInterval = d
	}
	if fc.HeartbeatInterval != nil {
		d, err := time.ParseDuration(*fc.HeartbeatInterval)
		if err != nil {
			return fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}
	if fc.LateNightHour != nil {
		cfg.LateNightHour = *fc.LateNightHour
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GAMEWELL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("GAMEWELL_API_ENDPOINT"); v != "" {
		cfg.APIEndpoint = v
	}
	if v := os.Getenv("GAMEWELL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GAMEWELL_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SyncInterval = d
		}
	}
	if v := os.Getenv("GAMEWELL_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatInterval = d
		}
	}
	if v := os.Getenv("GAMEWELL_LATE_NIGHT_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.LateNightHour = h
		}
	}
	if v := os.Getenv("GAMEWELL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GAMEWELL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}
