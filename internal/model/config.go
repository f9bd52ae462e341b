package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Store kind constants for StoreConfig.Kind.
const (
	StoreKindSQLite = "sqlite"
	StoreKindHTTP   = "http"
)

// StoreConfig selects and configures the backing remote store.
type StoreConfig struct {
	// Kind is "sqlite" for the local reference store or "http" for a
	// hosted data service.
	Kind string `mapstructure:"kind" yaml:"kind"`

	// Path is the SQLite database file path (sqlite kind only).
	Path string `mapstructure:"path" yaml:"path"`

	// BaseURL is the root URL of the hosted data service (http kind only).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PollIntervalSec is how often (in seconds) the http adapter polls the
	// change feed.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// SyncConfig tunes the board synchronization behavior.
type SyncConfig struct {
	// DebounceMs is the window within which bursts of remote change events
	// collapse into a single refetch.
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// BoardConfig holds UI board preferences.
type BoardConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// DragThreshold is the number of selection steps a pick-up has to move
	// before it counts as a drag instead of an open.
	DragThreshold int `mapstructure:"drag_threshold" yaml:"drag_threshold"`
}

// SessionConfig identifies the signed-in collaborator and their sector.
type SessionConfig struct {
	SectorID string `mapstructure:"sector_id" yaml:"sector_id"`
	UserID   string `mapstructure:"user_id" yaml:"user_id"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Board   BoardConfig   `mapstructure:"board" yaml:"board"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/activityboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "activityboard", "config.yaml")
}

// defaultDBPath returns the default SQLite database location.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "activityboard.db")
	}
	return filepath.Join(home, ".config", "activityboard", "activityboard.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Kind:            StoreKindSQLite,
			Path:            defaultDBPath(),
			PollIntervalSec: 15,
		},
		Sync: SyncConfig{
			DebounceMs: 1000,
		},
		Board: BoardConfig{
			Theme:         "default",
			DragThreshold: 8,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("store.kind", StoreKindSQLite)
	v.SetDefault("store.path", defaultDBPath())
	v.SetDefault("store.poll_interval_sec", 15)
	v.SetDefault("sync.debounce_ms", 1000)
	v.SetDefault("board.theme", "default")
	v.SetDefault("board.drag_threshold", 8)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.DebounceMs <= 0 {
		cfg.Sync.DebounceMs = 1000
	}
	if cfg.Board.DragThreshold <= 0 {
		cfg.Board.DragThreshold = 8
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("sync", cfg.Sync)
	v.Set("board", cfg.Board)
	v.Set("session", cfg.Session)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
