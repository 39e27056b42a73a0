// Package daemon manages the loopstate process lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/loopstate/core/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Streak  StreakConfig  `toml:"streak"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Prometheus bool  `toml:"prometheus"`
}

// StoreConfig controls the sqlite-backed repository layer.
type StoreConfig struct {
	DataDir string `toml:"data_dir"`
}

// StreakConfig holds the [streak] section's default streak settings. The
// calculateStreak entry point and the CLI do not read these values; each
// call supplies its own configuration.
type StreakConfig struct {
	EventsRequiredPerDay int    `toml:"events_required_per_day"`
	LeewayHours          int    `toml:"leeway_hours"`
	FreezeBehavior       string `toml:"freeze_behavior"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the repo-wide default streak configuration as a
// domain.StreakConfig for the given streak_key.
func (c StreakConfig) Default(streakKey string) domain.StreakConfig {
	return domain.StreakConfig{
		StreakKey:            streakKey,
		EventsRequiredPerDay: c.EventsRequiredPerDay,
		LeewayHours:          c.LeewayHours,
		FreezeBehavior:       domain.FreezeBehavior(c.FreezeBehavior),
	}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	home := loopstateHome()
	return Config{
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       8080,
			Prometheus: true,
		},
		Store: StoreConfig{
			DataDir: home,
		},
		Streak: StreakConfig{
			EventsRequiredPerDay: 1,
			LeewayHours:          0,
			FreezeBehavior:       string(domain.NoFreezes),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(home, "loopstate.log"),
		},
	}
}

// LoadConfig reads config from $LOOPSTATE_HOME/config.toml, falling back
// to defaults if no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(loopstateHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $LOOPSTATE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(loopstateHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// loopstateHome returns the loopstate data directory.
func loopstateHome() string {
	if env := os.Getenv("LOOPSTATE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".loopstate")
}

// LoopstateHome is exported for use by other packages.
func LoopstateHome() string {
	return loopstateHome()
}
