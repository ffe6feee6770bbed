// Package config defines the tracker configuration consumed by the app layer.
package config

import "time"

// Config is the effective configuration after defaults, file, environment and flags.
type Config struct {
	// OutputDir is the root under which each tracker keeps its directory.
	OutputDir string `koanf:"output_dir" yaml:"output_dir" validate:"required"`

	// Records is the default production-log file (.csv or .parquet).
	Records string `koanf:"records" yaml:"records"`

	Log     LogConfig     `koanf:"log" yaml:"log"`
	Lock    LockConfig    `koanf:"lock" yaml:"lock"`
	Layout  TrackerConfig `koanf:"layout" yaml:"layout"`
	Pairing TrackerConfig `koanf:"pairing" yaml:"pairing"`

	// Metadata, not loaded from any source
	Source      string `koanf:"-" yaml:"-"` // "default" or "file"
	SettingPath string `koanf:"-" yaml:"-"`
}

// LogConfig controls stderr logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=console json"`
}

// LockConfig controls the advisory run lock.
type LockConfig struct {
	Disabled bool          `koanf:"disabled" yaml:"disabled"`
	TTL      time.Duration `koanf:"ttl" yaml:"ttl" validate:"gte=0"`
}

// TrackerConfig names a tracker's directory and history file.
type TrackerConfig struct {
	Dir         string `koanf:"dir" yaml:"dir" validate:"required"`
	HistoryFile string `koanf:"history_file" yaml:"history_file" validate:"required"`
	ChangeLog   string `koanf:"change_log" yaml:"change_log" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir: "agents/shared_db",
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Lock: LockConfig{
			TTL: 10 * time.Minute,
		},
		Layout: TrackerConfig{
			Dir:         "MachineLayoutTracker",
			HistoryFile: "machine_layout_history.json",
			ChangeLog:   "change_log.txt",
		},
		Pairing: TrackerConfig{
			Dir:         "MachineMoldPairTracker",
			HistoryFile: "mold_machine_pairing_history.json",
			ChangeLog:   "change_log.txt",
		},
		Source: "default",
	}
}
