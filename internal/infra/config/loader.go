// Package config loads tracker settings from defaults, a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/YoshitsuguKoike/moldtrack/internal/app"
	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"moldtrack.yaml",
	"moldtrack.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "MOLDTRACK_CONFIG"

// envPrefix is stripped from environment variable names.
const envPrefix = "MOLDTRACK_"

// envMappings maps lowercased variable names (prefix removed) to config paths.
var envMappings = map[string]string{
	"output_dir":           "output_dir",
	"records":              "records",
	"log_level":            "log.level",
	"log_format":           "log.format",
	"lock_ttl":             "lock.ttl",
	"lock_disabled":        "lock.disabled",
	"layout_dir":           "layout.dir",
	"layout_history_file":  "layout.history_file",
	"layout_change_log":    "layout.change_log",
	"pairing_dir":          "pairing.dir",
	"pairing_history_file": "pairing.history_file",
	"pairing_change_log":   "pairing.change_log",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration with layered sources:
//  1. Defaults: config.Default()
//  2. Config File: path, or the first of DefaultConfigPaths found (optional)
//  3. Environment Variables: MOLDTRACK_* (highest priority)
func Load(path string) (*config.Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(config.Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	source := "default"
	settingPath := ""
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		source = "file"
		settingPath = path
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &config.Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Source = source
	cfg.SettingPath = settingPath

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *config.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Layout.Dir == cfg.Pairing.Dir {
		return fmt.Errorf("configuration validation failed: layout and pairing share directory %q", cfg.Layout.Dir)
	}
	for name, tc := range map[string]config.TrackerConfig{"layout": cfg.Layout, "pairing": cfg.Pairing} {
		if err := validateTrackerFiles(tc); err != nil {
			return fmt.Errorf("configuration validation failed: %s: %w", name, err)
		}
	}
	return nil
}

// validateTrackerFiles keeps the history and change log inside the tracker
// root and outside every path the tracker rotates, stages or locks.
func validateTrackerFiles(tc config.TrackerConfig) error {
	p := app.ResolvePaths("", tc)
	files := []struct {
		key, raw, path string
	}{
		{"history_file", tc.HistoryFile, p.History},
		{"change_log", tc.ChangeLog, p.ChangeLog},
	}
	for _, f := range files {
		if filepath.IsAbs(f.raw) {
			return fmt.Errorf("%s %q must be relative to the tracker directory", f.key, f.raw)
		}
		rel, err := filepath.Rel(p.Root, f.path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s %q leaves the tracker directory", f.key, f.raw)
		}
		for _, reserved := range []string{p.Newest, p.Historical, p.Staging, p.Lock} {
			if f.path == reserved || strings.HasPrefix(f.path, reserved+string(filepath.Separator)) {
				return fmt.Errorf("%s %q is inside reserved path %s", f.key, f.raw, filepath.Base(reserved))
			}
		}
	}
	if p.History == p.ChangeLog {
		return fmt.Errorf("history_file and change_log are the same file %q", tc.HistoryFile)
	}
	return nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps MOLDTRACK_LOG_LEVEL to log.level. Unknown names are dropped.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}
