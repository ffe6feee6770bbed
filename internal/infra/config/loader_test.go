package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
	"github.com/YoshitsuguKoike/moldtrack/internal/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moldtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Source)
	assert.Equal(t, "agents/shared_db", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, "MachineLayoutTracker", cfg.Layout.Dir)
	assert.Equal(t, "mold_machine_pairing_history.json", cfg.Pairing.HistoryFile)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
output_dir: /data/shared_db
records: /data/productionRecords.parquet
log:
  level: debug
lock:
  ttl: 2m
pairing:
  history_file: pairs.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Source)
	assert.Equal(t, path, cfg.SettingPath)
	assert.Equal(t, "/data/shared_db", cfg.OutputDir)
	assert.Equal(t, "/data/productionRecords.parquet", cfg.Records)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, 2*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, "pairs.json", cfg.Pairing.HistoryFile)
	assert.Equal(t, "MachineMoldPairTracker", cfg.Pairing.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output_dir: /from/file\nlog:\n  level: info\n")
	t.Setenv("MOLDTRACK_OUTPUT_DIR", "/from/env")
	t.Setenv("MOLDTRACK_LOCK_DISABLED", "true")
	t.Setenv("MOLDTRACK_UNRELATED", "ignored")
	t.Setenv("MOLDTRACK_LAYOUT_CHANGE_LOG", "layout_changes.txt")
	t.Setenv("MOLDTRACK_PAIRING_CHANGE_LOG", "pairing_changes.txt")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Lock.Disabled)
	assert.Equal(t, "layout_changes.txt", cfg.Layout.ChangeLog)
	assert.Equal(t, "pairing_changes.txt", cfg.Pairing.ChangeLog)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "output_dir: /via/env/path\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/via/env/path", cfg.OutputDir)
	assert.Equal(t, path, cfg.SettingPath)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "Invalid log level", content: "log:\n  level: verbose\n"},
		{name: "Invalid log format", content: "log:\n  format: xml\n"},
		{name: "Empty output dir", content: "output_dir: \"\"\n"},
		{name: "Shared tracker directory", content: "layout:\n  dir: same\npairing:\n  dir: same\n"},
		{name: "Malformed YAML", content: "log: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_TrackerFiles(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *config.Config)
		wantErr string
	}{
		{name: "Defaults", modify: func(*config.Config) {}},
		{name: "Nested history outside rotated dirs", modify: func(c *config.Config) { c.Layout.HistoryFile = "state/h.json" }},
		{name: "History under newest", modify: func(c *config.Config) { c.Layout.HistoryFile = "newest/h.json" }, wantErr: "reserved path newest"},
		{name: "History under historical_db", modify: func(c *config.Config) { c.Pairing.HistoryFile = "historical_db/h.json" }, wantErr: "reserved path historical_db"},
		{name: "Change log under staging", modify: func(c *config.Config) { c.Pairing.ChangeLog = ".staging/log.txt" }, wantErr: "reserved path .staging"},
		{name: "Change log named like the lock", modify: func(c *config.Config) { c.Layout.ChangeLog = ".lock" }, wantErr: "reserved path .lock"},
		{name: "Uncleaned path into newest", modify: func(c *config.Config) { c.Layout.HistoryFile = "state/../newest/h.json" }, wantErr: "reserved path newest"},
		{name: "Escapes tracker directory", modify: func(c *config.Config) { c.Layout.HistoryFile = "../h.json" }, wantErr: "leaves the tracker directory"},
		{name: "Absolute path", modify: func(c *config.Config) { c.Layout.ChangeLog = "/var/log/moldtrack.txt" }, wantErr: "must be relative"},
		{name: "History and change log collide", modify: func(c *config.Config) { c.Pairing.ChangeLog = c.Pairing.HistoryFile }, wantErr: "same file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RejectsHistoryInNewest(t *testing.T) {
	_, err := Load(writeConfig(t, "layout:\n  history_file: newest/h.json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout")
	assert.Contains(t, err.Error(), "reserved path newest")
}

func TestLoad_FindsConfigInWorkingDirectory(t *testing.T) {
	testutil.NewTestWorkspace(t)
	testutil.WriteConfig(t, "output_dir: from-cwd\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Source)
	assert.Equal(t, "moldtrack.yaml", cfg.SettingPath)
	assert.Equal(t, "from-cwd", cfg.OutputDir)
}
