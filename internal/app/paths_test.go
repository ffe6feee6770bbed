package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
)

func TestResolvePaths(t *testing.T) {
	p := ResolvePaths("agents/shared_db", config.Default().Layout)

	root := filepath.Join("agents", "shared_db", "MachineLayoutTracker")
	assert.Equal(t, root, p.Root)
	assert.Equal(t, filepath.Join(root, "newest"), p.Newest)
	assert.Equal(t, filepath.Join(root, "historical_db"), p.Historical)
	assert.Equal(t, filepath.Join(root, "machine_layout_history.json"), p.History)
	assert.Equal(t, filepath.Join(root, "change_log.txt"), p.ChangeLog)
	assert.Equal(t, filepath.Join(root, ".lock"), p.Lock)
	assert.Equal(t, filepath.Join(root, ".staging"), p.Staging)
}
