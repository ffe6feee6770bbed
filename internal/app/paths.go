package app

import (
	"path/filepath"

	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
)

// Paths holds all resolved paths for one tracker
type Paths struct {
	Root       string // <output_dir>/<tracker dir>
	Newest     string // <root>/newest
	Historical string // <root>/historical_db
	Staging    string // <root>/.staging

	// Key files
	History   string // <root>/<history file>
	ChangeLog string // <root>/change_log.txt
	Lock      string // <root>/.lock
}

// ResolvePaths lays out a tracker directory under outputDir.
func ResolvePaths(outputDir string, tc config.TrackerConfig) Paths {
	root := filepath.Join(outputDir, tc.Dir)
	return Paths{
		Root:       root,
		Newest:     filepath.Join(root, "newest"),
		Historical: filepath.Join(root, "historical_db"),
		Staging:    filepath.Join(root, ".staging"),
		History:    filepath.Join(root, tc.HistoryFile),
		ChangeLog:  filepath.Join(root, tc.ChangeLog),
		Lock:       filepath.Join(root, ".lock"),
	}
}
