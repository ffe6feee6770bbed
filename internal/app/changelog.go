package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// ChangeLogTimeLayout is the timestamp format in block headers.
const ChangeLogTimeLayout = "2006-01-02 15:04:05"

// ChangeLog appends one block per saving run to a plain-text audit trail.
// Existing content is never rewritten.
type ChangeLog struct {
	fs   afero.Fs
	path string
	now  func() time.Time
}

// NewChangeLog creates a change log writer for path
func NewChangeLog(afs afero.Fs, path string) *ChangeLog {
	return &ChangeLog{fs: afs, path: path, now: time.Now}
}

// WithClock overrides the clock used for block headers.
func (c *ChangeLog) WithClock(now func() time.Time) *ChangeLog {
	c.now = now
	return c
}

// Path returns the change log file path.
func (c *ChangeLog) Path() string { return c.path }

// Append writes a block:
//
//	[2024-01-05 10:11:12] Saving new version...
//	  ⤷ Moved old.csv to historical_db/old.csv
//	  ⤷ Saved new file: newest/2024-01-05_machine_layout.csv
func (c *ChangeLog) Append(entries []string) error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("change log %s: %w", c.path, err)
	}

	f, err := c.fs.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("change log %s: %w", c.path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "[%s] Saving new version...\n", c.now().Format(ChangeLogTimeLayout))
	for _, e := range entries {
		fmt.Fprintf(bw, "  ⤷ %s\n", e)
	}
	bw.WriteString("\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("change log %s: %w", c.path, err)
	}

	if err := f.Sync(); err != nil {
		// The block is already written; durability is best-effort here
		GetLogger().Warn("failed to fsync change log %s: %v", c.path, err)
	}
	return nil
}
