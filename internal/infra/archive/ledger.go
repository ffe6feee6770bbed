// Package archive rotates a tracker's previous outputs from "newest" into "historical_db".
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Ledger is the set of files present in the newest directory at the start of a run.
// Paths are relative to the newest directory.
type Ledger struct {
	Root string

	// Files lie directly inside Root.
	Files []string

	// Dirs maps each direct subdirectory of Root to the files beneath it,
	// relative to Root (e.g. "new_pairs/2024-01-05_new_pairs.csv").
	Dirs map[string][]string
}

// Scan builds the ledger for newestDir. A missing directory yields an empty ledger.
func Scan(afs afero.Fs, newestDir string) (*Ledger, error) {
	l := &Ledger{Root: newestDir, Dirs: make(map[string][]string)}

	entries, err := afero.ReadDir(afs, newestDir)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("scan %s: %w", newestDir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() {
			l.Files = append(l.Files, name)
			continue
		}
		var files []string
		walkErr := afero.Walk(afs, filepath.Join(newestDir, name), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(newestDir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("scan %s: %w", filepath.Join(newestDir, name), walkErr)
		}
		sort.Strings(files)
		l.Dirs[name] = files
	}
	sort.Strings(l.Files)
	return l, nil
}

// Len returns the total number of files in the ledger.
func (l *Ledger) Len() int {
	n := len(l.Files)
	for _, files := range l.Dirs {
		n += len(files)
	}
	return n
}

// DirNames returns the subdirectory names in sorted order.
func (l *Ledger) DirNames() []string {
	names := make([]string, 0, len(l.Dirs))
	for d := range l.Dirs {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}
