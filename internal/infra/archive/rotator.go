package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

// Move records one file relocated by a rotation.
type Move struct {
	From string
	To   string
}

// MoveError reports a failed move during rotation.
type MoveError struct {
	File string
	Dst  string
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("archive %s -> %s: %v", e.File, e.Dst, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Rotation is the outcome of Rotate.
type Rotation struct {
	// Entries are human-readable change-log lines, one per file plus one per subdirectory.
	Entries []string
	Moves   []Move
}

// Rotator moves ledger files from newest into historical.
type Rotator struct {
	fs  afero.Fs
	now func() time.Time
}

// NewRotator creates a rotator over afs.
func NewRotator(afs afero.Fs) *Rotator {
	return &Rotator{fs: afs, now: time.Now}
}

// WithClock overrides the clock used for collision tags.
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.now = now
	return r
}

// Rotate moves every ledger file into historicalDir, mirroring subdirectories.
// A name already taken in historicalDir gets a timestamp tag so nothing is overwritten.
// The first failure stops the rotation; moves done so far are returned with the error
// so the caller can undo them.
func (r *Rotator) Rotate(ledger *Ledger, historicalDir string) (*Rotation, error) {
	rot := &Rotation{}
	if ledger.Len() == 0 {
		return rot, nil
	}
	if err := r.fs.MkdirAll(historicalDir, 0o755); err != nil {
		return rot, fmt.Errorf("create %s: %w", historicalDir, err)
	}

	tag := r.now().Format("20060102T150405")

	for _, name := range ledger.Files {
		src := filepath.Join(ledger.Root, name)
		dst, err := r.free(filepath.Join(historicalDir, name), tag)
		if err != nil {
			return rot, &MoveError{File: src, Dst: dst, Err: err}
		}
		if err := fs.MoveFile(r.fs, src, dst); err != nil {
			return rot, &MoveError{File: src, Dst: dst, Err: err}
		}
		rot.Moves = append(rot.Moves, Move{From: src, To: dst})
		rot.Entries = append(rot.Entries, fmt.Sprintf("Moved %s to %s", name, rel(historicalDir, dst)))
	}

	for _, dir := range ledger.DirNames() {
		if err := r.fs.MkdirAll(filepath.Join(historicalDir, dir), 0o755); err != nil {
			return rot, &MoveError{File: filepath.Join(ledger.Root, dir), Dst: filepath.Join(historicalDir, dir), Err: err}
		}
		files := ledger.Dirs[dir]
		for _, relPath := range files {
			src := filepath.Join(ledger.Root, relPath)
			dst, err := r.free(filepath.Join(historicalDir, relPath), tag)
			if err != nil {
				return rot, &MoveError{File: src, Dst: dst, Err: err}
			}
			if err := fs.MoveFile(r.fs, src, dst); err != nil {
				return rot, &MoveError{File: src, Dst: dst, Err: err}
			}
			rot.Moves = append(rot.Moves, Move{From: src, To: dst})
		}
		rot.Entries = append(rot.Entries,
			fmt.Sprintf("Moved %d files from %s/ to %s/", len(files), dir, rel(historicalDir, filepath.Join(historicalDir, dir))))
	}
	return rot, nil
}

// Undo moves files back to where they came from, in reverse order.
// It keeps going after a failure and reports every failed move.
func (r *Rotator) Undo(moves []Move) error {
	var failed []string
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if err := fs.MoveFile(r.fs, m.To, m.From); err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("undo rotation: %d of %d moves failed: %s", len(failed), len(moves), strings.Join(failed, "; "))
	}
	return nil
}

// free returns path, or a tagged variant of it when path is taken.
func (r *Rotator) free(path, tag string) (string, error) {
	taken, err := afero.Exists(r.fs, path)
	if err != nil || !taken {
		return path, err
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s__%s%s", stem, tag, ext)
		if i > 0 {
			candidate = fmt.Sprintf("%s__%s_%d%s", stem, tag, i, ext)
		}
		taken, err := afero.Exists(r.fs, candidate)
		if err != nil {
			return candidate, err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func rel(base, path string) string {
	r, err := filepath.Rel(filepath.Dir(base), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}
