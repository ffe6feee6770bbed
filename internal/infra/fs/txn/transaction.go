package txn

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

// Manager handles staging areas under one base directory (<output>/.staging).
type Manager struct {
	fs      afero.Fs
	baseDir string
}

// NewManager creates a new transaction manager
func NewManager(afs afero.Fs, baseDir string) *Manager {
	return &Manager{fs: afs, baseDir: baseDir}
}

// Transaction is one run's staging area.
type Transaction struct {
	RunID    string
	StageDir string
	Status   Status
	Files    []StagedFile

	fs afero.Fs
}

// Begin creates the staging directory for runID.
func (m *Manager) Begin(runID string) (*Transaction, error) {
	stageDir := filepath.Join(m.baseDir, runID)
	if err := m.fs.MkdirAll(stageDir, 0o755); err != nil {
		return nil, &TxnError{RunID: runID, Operation: "begin", Path: stageDir, Err: err}
	}
	return &Transaction{RunID: runID, StageDir: stageDir, Status: StatusPending, fs: m.fs}, nil
}

// CleanupStale removes staging areas left behind by crashed runs.
// Their contents were never committed, so discarding them is safe.
func (m *Manager) CleanupStale() ([]string, error) {
	entries, err := afero.ReadDir(m.fs, m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan staging area %s: %w", m.baseDir, err)
	}
	var removed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.baseDir, e.Name())
		if err := m.fs.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("remove stale staging area %s: %w", dir, err)
		}
		fs.GetLogger().Warn("removed stale staging area %s", dir)
		removed = append(removed, e.Name())
	}
	return removed, nil
}

// StageFile writes content to the staging area under the relative path dst.
func (tx *Transaction) StageFile(dst string, content []byte) error {
	if tx.Status != StatusPending {
		return &TxnError{RunID: tx.RunID, Operation: "stage", Path: dst, Err: fmt.Errorf("transaction status is %s", tx.Status)}
	}
	if filepath.IsAbs(dst) || dst == "" {
		return &TxnError{RunID: tx.RunID, Operation: "stage", Path: dst, Err: fmt.Errorf("path must be relative")}
	}
	if err := fs.WriteFileAtomic(tx.fs, filepath.Join(tx.StageDir, dst), content); err != nil {
		return &TxnError{RunID: tx.RunID, Operation: "stage", Path: dst, Err: err}
	}
	tx.Files = append(tx.Files, StagedFile{Path: filepath.ToSlash(dst), Size: int64(len(content))})
	return nil
}

// Commit moves every staged file under destRoot and removes the staging area.
// It returns the destination paths written, relative to destRoot.
func (tx *Transaction) Commit(destRoot string) ([]string, error) {
	if tx.Status != StatusPending {
		return nil, &TxnError{RunID: tx.RunID, Operation: "commit", Err: fmt.Errorf("transaction status is %s", tx.Status)}
	}
	written := make([]string, 0, len(tx.Files))
	for _, f := range tx.Files {
		src := filepath.Join(tx.StageDir, filepath.FromSlash(f.Path))
		dst := filepath.Join(destRoot, filepath.FromSlash(f.Path))
		if err := fs.MoveFile(tx.fs, src, dst); err != nil {
			tx.Status = StatusFailed
			return written, &TxnError{RunID: tx.RunID, Operation: "commit", Path: f.Path, Err: err}
		}
		written = append(written, f.Path)
	}
	tx.Status = StatusCommit
	if err := tx.fs.RemoveAll(tx.StageDir); err != nil {
		fs.GetLogger().Warn("committed %s but failed to remove staging area: %v", tx.RunID, err)
	}
	return written, nil
}

// Abort discards the staging area. Aborting a committed transaction is a no-op.
func (tx *Transaction) Abort() error {
	if tx.Status == StatusCommit || tx.Status == StatusAborted {
		return nil
	}
	tx.Status = StatusAborted
	if err := tx.fs.RemoveAll(tx.StageDir); err != nil {
		return &TxnError{RunID: tx.RunID, Operation: "abort", Path: tx.StageDir, Err: err}
	}
	return nil
}
