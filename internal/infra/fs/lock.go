package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// ErrLocked is returned when another live run holds the lock.
var ErrLocked = errors.New("output directory is locked by another run")

// DefaultLockTTL is used when no TTL is configured.
const DefaultLockTTL = 10 * time.Minute

// LockInfo represents the information stored in the lock file
type LockInfo struct {
	PID        int    `json:"pid"`
	RunID      string `json:"run_id"`
	Hostname   string `json:"hostname"`
	AcquiredAt string `json:"acquired_at"` // UTC RFC3339
	ExpiresAt  string `json:"expires_at"`  // UTC RFC3339
}

// Expired reports whether the lock can be reclaimed at now: past its expiry,
// unparsable, or held by a process on this host that is no longer running.
func (li *LockInfo) Expired(now time.Time) bool {
	expires, err := time.Parse(time.RFC3339, li.ExpiresAt)
	if err != nil {
		return true
	}
	if host, _ := os.Hostname(); host != "" && host == li.Hostname && !isProcessRunning(li.PID) {
		return true
	}
	return now.UTC().After(expires)
}

// RunLock is an advisory single-writer lock on an output directory.
type RunLock struct {
	fs   afero.Fs
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewRunLock creates a lock backed by the file at path.
func NewRunLock(afs afero.Fs, path string, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RunLock{fs: afs, path: path, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (l *RunLock) WithClock(now func() time.Time) *RunLock {
	l.now = now
	return l
}

// Path returns the lock file path.
func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock for runID. It returns ErrLocked when a live lock is held.
// An expired lock is removed and re-acquired with O_EXCL, so a racing process
// either wins the create or sees ErrLocked.
func (l *RunLock) Acquire(runID string) (release func() error, err error) {
	existing, err := l.Read()
	switch {
	case err == nil:
		if !existing.Expired(l.now()) {
			return nil, fmt.Errorf("%w (run %s, pid %d on %s, expires %s)",
				ErrLocked, existing.RunID, existing.PID, existing.Hostname, existing.ExpiresAt)
		}
		GetLogger().Warn("reclaiming expired lock %s held by run %s", l.path, existing.RunID)
		if err := l.fs.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove expired lock %s: %w", l.path, err)
		}
	case !os.IsNotExist(err):
		GetLogger().Warn("reclaiming unreadable lock %s: %v", l.path, err)
		if err := l.fs.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove unreadable lock %s: %w", l.path, err)
		}
	}

	now := l.now().UTC()
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	info := LockInfo{
		PID:        os.Getpid(),
		RunID:      runID,
		Hostname:   hostname,
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  now.Add(l.ttl).Format(time.RFC3339),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("serialize lock info: %w", err)
	}

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := l.fs.OpenFile(l.path, osCreateExclusive, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (lost race for %s)", ErrLocked, l.path)
		}
		return nil, fmt.Errorf("create lock file %s: %w", l.path, err)
	}
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		l.fs.Remove(l.path)
		return nil, fmt.Errorf("write lock file %s: %w", l.path, errors.Join(writeErr, closeErr))
	}

	return func() error { return l.release(runID) }, nil
}

// Read returns the current lock holder.
func (l *RunLock) Read() (*LockInfo, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock file %s: %w", l.path, err)
	}
	return &info, nil
}

// Clear removes the lock regardless of its holder.
func (l *RunLock) Clear() error {
	err := l.fs.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// release removes the lock only if runID still owns it.
func (l *RunLock) release(runID string) error {
	info, err := l.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.RunID != runID {
		GetLogger().Warn("lock %s now held by run %s, not releasing", l.path, info.RunID)
		return nil
	}
	return l.Clear()
}
