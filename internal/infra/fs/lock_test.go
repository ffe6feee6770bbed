package fs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

const lockPath = "out/Tracker/.lock"

func writeLock(t *testing.T, afs afero.Fs, info fs.LockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(afs, lockPath, data, 0o644))
}

func TestRunLock_AcquireRelease(t *testing.T) {
	afs := afero.NewMemMapFs()
	lock := fs.NewRunLock(afs, lockPath, time.Minute)

	release, err := lock.Acquire("run-1")
	require.NoError(t, err)

	info, err := lock.Read()
	require.NoError(t, err)
	assert.Equal(t, "run-1", info.RunID)
	assert.NotZero(t, info.PID)

	_, err = fs.NewRunLock(afs, lockPath, time.Minute).Acquire("run-2")
	assert.True(t, errors.Is(err, fs.ErrLocked))

	require.NoError(t, release())
	exists, _ := afero.Exists(afs, lockPath)
	assert.False(t, exists)

	release2, err := lock.Acquire("run-2")
	require.NoError(t, err)
	require.NoError(t, release2())
}

func TestRunLock_ReclaimsExpired(t *testing.T) {
	afs := afero.NewMemMapFs()
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	writeLock(t, afs, fs.LockInfo{
		PID:        12345,
		RunID:      "old-run",
		Hostname:   "some-other-host",
		AcquiredAt: now.Add(-time.Hour).Format(time.RFC3339),
		ExpiresAt:  now.Add(-time.Minute).Format(time.RFC3339),
	})

	lock := fs.NewRunLock(afs, lockPath, time.Minute).WithClock(func() time.Time { return now })
	release, err := lock.Acquire("new-run")
	require.NoError(t, err)
	defer release()

	info, err := lock.Read()
	require.NoError(t, err)
	assert.Equal(t, "new-run", info.RunID)
}

func TestRunLock_LiveForeignLockBlocks(t *testing.T) {
	afs := afero.NewMemMapFs()
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	writeLock(t, afs, fs.LockInfo{
		PID:        12345,
		RunID:      "other-run",
		Hostname:   "some-other-host",
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  now.Add(time.Hour).Format(time.RFC3339),
	})

	_, err := fs.NewRunLock(afs, lockPath, time.Minute).
		WithClock(func() time.Time { return now }).
		Acquire("mine")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrLocked))
	assert.Contains(t, err.Error(), "other-run")
}

func TestRunLock_ReclaimsUnreadable(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, lockPath, []byte("{not json"), 0o644))

	release, err := fs.NewRunLock(afs, lockPath, time.Minute).Acquire("run-1")
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestRunLock_ReleaseKeepsForeignLock(t *testing.T) {
	afs := afero.NewMemMapFs()
	lock := fs.NewRunLock(afs, lockPath, time.Minute)

	release, err := lock.Acquire("run-1")
	require.NoError(t, err)

	// someone cleared and re-took the lock in between
	require.NoError(t, lock.Clear())
	writeLock(t, afs, fs.LockInfo{RunID: "run-2", Hostname: "h", ExpiresAt: time.Now().Add(time.Hour).UTC().Format(time.RFC3339)})

	require.NoError(t, release())
	info, err := lock.Read()
	require.NoError(t, err)
	assert.Equal(t, "run-2", info.RunID)
}
