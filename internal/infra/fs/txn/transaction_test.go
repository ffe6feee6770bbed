package txn

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_StageAndCommit(t *testing.T) {
	afs := afero.NewMemMapFs()
	m := NewManager(afs, "out/.staging")

	tx, err := m.Begin("run-1")
	require.NoError(t, err)
	require.NoError(t, tx.StageFile("2024-01-05_report.csv", []byte("a")))
	require.NoError(t, tx.StageFile("new_pairs/2024-01-05_new_pairs.csv", []byte("b")))

	// nothing visible before commit
	exists, _ := afero.Exists(afs, "out/newest/2024-01-05_report.csv")
	assert.False(t, exists)

	written, err := tx.Commit("out/newest")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05_report.csv", "new_pairs/2024-01-05_new_pairs.csv"}, written)
	assert.Equal(t, StatusCommit, tx.Status)

	got, err := afero.ReadFile(afs, "out/newest/new_pairs/2024-01-05_new_pairs.csv")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	exists, _ = afero.DirExists(afs, tx.StageDir)
	assert.False(t, exists)

	assert.NoError(t, tx.Abort(), "abort after commit is a no-op")
}

func TestTransaction_StageRejectsAbsolutePath(t *testing.T) {
	tx, err := NewManager(afero.NewMemMapFs(), ".staging").Begin("run-1")
	require.NoError(t, err)

	err = tx.StageFile("/etc/passwd", []byte("x"))
	var txErr *TxnError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "stage", txErr.Operation)
}

func TestTransaction_Abort(t *testing.T) {
	afs := afero.NewMemMapFs()
	tx, err := NewManager(afs, ".staging").Begin("run-1")
	require.NoError(t, err)
	require.NoError(t, tx.StageFile("a.csv", []byte("a")))

	require.NoError(t, tx.Abort())
	assert.Equal(t, StatusAborted, tx.Status)
	exists, _ := afero.DirExists(afs, tx.StageDir)
	assert.False(t, exists)

	assert.Error(t, tx.StageFile("b.csv", []byte("b")))
	_, err = tx.Commit("newest")
	assert.Error(t, err)
}

func TestManager_CleanupStale(t *testing.T) {
	afs := afero.NewMemMapFs()
	m := NewManager(afs, ".staging")

	removed, err := m.CleanupStale()
	require.NoError(t, err)
	assert.Empty(t, removed)

	require.NoError(t, afero.WriteFile(afs, ".staging/crashed-run/a.csv", []byte("a"), 0o644))
	removed, err = m.CleanupStale()
	require.NoError(t, err)
	assert.Equal(t, []string{"crashed-run"}, removed)

	exists, _ := afero.DirExists(afs, ".staging/crashed-run")
	assert.False(t, exists)
}
