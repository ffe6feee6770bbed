package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

func TestWriteFileAtomic(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		data    []byte
		setupFS func(afs afero.Fs) error
		wantErr bool
	}{
		{
			name: "Write new file and create parent",
			path: "out/newest/file.csv",
			data: []byte("a,b\n"),
		},
		{
			name: "Overwrite existing file",
			path: "out/file.csv",
			data: []byte("new"),
			setupFS: func(afs afero.Fs) error {
				return afero.WriteFile(afs, "out/file.csv", []byte("old content"), 0o644)
			},
		},
		{
			name:    "Empty path",
			path:    "",
			data:    []byte("x"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := afero.NewMemMapFs()
			if tt.setupFS != nil {
				require.NoError(t, tt.setupFS(afs))
			}

			err := fs.WriteFileAtomic(afs, tt.path, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := afero.ReadFile(afs, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)

			// no temp files left behind
			matches, err := afero.Glob(afs, filepath.Join(filepath.Dir(tt.path), ".tmp-*"))
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, fs.WriteJSONAtomic(afs, "h.json", map[string]int{"b": 2, "a": 1}))

	got, err := afero.ReadFile(afs, "h.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}\n", string(got))
}

func TestMoveFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "newest/a.csv", []byte("content"), 0o644))

	require.NoError(t, fs.MoveFile(afs, "newest/a.csv", "historical_db/sub/a.csv"))

	exists, err := fs.Exists(afs, "newest/a.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := afero.ReadFile(afs, "historical_db/sub/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))

	assert.Error(t, fs.MoveFile(afs, "missing.csv", "x.csv"))
	assert.Error(t, fs.MoveFile(afs, "", "x.csv"))
}
