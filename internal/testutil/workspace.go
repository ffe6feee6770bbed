package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// NewTestWorkspace creates a temporary workspace and changes into it, so code
// that searches the working directory (moldtrack.yaml) sees a clean tree.
// The original working directory is restored via t.Cleanup.
func NewTestWorkspace(t *testing.T) string {
	t.Helper()

	originalCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(originalCwd); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	return tmpDir
}

// WriteConfig writes moldtrack.yaml into the current workspace and returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()

	path := "moldtrack.yaml"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// WriteFile creates a file under the workspace, including parent directories.
func WriteFile(t *testing.T, rel, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(rel), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(rel, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return rel
}
