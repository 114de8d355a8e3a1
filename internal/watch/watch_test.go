package watch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWatchPathPrefersGitDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	if err := os.Mkdir(gitDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := watchPath(dir); got != gitDir {
		t.Errorf("watchPath = %q, want %q", got, gitDir)
	}

	bare := t.TempDir()
	if got := watchPath(bare); got != bare {
		t.Errorf("watchPath on bare layout = %q, want %q", got, bare)
	}
}

func TestShouldIgnorePath(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/repo/.git/index.lock":    true,
		"/repo/.git/fsmonitor.ipc": true,
		"/repo/.git/HEAD":          false,
		"/repo/.git/refs/heads/m":  false,
	}
	for path, want := range cases {
		if got := shouldIgnorePath(path); got != want {
			t.Errorf("shouldIgnorePath(%q) = %v, want %v", path, got, want)
		}
	}
}
