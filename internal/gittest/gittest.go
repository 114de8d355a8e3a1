// Package gittest builds small on-disk repositories with fixed timestamps so
// renderer tests stay deterministic.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// At returns a fixed timestamp i minutes after the shared base time.
func At(i int) time.Time {
	return base.Add(time.Duration(i) * time.Minute)
}

func Signature(when time.Time) object.Signature {
	return object.Signature{Name: "Alice", Email: "alice@example.com", When: when}
}

// InitRepo creates an empty repository in a temp directory.
func InitRepo(t *testing.T) (string, *gogit.Repository, *gogit.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return dir, repo, wt
}

func WriteFile(t *testing.T, dir string, wt *gogit.Worktree, path, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if _, err := wt.Add(path); err != nil {
		t.Fatalf("add %s: %v", path, err)
	}
}

func WriteExecutable(t *testing.T, dir string, wt *gogit.Worktree, path, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	if err := os.WriteFile(full, []byte(content), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if _, err := wt.Add(path); err != nil {
		t.Fatalf("add %s: %v", path, err)
	}
}

func RemoveFile(t *testing.T, dir string, wt *gogit.Worktree, path string) {
	t.Helper()
	if err := os.Remove(filepath.Join(dir, filepath.FromSlash(path))); err != nil {
		t.Fatalf("remove %s: %v", path, err)
	}
	if _, err := wt.Add(path); err != nil {
		t.Fatalf("stage removal of %s: %v", path, err)
	}
}

// Commit records the staged state with a fixed author and committer time.
// Explicit parents override the current HEAD, which is how merge commits are
// built.
func Commit(t *testing.T, wt *gogit.Worktree, msg string, when time.Time, parents ...plumbing.Hash) plumbing.Hash {
	t.Helper()
	sig := Signature(when)
	opts := &gogit.CommitOptions{
		Author:            &sig,
		Committer:         &sig,
		AllowEmptyCommits: true,
	}
	if len(parents) > 0 {
		opts.Parents = parents
	}
	hash, err := wt.Commit(msg, opts)
	if err != nil {
		t.Fatalf("commit %q: %v", msg, err)
	}
	return hash
}

// Branch creates and checks out a branch at the current HEAD.
func Branch(t *testing.T, wt *gogit.Worktree, name string) {
	t.Helper()
	err := wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		t.Fatalf("create branch %s: %v", name, err)
	}
}

// Checkout switches to an existing branch.
func Checkout(t *testing.T, wt *gogit.Worktree, name string) {
	t.Helper()
	err := wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	})
	if err != nil {
		t.Fatalf("checkout %s: %v", name, err)
	}
}

// Tag creates a lightweight tag.
func Tag(t *testing.T, repo *gogit.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	if _, err := repo.CreateTag(name, hash, nil); err != nil {
		t.Fatalf("tag %s: %v", name, err)
	}
}

// AnnotatedTag creates a tag object pointing at the commit, to exercise
// peeling.
func AnnotatedTag(t *testing.T, repo *gogit.Repository, name string, hash plumbing.Hash, when time.Time) {
	t.Helper()
	sig := Signature(when)
	_, err := repo.CreateTag(name, hash, &gogit.CreateTagOptions{
		Tagger:  &sig,
		Message: name,
	})
	if err != nil {
		t.Fatalf("annotated tag %s: %v", name, err)
	}
}
