package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Service is the read-only object reader bound to one on-disk repository. It
// never mutates the repository; a single handle is shared across render
// workers for concurrent object lookups.
type Service struct {
	repo *gitlib.Repository
	path string
}

func Open(repoPath string) (*Service, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Service{repo: repo, path: abs}, nil
}

func (s *Service) RepoPath() string {
	return s.path
}

// Name derives the repository display name from its directory, without a
// trailing ".git" for bare layouts.
func (s *Service) Name() string {
	return strings.TrimSuffix(filepath.Base(s.path), ".git")
}

// Refs resolves every local branch and tag to a commit. A reference whose
// dereference fails is returned separately so the caller can record it and
// continue with the rest.
func (s *Service) Refs() ([]Ref, []SkippedRef, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, nil, fmt.Errorf("read references: %w", err)
	}
	defer iter.Close()

	var refs []Ref
	var skipped []SkippedRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		var kind RefKind
		switch {
		case name.IsBranch():
			kind = RefBranch
		case name.IsTag():
			kind = RefTag
		default:
			return nil
		}
		commit, err := s.peelToCommit(ref.Hash())
		if err != nil {
			skipped = append(skipped, SkippedRef{Name: name.Short(), Err: err})
			return nil
		}
		refs = append(refs, Ref{Name: name.Short(), Kind: kind, Commit: commit})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return refs, skipped, nil
}

// Head resolves HEAD to a commit, or reports ok=false on an unborn branch.
func (s *Service) Head() (*object.Commit, bool, error) {
	ref, err := s.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := s.peelToCommit(ref.Hash())
	if err != nil {
		return nil, false, err
	}
	return commit, true, nil
}

// peelToCommit follows annotated tag layers until a commit is reached.
func (s *Service) peelToCommit(hash plumbing.Hash) (*object.Commit, error) {
	for range 16 {
		if commit, err := s.repo.CommitObject(hash); err == nil {
			return commit, nil
		}
		tag, err := s.repo.TagObject(hash)
		if err != nil {
			return nil, fmt.Errorf("dereference %s: %w", hash, err)
		}
		hash = tag.Target
	}
	return nil, fmt.Errorf("dereference %s: tag chain too deep", hash)
}

func (s *Service) Commit(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return commit, nil
}

func (s *Service) Tree(hash plumbing.Hash) (*object.Tree, error) {
	tree, err := s.repo.TreeObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", hash, err)
	}
	return tree, nil
}

func (s *Service) BlobSize(hash plumbing.Hash) (int64, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return 0, fmt.Errorf("read blob %s: %w", hash, err)
	}
	return blob.Size, nil
}

func (s *Service) BlobBytes(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", hash, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", hash, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", hash, err)
	}
	return data, nil
}

// DiffTrees computes tree-level changes. Renames are whatever the underlying
// diff reports; they are never computed independently. Either tree may be nil
// to diff against the empty tree.
func (s *Service) DiffTrees(old, new *object.Tree) (object.Changes, error) {
	changes, err := object.DiffTreeWithOptions(context.Background(), old, new, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	return changes, nil
}

// MetaFile reads an optional repository metadata file (description, owner,
// url) from the git directory, following the bare-repository convention.
func (s *Service) MetaFile(name string) string {
	data, err := os.ReadFile(filepath.Join(s.gitDir(), name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Service) gitDir() string {
	dotGit := filepath.Join(s.path, gitlib.GitDirName)
	if info, err := os.Stat(dotGit); err == nil && info.IsDir() {
		return dotGit
	}
	return s.path
}
