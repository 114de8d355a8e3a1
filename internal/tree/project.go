package tree

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/thiagokokada/gitstatic/internal/git"
)

type Kind int

const (
	KindFile Kind = iota
	KindExecutable
	KindDir
	KindSymlink
	KindSubmodule
)

// Mode renders the conventional listing string for each entry kind.
func (k Kind) Mode() string {
	switch k {
	case KindFile:
		return "-rw-r--r--"
	case KindExecutable:
		return "-rwxr-xr-x"
	case KindDir:
		return "d---------"
	case KindSymlink:
		return "lrwxrwxrwx"
	case KindSubmodule:
		return "m---------"
	}
	return "----------"
}

// Entry is one projected tree row. Path is slash-separated and relative to the
// repository root; Size is meaningful for blobs only.
type Entry struct {
	Path string
	Name string
	Kind Kind
	Hash plumbing.Hash
	Size int64
}

func (e Entry) IsBlob() bool {
	return e.Kind == KindFile || e.Kind == KindExecutable
}

// Dir returns the containing directory path, "" for the root.
func (e Entry) Dir() string {
	dir := path.Dir(e.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// Project walks the commit's root tree depth-first, a directory emitted before
// its children, entries of each directory in a single lexicographic order.
// Symlinks and submodules are leaves. Tree objects are acyclic by id, so no
// cycle guard is needed.
func Project(svc *git.Service, commit *object.Commit) ([]Entry, error) {
	root, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("root tree of %s: %w", commit.Hash, err)
	}
	var out []Entry
	if err := projectDir(svc, root, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func projectDir(svc *git.Service, dir *object.Tree, prefix string, out *[]Entry) error {
	entries := make([]object.TreeEntry, len(dir.Entries))
	copy(entries, dir.Entries)
	slices.SortFunc(entries, func(a, b object.TreeEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, entry := range entries {
		full := entry.Name
		if prefix != "" {
			full = prefix + "/" + entry.Name
		}
		switch entry.Mode {
		case filemode.Dir:
			*out = append(*out, Entry{Path: full, Name: entry.Name, Kind: KindDir, Hash: entry.Hash})
			sub, err := svc.Tree(entry.Hash)
			if err != nil {
				return fmt.Errorf("subtree %s: %w", full, err)
			}
			if err := projectDir(svc, sub, full, out); err != nil {
				return err
			}
		case filemode.Regular, filemode.Deprecated:
			size, err := svc.BlobSize(entry.Hash)
			if err != nil {
				return fmt.Errorf("blob %s: %w", full, err)
			}
			*out = append(*out, Entry{Path: full, Name: entry.Name, Kind: KindFile, Hash: entry.Hash, Size: size})
		case filemode.Executable:
			size, err := svc.BlobSize(entry.Hash)
			if err != nil {
				return fmt.Errorf("blob %s: %w", full, err)
			}
			*out = append(*out, Entry{Path: full, Name: entry.Name, Kind: KindExecutable, Hash: entry.Hash, Size: size})
		case filemode.Symlink:
			*out = append(*out, Entry{Path: full, Name: entry.Name, Kind: KindSymlink, Hash: entry.Hash})
		case filemode.Submodule:
			*out = append(*out, Entry{Path: full, Name: entry.Name, Kind: KindSubmodule, Hash: entry.Hash})
		default:
			return fmt.Errorf("entry %s: unexpected mode %s", full, entry.Mode)
		}
	}
	return nil
}
