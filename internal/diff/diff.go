package diff

import (
	"fmt"
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/thiagokokada/gitstatic/internal/git"
)

// contextLines matches the unified-diff convention used by the patch encoder.
const contextLines = 3

type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "A"
	case Modified:
		return "M"
	case Deleted:
		return "D"
	case Renamed:
		return "R"
	}
	return "?"
}

type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

type Line struct {
	Kind LineKind
	Text string
}

// Hunk is one contiguous block of a unified diff. Start values are 1-based;
// a zero start with zero length denotes the empty side of an add or delete.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []Line
}

func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// FileDiff is one changed path. OldPath differs from Path only for renames.
// Binary files carry no hunks, only the change kind and byte delta.
type FileDiff struct {
	Path    string
	OldPath string
	Kind    ChangeKind
	Binary  bool

	Added      int
	Removed    int
	DeltaBytes int64

	Hunks []Hunk
}

// Stat is the commit-level diffstat. MaxChanged is the largest per-path
// added+removed count, used to scale proportional bars.
type Stat struct {
	FilesChanged int
	Added        int
	Removed      int
	MaxChanged   int
}

type CommitDiff struct {
	Files []FileDiff
	Stat  Stat
}

// Compute diffs a commit against its first parent; a root commit is diffed
// against the empty tree so every path reports as added. Merge commits with
// two or more parents are intentionally diffed against the first parent only.
func Compute(svc *git.Service, commit *object.Commit) (*CommitDiff, error) {
	currentTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", commit.Hash, err)
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", commit.Hash, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("parent tree of %s: %w", commit.Hash, err)
		}
	}
	changes, err := svc.DiffTrees(parentTree, currentTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", commit.Hash, err)
	}

	out := &CommitDiff{}
	for _, change := range changes {
		fd, err := fileDiff(svc, change)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", commit.Hash, err)
		}
		out.Files = append(out.Files, fd)
		out.Stat.FilesChanged++
		out.Stat.Added += fd.Added
		out.Stat.Removed += fd.Removed
		if changed := fd.Added + fd.Removed; changed > out.Stat.MaxChanged {
			out.Stat.MaxChanged = changed
		}
	}
	return out, nil
}

func fileDiff(svc *git.Service, change *object.Change) (FileDiff, error) {
	action, err := change.Action()
	if err != nil {
		return FileDiff{}, err
	}
	fd := FileDiff{
		Path:    change.To.Name,
		OldPath: change.From.Name,
	}
	switch action {
	case merkletrie.Insert:
		fd.Kind = Added
		fd.OldPath = ""
	case merkletrie.Delete:
		fd.Kind = Deleted
		fd.Path = change.From.Name
		fd.OldPath = ""
	case merkletrie.Modify:
		fd.Kind = Modified
		// A modify entry with diverging names is a rename reported by the
		// tree diff; it is passed through, never detected here.
		if change.From.Name != change.To.Name {
			fd.Kind = Renamed
		} else {
			fd.OldPath = ""
		}
	}

	patch, err := change.Patch()
	if err != nil {
		return FileDiff{}, fmt.Errorf("patch %s: %w", fd.Path, err)
	}
	filePatches := patch.FilePatches()
	if len(filePatches) == 0 {
		return fd, nil
	}
	fp := filePatches[0]

	if fp.IsBinary() {
		fd.Binary = true
		fd.DeltaBytes, err = byteDelta(svc, change)
		return fd, err
	}

	fd.Hunks, fd.Added, fd.Removed = buildHunks(fp.Chunks())
	return fd, nil
}

func byteDelta(svc *git.Service, change *object.Change) (int64, error) {
	var oldSize, newSize int64
	var err error
	if change.From.Name != "" {
		oldSize, err = svc.BlobSize(change.From.TreeEntry.Hash)
		if err != nil {
			return 0, err
		}
	}
	if change.To.Name != "" {
		newSize, err = svc.BlobSize(change.To.TreeEntry.Hash)
		if err != nil {
			return 0, err
		}
	}
	return newSize - oldSize, nil
}

// buildHunks folds the flat chunk stream into unified hunks with symmetric
// context, returning the hunks plus total added and removed line counts.
func buildHunks(chunks []fdiff.Chunk) ([]Hunk, int, int) {
	lines := flattenChunks(chunks)
	added, removed := 0, 0
	for _, l := range lines {
		switch l.Kind {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}

	var hunks []Hunk
	oldNo, newNo := 1, 1
	i := 0
	for i < len(lines) {
		if lines[i].Kind == LineContext {
			oldNo++
			newNo++
			i++
			continue
		}
		// Found a change; open a hunk including up to contextLines of
		// leading context.
		lead := min(contextLines, countContextBack(lines, i))
		hunk := Hunk{OldStart: oldNo - lead, NewStart: newNo - lead}
		for k := i - lead; k < i; k++ {
			hunk.Lines = append(hunk.Lines, lines[k])
			hunk.OldLines++
			hunk.NewLines++
		}
		// Consume changes and interior context until a context run longer
		// than twice the context size separates this hunk from the next.
		for i < len(lines) {
			if lines[i].Kind == LineContext {
				run := contextRun(lines, i)
				if run > 2*contextLines || i+run == len(lines) {
					tail := min(contextLines, run)
					for k := range tail {
						hunk.Lines = append(hunk.Lines, lines[i+k])
						hunk.OldLines++
						hunk.NewLines++
					}
					oldNo += run
					newNo += run
					i += run
					break
				}
				for k := range run {
					hunk.Lines = append(hunk.Lines, lines[i+k])
					hunk.OldLines++
					hunk.NewLines++
				}
				oldNo += run
				newNo += run
				i += run
				continue
			}
			hunk.Lines = append(hunk.Lines, lines[i])
			switch lines[i].Kind {
			case LineAdded:
				hunk.NewLines++
				newNo++
			case LineRemoved:
				hunk.OldLines++
				oldNo++
			}
			i++
		}
		if hunk.OldLines == 0 {
			hunk.OldStart = 0
		}
		if hunk.NewLines == 0 {
			hunk.NewStart = 0
		}
		hunks = append(hunks, hunk)
	}
	return hunks, added, removed
}

func countContextBack(lines []Line, i int) int {
	n := 0
	for j := i - 1; j >= 0 && lines[j].Kind == LineContext; j-- {
		n++
	}
	return n
}

func contextRun(lines []Line, i int) int {
	n := 0
	for j := i; j < len(lines) && lines[j].Kind == LineContext; j++ {
		n++
	}
	return n
}

func flattenChunks(chunks []fdiff.Chunk) []Line {
	var lines []Line
	for _, chunk := range chunks {
		var kind LineKind
		switch chunk.Type() {
		case fdiff.Add:
			kind = LineAdded
		case fdiff.Delete:
			kind = LineRemoved
		default:
			kind = LineContext
		}
		for _, text := range splitLines(chunk.Content()) {
			lines = append(lines, Line{Kind: kind, Text: text})
		}
	}
	return lines
}

// splitLines splits chunk content into lines without trailing newlines. A
// chunk not ending in a newline still contributes its final partial line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "\n")
}
