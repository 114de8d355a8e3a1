package git

import (
	"github.com/go-git/go-git/v5/plumbing/object"
)

type RefKind int

const (
	RefBranch RefKind = iota
	RefTag
)

func (k RefKind) String() string {
	if k == RefTag {
		return "tag"
	}
	return "branch"
}

// Ref is a named pointer resolved to its target commit, annotated tags fully
// peeled. The set is read once at run start and immutable afterwards.
type Ref struct {
	Name   string
	Kind   RefKind
	Commit *object.Commit
}

// SkippedRef records a reference that could not be resolved to a readable
// commit. The run proceeds without it.
type SkippedRef struct {
	Name string
	Err  error
}
