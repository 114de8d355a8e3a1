package history

import (
	"container/heap"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/thiagokokada/gitstatic/internal/git"
)

// Walk produces the full ancestry of head, newest first, as a valid reverse
// topological order: every commit appears after all of its children. Among
// commits whose children have all been emitted, the one with the latest
// committer timestamp goes first, ties broken by id for determinism. The first
// parent establishes the primary line; merge parents are included exactly once.
func Walk(svc *git.Service, head *object.Commit) ([]*object.Commit, error) {
	reachable := map[plumbing.Hash]*object.Commit{head.Hash: head}
	pending := map[plumbing.Hash]int{}

	queue := []*object.Commit{head}
	for len(queue) > 0 {
		commit := queue[0]
		queue = queue[1:]
		for _, parentHash := range commit.ParentHashes {
			// Count every child edge, including self-parent corruption,
			// so the emit phase detects chains that never become ready.
			pending[parentHash]++
			if _, seen := reachable[parentHash]; seen {
				continue
			}
			parent, err := svc.Commit(parentHash)
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", head.Hash, err)
			}
			reachable[parentHash] = parent
			queue = append(queue, parent)
		}
	}

	ready := &commitHeap{head}
	heap.Init(ready)
	order := make([]*object.Commit, 0, len(reachable))
	for ready.Len() > 0 {
		commit := heap.Pop(ready).(*object.Commit)
		order = append(order, commit)
		for _, parentHash := range commit.ParentHashes {
			pending[parentHash]--
			if pending[parentHash] == 0 {
				heap.Push(ready, reachable[parentHash])
			}
		}
	}
	if len(order) != len(reachable) {
		return nil, fmt.Errorf("walk %s: corrupt parent chain, %d of %d commits unreachable in order",
			head.Hash, len(reachable)-len(order), len(reachable))
	}
	return order, nil
}

// MergedLog unions per-ref sequences into the repository-wide log: one entry
// per commit id, committer timestamp descending, id descending on ties. Pure
// function of its input, computed once per run.
func MergedLog(perRef [][]*object.Commit) []*object.Commit {
	seen := map[plumbing.Hash]struct{}{}
	var merged []*object.Commit
	for _, seq := range perRef {
		for _, commit := range seq {
			if _, ok := seen[commit.Hash]; ok {
				continue
			}
			seen[commit.Hash] = struct{}{}
			merged = append(merged, commit)
		}
	}
	h := commitHeap(merged)
	heap.Init(&h)
	out := make([]*object.Commit, 0, len(merged))
	for h.Len() > 0 {
		out = append(out, heap.Pop(&h).(*object.Commit))
	}
	return out
}

// commitHeap orders commits by committer timestamp descending, then id
// descending.
type commitHeap []*object.Commit

func (h commitHeap) Len() int { return len(h) }

func (h commitHeap) Less(i, j int) bool {
	ti, tj := h[i].Committer.When, h[j].Committer.When
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return h[i].Hash.String() > h[j].Hash.String()
}

func (h commitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *commitHeap) Push(x any) {
	*h = append(*h, x.(*object.Commit))
}

func (h *commitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
