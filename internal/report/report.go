package report

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Scope classifies how much of the run a recorded failure invalidated. Fatal
// conditions are not recorded here; they abort the run through error returns.
type Scope int

const (
	ScopeRef Scope = iota
	ScopeCommit
	ScopeFile
)

func (s Scope) String() string {
	switch s {
	case ScopeRef:
		return "ref"
	case ScopeCommit:
		return "commit"
	case ScopeFile:
		return "file"
	}
	return "unknown"
}

type Entry struct {
	Scope Scope
	ID    string
	Err   error
}

// Report collects non-fatal failures so sibling work can proceed. Safe for
// concurrent use by render workers.
type Report struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Report {
	return &Report{}
}

func (r *Report) Add(scope Scope, id string, err error) {
	slog.Warn("skipping unit",
		slog.String("scope", scope.String()),
		slog.String("id", id),
		slog.Any("error", err),
	)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Scope: scope, ID: id, Err: err})
}

func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Report) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries) == 0
}

// Skipped reports whether the unit with the given scope and id was recorded.
func (r *Report) Skipped(scope Scope, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Scope == scope && e.ID == id {
			return true
		}
	}
	return false
}

// Summarize logs every recorded skip after the run completes.
func (r *Report) Summarize() {
	entries := r.Entries()
	if len(entries) == 0 {
		return
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s: %v\n", e.Scope, e.ID, e.Err)
	}
	slog.Warn("run completed with skipped units",
		slog.Int("count", len(entries)),
		slog.String("detail", strings.TrimRight(b.String(), "\n")),
	)
}
