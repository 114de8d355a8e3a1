package site

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panjf2000/ants/v2"
	"github.com/thiagokokada/gitstatic/internal/config"
	"github.com/thiagokokada/gitstatic/internal/diff"
	"github.com/thiagokokada/gitstatic/internal/git"
	"github.com/thiagokokada/gitstatic/internal/history"
	"github.com/thiagokokada/gitstatic/internal/page"
	"github.com/thiagokokada/gitstatic/internal/report"
	"github.com/thiagokokada/gitstatic/internal/tree"
)

// Build renders the full page set for one repository into outDir. Failures
// below the repository level are recorded in rep and skip only their own unit;
// an unopenable output destination or unreadable ref store is fatal.
func Build(svc *git.Service, cfg config.Config, outDir string, rep *report.Report) error {
	resolved, skippedRefs, err := svc.Refs()
	if err != nil {
		return err
	}
	for _, s := range skippedRefs {
		rep.Add(report.ScopeRef, s.Name, s.Err)
	}

	var refs []git.Ref
	var perRef [][]*object.Commit
	for _, ref := range resolved {
		commits, err := history.Walk(svc, ref.Commit)
		if err != nil {
			rep.Add(report.ScopeRef, ref.Name, err)
			continue
		}
		slog.Debug("walked ref",
			slog.String("ref", ref.Name),
			slog.Int("commits", len(commits)),
		)
		refs = append(refs, ref)
		perRef = append(perRef, commits)
	}

	merged := history.MergedLog(perRef)
	omitted := 0
	if cfg.LogLength > 0 && len(merged) > cfg.LogLength {
		omitted = len(merged) - cfg.LogLength
		merged = merged[:cfg.LogLength]
	}

	headEntries := projectHead(svc, refs, rep)
	meta := LoadMeta(svc, cfg, headEntries)

	asm := page.NewAssembler()
	totalLogPages := registerPages(asm, cfg, merged, headEntries)

	diffs, err := computeDiffs(svc, cfg, merged, rep)
	if err != nil {
		return err
	}

	r := &Renderer{
		svc:     svc,
		cfg:     cfg,
		meta:    meta,
		asm:     asm,
		rep:     rep,
		refs:    refs,
		merged:  merged,
		entries: headEntries,
		diffs:   diffs,
		omitted: omitted,
	}

	bodies, err := r.renderAll(totalLogPages)
	if err != nil {
		return err
	}

	outFS := osfs.New(outDir)
	if err := writeSite(outFS, asm, bodies); err != nil {
		return err
	}
	var newest *object.Commit
	if len(merged) > 0 {
		newest = merged[0]
	}
	if err := writeRecord(outFS, meta, newest); err != nil {
		return err
	}
	slog.Debug("site rendered",
		slog.String("out", outDir),
		slog.Int("pages", asm.Len()),
		slog.Int("commits", len(merged)),
	)
	return nil
}

// projectHead projects the tree of the current head commit, falling back to
// the most recently modified ref when HEAD is unborn. Historical trees are
// reachable only through commit diffs.
func projectHead(svc *git.Service, refs []git.Ref, rep *report.Report) []tree.Entry {
	head, ok, err := svc.Head()
	if err != nil {
		rep.Add(report.ScopeRef, "HEAD", err)
	}
	if !ok || head == nil {
		sorted := sortedRefs(refs)
		if len(sorted) == 0 {
			return nil
		}
		head = sorted[0].Commit
	}
	entries, err := tree.Project(svc, head)
	if err != nil {
		rep.Add(report.ScopeRef, "HEAD", err)
		return nil
	}
	return entries
}

// registerPages is phase one of link resolution: every page's identifier and
// output path exist before any body renders.
func registerPages(asm *page.Assembler, cfg config.Config, merged []*object.Commit, entries []tree.Entry) int {
	asm.Register(page.IndexID(), "index.html")
	asm.Register(page.RefsID(), "refs.html")
	asm.Register(page.FeedID(), "atom.xml")
	totalLogPages := page.Pages(len(merged), cfg.LogPageSize)
	asm.Register(page.LogID(1), "log.html")
	for k := 2; k <= totalLogPages; k++ {
		asm.Register(page.LogID(k), fmt.Sprintf("log/%d.html", k))
	}
	for _, commit := range merged {
		hash := commit.Hash.String()
		asm.Register(page.CommitID(hash), "commit/"+hash+".html")
	}
	asm.Register(page.TreeID(""), "files.html")
	for _, entry := range entries {
		switch {
		case entry.Kind == tree.KindDir:
			asm.Register(page.TreeID(entry.Path), "files/"+entry.Path+"/index.html")
		case entry.IsBlob():
			asm.Register(page.FileID(entry.Path), "files/"+entry.Path+".html")
		}
	}
	return totalLogPages
}

// computeDiffs runs per-commit diff computation on a bounded pool. A commit
// whose objects cannot be read keeps a nil entry so logs list it degraded.
func computeDiffs(svc *git.Service, cfg config.Config, merged []*object.Commit, rep *report.Report) (map[plumbing.Hash]*diff.CommitDiff, error) {
	diffs := make(map[plumbing.Hash]*diff.CommitDiff, len(merged))
	pool, err := ants.NewPool(cfg.PoolSize())
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, commit := range merged {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			d, err := diff.Compute(svc, commit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Add(report.ScopeCommit, commit.Hash.String(), err)
				diffs[commit.Hash] = nil
				return
			}
			diffs[commit.Hash] = d
		}
		if err := pool.Submit(job); err != nil {
			job()
		}
	}
	wg.Wait()
	return diffs, nil
}

// renderAll is phase two: bodies render concurrently against the closed
// identifier map, so no page depends on another page's render order.
func (r *Renderer) renderAll(totalLogPages int) (map[page.ID][]byte, error) {
	type result struct {
		id   page.ID
		body []byte
		err  error
	}
	var jobs []func() result

	jobs = append(jobs, func() result {
		body, err := r.indexPage()
		return result{page.IndexID(), body, err}
	})
	jobs = append(jobs, func() result {
		body, err := r.refsPage()
		return result{page.RefsID(), body, err}
	})
	jobs = append(jobs, func() result {
		body, err := r.buildFeed()
		return result{page.FeedID(), body, err}
	})
	for k := 1; k <= totalLogPages; k++ {
		jobs = append(jobs, func() result {
			body, err := r.logPage(k)
			return result{page.LogID(k), body, err}
		})
	}
	for _, commit := range r.merged {
		jobs = append(jobs, func() result {
			body, err := r.commitPage(commit)
			return result{page.CommitID(commit.Hash.String()), body, err}
		})
	}
	jobs = append(jobs, func() result {
		body, err := r.treePage("")
		return result{page.TreeID(""), body, err}
	})
	for _, entry := range r.entries {
		switch {
		case entry.Kind == tree.KindDir:
			jobs = append(jobs, func() result {
				body, err := r.treePage(entry.Path)
				return result{page.TreeID(entry.Path), body, err}
			})
		case entry.IsBlob():
			jobs = append(jobs, func() result {
				body, err := r.filePage(entry)
				return result{page.FileID(entry.Path), body, err}
			})
		}
	}

	pool, err := ants.NewPool(r.cfg.PoolSize())
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	bodies := make(map[page.ID][]byte, len(jobs))
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		run := func() {
			defer wg.Done()
			res := job()
			mu.Lock()
			defer mu.Unlock()
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				return
			}
			bodies[res.id] = res.body
		}
		if err := pool.Submit(run); err != nil {
			run()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return bodies, nil
}
