package site

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mergestat/timediff"
	"github.com/thiagokokada/gitstatic/internal/config"
	"github.com/thiagokokada/gitstatic/internal/diff"
	"github.com/thiagokokada/gitstatic/internal/git"
	"github.com/thiagokokada/gitstatic/internal/page"
	"github.com/thiagokokada/gitstatic/internal/report"
	"github.com/thiagokokada/gitstatic/internal/tree"
)

const (
	logDateFormat    = "2006-01-02 15:04"
	commitDateFormat = "2006-01-02 15:04:05 -0700"
	maxBarWidth      = 60
)

// Renderer turns the walked history, projected tree, and computed diffs into
// page bodies. Every cross-reference goes through the assembler's closed
// identifier map, so bodies can render in any order.
type Renderer struct {
	svc  *git.Service
	cfg  config.Config
	meta Meta
	asm  *page.Assembler
	rep  *report.Report

	refs    []git.Ref
	merged  []*object.Commit
	entries []tree.Entry
	diffs   map[plumbing.Hash]*diff.CommitDiff
	omitted int
}

type navData struct {
	Log, Files, Refs, Readme, License string
}

type baseData struct {
	Title    string
	Root     string
	FeedHref string
	Meta     Meta
	Nav      navData
	Body     template.HTML
}

func (r *Renderer) renderPage(id page.ID, title, bodyTemplate string, data any) ([]byte, error) {
	var body bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&body, bodyTemplate, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}
	nav, err := r.nav(id)
	if err != nil {
		return nil, err
	}
	root, err := r.asm.ToRoot(id)
	if err != nil {
		return nil, err
	}
	feedHref, err := r.asm.Rel(id, page.FeedID())
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	err = pageTemplates.ExecuteTemplate(&out, "base", baseData{
		Title:    title,
		Root:     root,
		FeedHref: feedHref,
		Meta:     r.meta,
		Nav:      nav,
		Body:     template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}
	return out.Bytes(), nil
}

func (r *Renderer) nav(from page.ID) (navData, error) {
	var nav navData
	var err error
	if nav.Log, err = r.asm.Rel(from, page.LogID(1)); err != nil {
		return nav, err
	}
	if nav.Files, err = r.asm.Rel(from, page.TreeID("")); err != nil {
		return nav, err
	}
	if nav.Refs, err = r.asm.Rel(from, page.RefsID()); err != nil {
		return nav, err
	}
	if r.meta.Readme != "" && r.asm.Has(page.FileID(r.meta.Readme)) {
		if nav.Readme, err = r.asm.Rel(from, page.FileID(r.meta.Readme)); err != nil {
			return nav, err
		}
	}
	if r.meta.License != "" && r.asm.Has(page.FileID(r.meta.License)) {
		if nav.License, err = r.asm.Rel(from, page.FileID(r.meta.License)); err != nil {
			return nav, err
		}
	}
	return nav, nil
}

type logRow struct {
	Date    string
	Subject string
	Author  string
	Files   string
	Added   string
	Removed string
	Href    string
}

type logTableData struct {
	Rows     []logRow
	Omitted  int
	PrevHref string
	NextHref string
}

func (r *Renderer) logRows(from page.ID, commits []*object.Commit) ([]logRow, error) {
	rows := make([]logRow, 0, len(commits))
	for _, commit := range commits {
		href, err := r.asm.Rel(from, page.CommitID(commit.Hash.String()))
		if err != nil {
			return nil, err
		}
		row := logRow{
			Date:    commit.Committer.When.Format(logDateFormat),
			Subject: subject(commit),
			Author:  commit.Author.Name,
			Href:    href,
		}
		if d := r.diffs[commit.Hash]; d != nil {
			row.Files = fmt.Sprintf("%d", d.Stat.FilesChanged)
			row.Added = fmt.Sprintf("+%d", d.Stat.Added)
			row.Removed = fmt.Sprintf("-%d", d.Stat.Removed)
		} else {
			row.Files, row.Added, row.Removed = "?", "?", "?"
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Renderer) logTable(from page.ID, k int) (logTableData, error) {
	size := r.cfg.LogPageSize
	total := page.Pages(len(r.merged), size)
	start := (k - 1) * size
	end := min(start+size, len(r.merged))
	if start > end {
		start = end
	}
	rows, err := r.logRows(from, r.merged[start:end])
	if err != nil {
		return logTableData{}, err
	}
	data := logTableData{Rows: rows}
	if k == total && r.omitted > 0 {
		data.Omitted = r.omitted
	}
	if k > 1 {
		if data.PrevHref, err = r.asm.Rel(from, page.LogID(k-1)); err != nil {
			return data, err
		}
	}
	if k < total {
		if data.NextHref, err = r.asm.Rel(from, page.LogID(k+1)); err != nil {
			return data, err
		}
	}
	return data, nil
}

func (r *Renderer) logPage(k int) ([]byte, error) {
	id := page.LogID(k)
	data, err := r.logTable(id, k)
	if err != nil {
		return nil, err
	}
	return r.renderPage(id, "Log", "logtable", data)
}

type indexRef struct {
	Name       string
	Kind       string
	Age        string
	CommitHref string
}

type indexData struct {
	Meta         Meta
	LastActivity string
	Log          logTableData
	Refs         []indexRef
}

func (r *Renderer) indexPage() ([]byte, error) {
	id := page.IndexID()
	log, err := r.logTable(id, 1)
	if err != nil {
		return nil, err
	}
	// The index is the canonical latest view; pagination continues on the
	// log pages.
	log.PrevHref = ""
	data := indexData{Meta: r.meta, Log: log}
	if len(r.merged) > 0 {
		data.LastActivity = timediff.TimeDiff(r.merged[0].Committer.When)
	}
	for _, ref := range sortedRefs(r.refs) {
		href, err := r.asm.Rel(id, page.CommitID(ref.Commit.Hash.String()))
		if err != nil {
			return nil, err
		}
		data.Refs = append(data.Refs, indexRef{
			Name:       ref.Name,
			Kind:       ref.Kind.String(),
			Age:        timediff.TimeDiff(ref.Commit.Committer.When),
			CommitHref: href,
		})
	}
	return r.renderPage(id, "Index", "index", data)
}

type commitParent struct {
	Hash string
	Href string
}

type hunkView struct {
	Header string
	Lines  []template.HTML
}

type fileDiffView struct {
	Marker   string
	Title    string
	Anchor   string
	Counts   string
	BarPlus  string
	BarMinus string
	Binary   bool
	Delta    int64
	Hunks    []hunkView
}

type commitData struct {
	Hash     string
	Parents  []commitParent
	Author   string
	Date     string
	Subject  string
	Message  string
	Degraded bool
	Stat     diff.Stat
	Files    []fileDiffView
}

func (r *Renderer) commitPage(commit *object.Commit) ([]byte, error) {
	id := page.CommitID(commit.Hash.String())
	data := commitData{
		Hash:    commit.Hash.String(),
		Author:  fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		Date:    commit.Author.When.Format(commitDateFormat),
		Subject: subject(commit),
		Message: messageBody(commit),
	}
	for _, parentHash := range commit.ParentHashes {
		parent := commitParent{Hash: parentHash.String()}
		parentID := page.CommitID(parentHash.String())
		if r.asm.Has(parentID) {
			href, err := r.asm.Rel(id, parentID)
			if err != nil {
				return nil, err
			}
			parent.Href = href
		}
		data.Parents = append(data.Parents, parent)
	}
	d := r.diffs[commit.Hash]
	if d == nil {
		data.Degraded = true
		return r.renderPage(id, data.Subject, "commit", data)
	}
	data.Stat = d.Stat
	for _, fd := range d.Files {
		data.Files = append(data.Files, fileDiffView{
			Marker:   fd.Kind.String(),
			Title:    diffTitle(fd),
			Anchor:   "f-" + fd.Path,
			Counts:   fmt.Sprintf("+%d -%d", fd.Added, fd.Removed),
			BarPlus:  bar('+', fd.Added, d.Stat.MaxChanged),
			BarMinus: bar('-', fd.Removed, d.Stat.MaxChanged),
			Binary:   fd.Binary,
			Delta:    fd.DeltaBytes,
			Hunks:    hunkViews(fd.Hunks),
		})
	}
	return r.renderPage(id, data.Subject, "commit", data)
}

func diffTitle(fd diff.FileDiff) string {
	if fd.Kind == diff.Renamed && fd.OldPath != "" {
		return fd.OldPath + " -> " + fd.Path
	}
	return fd.Path
}

func hunkViews(hunks []diff.Hunk) []hunkView {
	views := make([]hunkView, 0, len(hunks))
	for _, h := range hunks {
		view := hunkView{Header: h.Header()}
		for _, line := range h.Lines {
			view.Lines = append(view.Lines, diffLineHTML(line))
		}
		views = append(views, view)
	}
	return views
}

func diffLineHTML(line diff.Line) template.HTML {
	escaped := template.HTMLEscapeString(line.Text)
	switch line.Kind {
	case diff.LineAdded:
		return template.HTML(`<span class="i">+` + escaped + `</span>`)
	case diff.LineRemoved:
		return template.HTML(`<span class="d">-` + escaped + `</span>`)
	}
	return template.HTML(" " + escaped)
}

// bar scales a diffstat run so the largest change in the commit fits the bar
// width, preserving at least one glyph for any non-zero count.
func bar(glyph byte, count, maxChanged int) string {
	if count <= 0 || maxChanged <= 0 {
		return ""
	}
	width := count
	if maxChanged > maxBarWidth {
		width = count * maxBarWidth / maxChanged
		if width == 0 {
			width = 1
		}
	}
	return strings.Repeat(string(glyph), width)
}

type treeRow struct {
	Mode string
	Name string
	Href string
	Size string
}

type treeData struct {
	ParentHref string
	Rows       []treeRow
}

func (r *Renderer) treePage(dir string) ([]byte, error) {
	id := page.TreeID(dir)
	var data treeData
	if dir != "" {
		parent := ""
		if i := strings.LastIndex(dir, "/"); i >= 0 {
			parent = dir[:i]
		}
		href, err := r.asm.Rel(id, page.TreeID(parent))
		if err != nil {
			return nil, err
		}
		data.ParentHref = href
	}
	for _, entry := range r.entries {
		if entry.Dir() != dir {
			continue
		}
		row := treeRow{Mode: entry.Kind.Mode(), Name: entry.Name}
		switch {
		case entry.Kind == tree.KindDir:
			href, err := r.asm.Rel(id, page.TreeID(entry.Path))
			if err != nil {
				return nil, err
			}
			row.Href = href
		case entry.IsBlob():
			href, err := r.asm.Rel(id, page.FileID(entry.Path))
			if err != nil {
				return nil, err
			}
			row.Href = href
			row.Size = fmt.Sprintf("%dB", entry.Size)
		}
		data.Rows = append(data.Rows, row)
	}
	title := "Files"
	if dir != "" {
		title = dir
	}
	return r.renderPage(id, title, "tree", data)
}

type fileData struct {
	Path    string
	Size    int64
	Content template.HTML
}

func (r *Renderer) filePage(entry tree.Entry) ([]byte, error) {
	id := page.FileID(entry.Path)
	data := fileData{Path: entry.Path, Size: entry.Size}
	switch {
	case entry.Size > r.cfg.MaxFileBytes:
		r.rep.Add(report.ScopeFile, entry.Path,
			fmt.Errorf("file too large to render: %d bytes", entry.Size))
		data.Content = placeholder(fmt.Sprintf("File too large to render (%d bytes).", entry.Size))
	default:
		raw, err := r.svc.BlobBytes(entry.Hash)
		if err != nil {
			r.rep.Add(report.ScopeFile, entry.Path, err)
			data.Content = placeholder("File could not be read.")
			break
		}
		if !validText(raw) {
			r.rep.Add(report.ScopeFile, entry.Path, fmt.Errorf("not valid text"))
			data.Content = placeholder(fmt.Sprintf("Binary file (%d bytes).", entry.Size))
			break
		}
		content, err := renderBlobHTML(entry.Path, string(raw), r.cfg.Highlight)
		if err != nil {
			return nil, err
		}
		data.Content = content
	}
	return r.renderPage(id, entry.Path, "file", data)
}

func placeholder(text string) template.HTML {
	return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
}

func validText(data []byte) bool {
	return utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}

type refRow struct {
	Name       string
	ShortHash  string
	CommitHref string
	Date       string
	Author     string
}

type refsData struct {
	Tags     []refRow
	Branches []refRow
}

func (r *Renderer) refsPage() ([]byte, error) {
	id := page.RefsID()
	var data refsData
	for _, ref := range sortedRefs(r.refs) {
		href, err := r.asm.Rel(id, page.CommitID(ref.Commit.Hash.String()))
		if err != nil {
			return nil, err
		}
		row := refRow{
			Name:       ref.Name,
			ShortHash:  ref.Commit.Hash.String()[:7],
			CommitHref: href,
			Date:       ref.Commit.Committer.When.Format(logDateFormat),
			Author:     ref.Commit.Author.Name,
		}
		if ref.Kind == git.RefTag {
			data.Tags = append(data.Tags, row)
		} else {
			data.Branches = append(data.Branches, row)
		}
	}
	return r.renderPage(id, "Refs", "refs", data)
}

// sortedRefs orders references most-recently-modified first, name ascending on
// equal timestamps.
func sortedRefs(refs []git.Ref) []git.Ref {
	out := make([]git.Ref, len(refs))
	copy(out, refs)
	slices.SortStableFunc(out, func(a, b git.Ref) int {
		ta, tb := a.Commit.Committer.When, b.Commit.Committer.When
		if !ta.Equal(tb) {
			if ta.After(tb) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func subject(commit *object.Commit) string {
	return strings.SplitN(strings.TrimSpace(commit.Message), "\n", 2)[0]
}

func messageBody(commit *object.Commit) string {
	parts := strings.SplitN(strings.TrimSpace(commit.Message), "\n", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
