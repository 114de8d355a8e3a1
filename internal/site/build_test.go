package site

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/thiagokokada/gitstatic/internal/config"
	"github.com/thiagokokada/gitstatic/internal/git"
	"github.com/thiagokokada/gitstatic/internal/gittest"
	"github.com/thiagokokada/gitstatic/internal/report"
)

func testConfig() config.Config {
	return config.Config{
		LogPageSize:  100,
		FeedSize:     50,
		MaxFileBytes: 2 << 20,
		Workers:      2,
		Highlight:    true,
	}
}

// fixtureRepo builds a repository with nested directories, two branches, a
// merge, and both tag flavors.
func fixtureRepo(t *testing.T) (string, []plumbing.Hash) {
	t.Helper()
	dir, repo, wt := gittest.InitRepo(t)

	gittest.WriteFile(t, dir, wt, "README.md", "# fixture\n\nA repository for tests.\n")
	gittest.WriteFile(t, dir, wt, "main.go", "package main\n\nfunc main() {}\n")
	c1 := gittest.Commit(t, wt, "initial import", gittest.At(0))

	gittest.Branch(t, wt, "feature")
	gittest.WriteFile(t, dir, wt, "src/util.go", "package src\n\nfunc Util() int { return 1 }\n")
	c2 := gittest.Commit(t, wt, "add util helper", gittest.At(2))

	gittest.Checkout(t, wt, "master")
	gittest.WriteFile(t, dir, wt, "main.go", "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println() }\n")
	c3 := gittest.Commit(t, wt, "print something", gittest.At(1))

	gittest.WriteFile(t, dir, wt, "src/util.go", "package src\n\nfunc Util() int { return 1 }\n")
	c4 := gittest.Commit(t, wt, "merge feature", gittest.At(3), c3, c2)

	gittest.Tag(t, repo, "v0.1", c1)
	gittest.AnnotatedTag(t, repo, "v0.2", c4, gittest.At(4))
	return dir, []plumbing.Hash{c1, c2, c3, c4}
}

func buildSite(t *testing.T, repoDir string, cfg config.Config) (string, *report.Report) {
	t.Helper()
	svc, err := git.Open(repoDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	outDir := t.TempDir()
	rep := report.New()
	if err := Build(svc, cfg, outDir, rep); err != nil {
		t.Fatalf("build: %v", err)
	}
	return outDir, rep
}

func readPage(t *testing.T, outDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestBuildFullSite(t *testing.T) {
	t.Parallel()

	repoDir, commits := fixtureRepo(t)
	outDir, rep := buildSite(t, repoDir, testConfig())
	if !rep.Empty() {
		t.Errorf("unexpected skips: %+v", rep.Entries())
	}

	fixed := []string{
		"index.html", "log.html", "refs.html", "files.html",
		"atom.xml", "style.css", RecordFile,
		"files/README.md.html", "files/main.go.html",
		"files/src/index.html", "files/src/util.go.html",
	}
	for _, rel := range fixed {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}
	for _, hash := range commits {
		rel := "commit/" + hash.String() + ".html"
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing commit page %s: %v", rel, err)
		}
	}
	// One page per distinct commit, commits shared between branches included
	// once.
	commitPages, err := os.ReadDir(filepath.Join(outDir, "commit"))
	if err != nil {
		t.Fatalf("read commit dir: %v", err)
	}
	if len(commitPages) != len(commits) {
		t.Errorf("got %d commit pages, want %d", len(commitPages), len(commits))
	}

	root := readPage(t, outDir, "commit/"+commits[0].String()+".html")
	if !strings.Contains(root, "2 files changed, 6 insertions(+), 0 deletions(-)") {
		t.Errorf("root commit diffstat missing or wrong:\n%s", root)
	}
	refs := readPage(t, outDir, "refs.html")
	for _, name := range []string{"master", "feature", "v0.1", "v0.2"} {
		if !strings.Contains(refs, name) {
			t.Errorf("refs page misses %s", name)
		}
	}
	feed := readPage(t, outDir, "atom.xml")
	if !strings.Contains(feed, "merge feature") {
		t.Errorf("feed misses newest commit subject")
	}
	index := readPage(t, outDir, "index.html")
	if !strings.Contains(index, "README") {
		t.Errorf("index misses README link")
	}

	var record Record
	if err := json.Unmarshal([]byte(readPage(t, outDir, RecordFile)), &record); err != nil {
		t.Fatalf("decode %s: %v", RecordFile, err)
	}
	if record.Name == "" {
		t.Errorf("record has no name: %+v", record)
	}
	if record.LastActivity == nil || !record.LastActivity.Equal(gittest.At(3)) {
		t.Errorf("record last_activity = %v, want %v", record.LastActivity, gittest.At(3))
	}
}

// Rendering the same repository twice must produce byte-identical output.
func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	repoDir, _ := fixtureRepo(t)
	first, _ := buildSite(t, repoDir, testConfig())
	second, _ := buildSite(t, repoDir, testConfig())

	err := filepath.WalkDir(first, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(first, path)
		if err != nil {
			return err
		}
		a, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(filepath.Join(second, rel))
		if err != nil {
			return err
		}
		if string(a) != string(b) {
			text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(a)),
				B:        difflib.SplitLines(string(b)),
				FromFile: "first/" + rel,
				ToFile:   "second/" + rel,
				Context:  3,
			})
			t.Errorf("output differs for %s:\n%s", rel, text)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk outputs: %v", err)
	}
}

func TestBuildEmptyRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	outDir, rep := buildSite(t, dir, testConfig())
	if !rep.Empty() {
		t.Errorf("unexpected skips: %+v", rep.Entries())
	}
	for _, rel := range []string{"index.html", "refs.html", "log.html", "files.html", "atom.xml", RecordFile} {
		if _, err := os.Stat(filepath.Join(outDir, rel)); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}
	var record Record
	if err := json.Unmarshal([]byte(readPage(t, outDir, RecordFile)), &record); err != nil {
		t.Fatalf("decode %s: %v", RecordFile, err)
	}
	if record.LastActivity != nil {
		t.Errorf("empty repository reports activity %v", record.LastActivity)
	}
}

func TestBuildLogPagination(t *testing.T) {
	t.Parallel()

	dir, _, wt := gittest.InitRepo(t)
	for i := range 5 {
		gittest.WriteFile(t, dir, wt, "a.txt", strings.Repeat("x\n", i+1))
		gittest.Commit(t, wt, "change", gittest.At(i))
	}
	cfg := testConfig()
	cfg.LogPageSize = 2
	outDir, _ := buildSite(t, dir, cfg)

	for _, rel := range []string{"log.html", "log/2.html", "log/3.html"} {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing log page %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "log", "4.html")); err == nil {
		t.Errorf("extra log page rendered")
	}
	if !strings.Contains(readPage(t, outDir, "log.html"), "log/2.html") {
		t.Errorf("first log page has no link to the second")
	}
	if !strings.Contains(readPage(t, outDir, "log/2.html"), "../log.html") {
		t.Errorf("second log page has no link back to the first")
	}
}

func TestBuildLogTruncation(t *testing.T) {
	t.Parallel()

	dir, _, wt := gittest.InitRepo(t)
	for i := range 3 {
		gittest.WriteFile(t, dir, wt, "a.txt", strings.Repeat("x\n", i+1))
		gittest.Commit(t, wt, "change", gittest.At(i))
	}
	cfg := testConfig()
	cfg.LogLength = 1
	outDir, _ := buildSite(t, dir, cfg)

	if !strings.Contains(readPage(t, outDir, "log.html"), "2 more commits remaining, fetch the repository") {
		t.Errorf("truncated log misses the omission note")
	}
	commitPages, err := os.ReadDir(filepath.Join(outDir, "commit"))
	if err != nil {
		t.Fatalf("read commit dir: %v", err)
	}
	if len(commitPages) != 1 {
		t.Errorf("got %d commit pages, want only the retained one", len(commitPages))
	}
}

// A commit whose tree object is gone keeps its page and log row: the page
// carries the fallback body, the row shows unknown counts, and the skip is
// recorded per commit. Every other unit renders untouched.
func TestBuildDegradedCommit(t *testing.T) {
	t.Parallel()

	dir, repo, wt := gittest.InitRepo(t)
	gittest.WriteFile(t, dir, wt, "base.txt", "base\n")
	gittest.Commit(t, wt, "initial", gittest.At(0))

	gittest.Branch(t, wt, "broken")
	gittest.WriteFile(t, dir, wt, "weird.txt", "payload only on this branch\n")
	cb := gittest.Commit(t, wt, "broken work", gittest.At(1))

	gittest.Checkout(t, wt, "master")
	gittest.WriteFile(t, dir, wt, "base.txt", "base\nmore\n")
	c2 := gittest.Commit(t, wt, "extend base", gittest.At(2))

	commit, err := repo.CommitObject(cb)
	if err != nil {
		t.Fatalf("read branch tip: %v", err)
	}
	treeHash := commit.TreeHash.String()
	obj := filepath.Join(dir, ".git", "objects", treeHash[:2], treeHash[2:])
	if err := os.Remove(obj); err != nil {
		t.Fatalf("remove tree object: %v", err)
	}

	outDir, rep := buildSite(t, dir, testConfig())
	if !rep.Skipped(report.ScopeCommit, cb.String()) {
		t.Errorf("degraded commit not recorded: %+v", rep.Entries())
	}

	degraded := readPage(t, outDir, "commit/"+cb.String()+".html")
	if !strings.Contains(degraded, "Diff unavailable") {
		t.Errorf("degraded commit page misses the fallback body:\n%s", degraded)
	}
	if strings.Contains(degraded, "files changed") {
		t.Errorf("degraded commit page still shows a diffstat")
	}
	logBody := readPage(t, outDir, "log.html")
	if !strings.Contains(logBody, `<td class="num">?</td>`) {
		t.Errorf("log row for degraded commit misses unknown counts")
	}
	healthy := readPage(t, outDir, "commit/"+c2.String()+".html")
	if !strings.Contains(healthy, "1 files changed") {
		t.Errorf("healthy commit rendered degraded:\n%s", healthy)
	}
}

func TestBuildSkipsUnrenderableFiles(t *testing.T) {
	t.Parallel()

	dir, _, wt := gittest.InitRepo(t)
	gittest.WriteFile(t, dir, wt, "blob.bin", "PNG\x00\x01payload")
	gittest.WriteFile(t, dir, wt, "big.txt", strings.Repeat("data\n", 100))
	gittest.Commit(t, wt, "content", gittest.At(0))

	cfg := testConfig()
	cfg.MaxFileBytes = 64
	outDir, rep := buildSite(t, dir, cfg)

	if !strings.Contains(readPage(t, outDir, "files/blob.bin.html"), "Binary file") {
		t.Errorf("binary file page misses placeholder")
	}
	if !strings.Contains(readPage(t, outDir, "files/big.txt.html"), "File too large to render") {
		t.Errorf("oversized file page misses placeholder")
	}
	if !rep.Skipped(report.ScopeFile, "blob.bin") {
		t.Errorf("binary file skip not recorded")
	}
	if !rep.Skipped(report.ScopeFile, "big.txt") {
		t.Errorf("oversized file skip not recorded")
	}
}
