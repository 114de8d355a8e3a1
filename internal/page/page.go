package page

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

type Kind int

const (
	KindIndex Kind = iota
	KindLog
	KindCommit
	KindTree
	KindFile
	KindRefs
	KindFeed
)

// ID is a stable page identifier derived from a ref name, commit id, or path,
// never from render position. Bodies link to each other by ID; the assembler
// resolves IDs to output paths so link resolution is independent of layout.
type ID string

func IndexID() ID          { return "index" }
func RefsID() ID           { return "refs" }
func FeedID() ID           { return "feed" }
func LogID(k int) ID       { return ID(fmt.Sprintf("log/%d", k)) }
func CommitID(id string) ID { return ID("commit/" + id) }

// TreeID identifies the listing page of one directory of the head tree; the
// empty path is the root listing.
func TreeID(dir string) ID { return ID("tree/" + dir) }

// FileID identifies the rendered page of one (path, head tree) blob.
func FileID(p string) ID { return ID("file/" + p) }

// Assembler is the two-phase link resolver: phase one registers every page's
// identifier and claims its output path, phase two renders bodies that resolve
// cross-references through the closed identifier map. Registration order must
// be deterministic for stable collision suffixes.
type Assembler struct {
	paths   map[ID]string
	claimed map[string]ID
}

func NewAssembler() *Assembler {
	return &Assembler{
		paths:   map[ID]string{},
		claimed: map[string]ID{},
	}
}

// Register claims an output path for id, derived from the wanted path. When
// sanitization makes two logical pages collide, the later registration gets a
// short suffix derived from its identifier, keeping names stable across runs.
func (a *Assembler) Register(id ID, want string) string {
	if p, ok := a.paths[id]; ok {
		return p
	}
	clean := sanitize(want)
	if owner, taken := a.claimed[clean]; taken && owner != id {
		clean = suffixed(clean, string(id))
	}
	a.paths[id] = clean
	a.claimed[clean] = id
	return clean
}

// Path returns the output path registered for id.
func (a *Assembler) Path(id ID) (string, bool) {
	p, ok := a.paths[id]
	return p, ok
}

// Has reports whether id was registered in phase one.
func (a *Assembler) Has(id ID) bool {
	_, ok := a.paths[id]
	return ok
}

// Len returns the number of registered pages.
func (a *Assembler) Len() int {
	return len(a.paths)
}

// Rel resolves a link from one page to another as a relative href. Both pages
// must have been registered in phase one.
func (a *Assembler) Rel(from, to ID) (string, error) {
	fromPath, ok := a.paths[from]
	if !ok {
		return "", fmt.Errorf("link source %q not registered", from)
	}
	toPath, ok := a.paths[to]
	if !ok {
		return "", fmt.Errorf("link target %q not registered", to)
	}
	return relHref(fromPath, toPath), nil
}

// ToRoot returns the prefix leading from a page back to the output root.
func (a *Assembler) ToRoot(from ID) (string, error) {
	fromPath, ok := a.paths[from]
	if !ok {
		return "", fmt.Errorf("page %q not registered", from)
	}
	depth := strings.Count(fromPath, "/")
	return strings.Repeat("../", depth), nil
}

func relHref(from, to string) string {
	up := strings.Repeat("../", strings.Count(from, "/"))
	return up + to
}

// sanitize maps a logical path onto a safe relative output path. Anything
// outside a conservative set becomes '-', and no element may escape the
// output root.
func sanitize(p string) string {
	parts := strings.Split(path.Clean("/"+p), "/")
	var out []string
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		out = append(out, sanitizeElement(part))
	}
	if len(out) == 0 {
		return "index.html"
	}
	return strings.Join(out, "/")
}

func sanitizeElement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// suffixed disambiguates a colliding output path with a short content-derived
// tag from the logical identifier.
func suffixed(clean, id string) string {
	sum := sha1.Sum([]byte(id))
	tag := hex.EncodeToString(sum[:])[:8]
	ext := path.Ext(clean)
	return strings.TrimSuffix(clean, ext) + "-" + tag + ext
}

// Pages returns how many fixed-size log pages a sequence of n commits needs;
// an empty log still has its canonical first page.
func Pages(n, size int) int {
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}
