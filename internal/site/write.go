package site

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/thiagokokada/gitstatic/internal/page"
)

// writeSite serializes every rendered body to its registered path on the
// output filesystem. Paths are relative and sanitized at registration; parent
// directories appear as files are created.
func writeSite(outFS billy.Filesystem, asm *page.Assembler, bodies map[page.ID][]byte) error {
	ids := make([]page.ID, 0, len(bodies))
	for id := range bodies {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b page.ID) int {
		return strings.Compare(string(a), string(b))
	})

	for _, id := range ids {
		rel, ok := asm.Path(id)
		if !ok {
			return fmt.Errorf("page %q has no registered path", id)
		}
		if err := util.WriteFile(outFS, rel, bodies[id], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}

	if err := util.WriteFile(outFS, "style.css", []byte(defaultStylesheet), 0o644); err != nil {
		return fmt.Errorf("write style.css: %w", err)
	}
	return nil
}

const defaultStylesheet = `body { font-family: monospace; color: #000; background-color: #fff; margin: 1em; }
h1, h2 { font-size: 1.2em; }
a { color: #00f; text-decoration: none; }
a:hover { text-decoration: underline; }
table { border-collapse: collapse; }
td, th { padding: 0 0.5em; text-align: left; vertical-align: top; }
td.num, th.num { text-align: right; }
span.desc { color: #555; }
span.i, .diff .i { color: #070; }
span.d, .diff .d { color: #c00; }
span.hunk { color: #07a; }
pre { overflow-x: auto; }
a.line { color: #777; }
hr { border: 0; border-top: 1px solid #ccc; }
`
