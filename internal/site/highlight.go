package site

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "github"

// renderBlobHTML renders file content as line-numbered HTML with one anchor
// per line. Highlighting falls back to plain escaping when no lexer matches
// or when disabled.
func renderBlobHTML(path string, content string, highlight bool) (template.HTML, error) {
	if highlight {
		if rendered, ok := highlightBlob(path, content); ok {
			return rendered, nil
		}
	}
	return plainBlob(content), nil
}

func highlightBlob(path string, content string) (template.HTML, bool) {
	lexer := lexers.Match(path)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", false
	}
	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(true),
		chromahtml.WithLinkableLineNumbers(true, "l"),
		chromahtml.TabWidth(4),
	)
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", false
	}
	return template.HTML(buf.String()), true
}

func plainBlob(content string) template.HTML {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	b.WriteString(`<pre id="blob">`)
	for i, line := range lines {
		n := i + 1
		fmt.Fprintf(&b, `<a id="l%d" href="#l%d" class="line">%7d</a> %s`,
			n, n, n, template.HTMLEscapeString(line))
		b.WriteByte('\n')
	}
	b.WriteString("</pre>")
	return template.HTML(b.String())
}
