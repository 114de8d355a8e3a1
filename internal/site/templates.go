package site

import (
	"html/template"
)

var pageTemplates = template.Must(template.New("site").Parse(`
{{define "base"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - {{.Meta.Name}}</title>
<link rel="stylesheet" href="{{.Root}}style.css">
<link rel="alternate" type="application/atom+xml" href="{{.FeedHref}}" title="{{.Meta.Name}} Atom feed">
</head>
<body>
<table id="header">
<tr><td><h1>{{.Meta.Name}}</h1><span class="desc">{{.Meta.Description}}</span></td></tr>
{{if .Meta.CloneURL}}<tr><td><code>git clone {{.Meta.CloneURL}}</code></td></tr>{{end}}
<tr><td><nav><a href="{{.Nav.Log}}">Log</a> | <a href="{{.Nav.Files}}">Files</a> | <a href="{{.Nav.Refs}}">Refs</a>{{if .Nav.Readme}} | <a href="{{.Nav.Readme}}">README</a>{{end}}{{if .Nav.License}} | <a href="{{.Nav.License}}">LICENSE</a>{{end}}</nav></td></tr>
</table>
<hr>
<div id="content">
{{.Body}}</div>
</body>
</html>
{{end}}

{{define "logtable"}}<table id="log">
<tr><th>Date</th><th>Commit message</th><th>Author</th><th class="num">Files</th><th class="num">+</th><th class="num">-</th></tr>
{{range .Rows}}<tr><td>{{.Date}}</td><td><a href="{{.Href}}">{{.Subject}}</a></td><td>{{.Author}}</td><td class="num">{{.Files}}</td><td class="num">{{.Added}}</td><td class="num">{{.Removed}}</td></tr>
{{end}}{{if .Omitted}}<tr><td>...</td><td>{{.Omitted}} more commits remaining, fetch the repository</td><td>...</td><td class="num">...</td><td class="num">...</td><td class="num">...</td></tr>
{{end}}</table>
{{if or .PrevHref .NextHref}}<nav class="pages">{{if .PrevHref}}<a href="{{.PrevHref}}">&larr; newer</a>{{end}}{{if and .PrevHref .NextHref}} | {{end}}{{if .NextHref}}<a href="{{.NextHref}}">older &rarr;</a>{{end}}</nav>
{{end}}{{end}}

{{define "index"}}<p class="summary">{{if .Meta.Owner}}Maintained by {{.Meta.Owner}}.{{end}}{{if .LastActivity}} Last activity {{.LastActivity}}.{{end}}</p>
<h2>Latest commits</h2>
{{template "logtable" .Log}}
<h2>Refs</h2>
<ul class="refs">
{{range .Refs}}<li><a href="{{.CommitHref}}">{{.Name}}</a> ({{.Kind}}, {{.Age}})</li>
{{end}}</ul>
{{end}}

{{define "commit"}}<pre id="commit-header"><b>commit</b> {{.Hash}}
{{range .Parents}}<b>parent</b> {{if .Href}}<a href="{{.Href}}">{{.Hash}}</a>{{else}}{{.Hash}}{{end}}
{{end}}<b>author</b> {{.Author}}
<b>date</b> {{.Date}}</pre>
<p class="subject">{{.Subject}}</p>
{{if .Message}}<pre class="msg">{{.Message}}</pre>
{{end}}{{if .Degraded}}<p>Diff unavailable: the objects of this commit could not be read.</p>
{{else}}<p>{{.Stat.FilesChanged}} files changed, {{.Stat.Added}} insertions(+), {{.Stat.Removed}} deletions(-)</p>
<b>Diffstat:</b>
<table id="diffstat">
{{range .Files}}<tr><td>{{.Marker}}</td><td><a href="#{{.Anchor}}">{{.Title}}</a></td><td>|</td><td class="num">{{.Counts}}</td><td><span class="i">{{.BarPlus}}</span><span class="d">{{.BarMinus}}</span></td></tr>
{{end}}</table>
<hr>
{{range .Files}}{{template "filediff" .}}{{end}}{{end}}{{end}}

{{define "filediff"}}<pre class="diff"><span id="{{.Anchor}}"><b>{{.Marker}} {{.Title}}</b></span>
{{if .Binary}}Binary file differs ({{.Delta}} bytes).
{{else}}{{range .Hunks}}<span class="hunk">{{.Header}}</span>
{{range .Lines}}{{.}}
{{end}}{{end}}{{end}}</pre>
{{end}}

{{define "tree"}}<table id="files">
<tr><th>Mode</th><th>Name</th><th class="num">Size</th></tr>
{{if .ParentHref}}<tr><td>d---------</td><td><a href="{{.ParentHref}}">..</a></td><td class="num"></td></tr>
{{end}}{{range .Rows}}<tr><td>{{.Mode}}</td><td>{{if .Href}}<a href="{{.Href}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</td><td class="num">{{.Size}}</td></tr>
{{end}}</table>
{{end}}

{{define "file"}}<p class="file-meta">{{.Path}} ({{.Size}}B)</p>
<hr>
{{.Content}}
{{end}}

{{define "refs"}}{{if .Tags}}<h2>Tags</h2>
<table id="tags">
<tr><th>Name</th><th>Last commit</th><th>When</th><th>Author</th></tr>
{{range .Tags}}<tr><td>{{.Name}}</td><td><a href="{{.CommitHref}}">{{.ShortHash}}</a></td><td>{{.Date}}</td><td>{{.Author}}</td></tr>
{{end}}</table>
{{end}}<h2>Branches</h2>
<table id="branches">
<tr><th>Name</th><th>Last commit</th><th>When</th><th>Author</th></tr>
{{range .Branches}}<tr><td>{{.Name}}</td><td><a href="{{.CommitHref}}">{{.ShortHash}}</a></td><td>{{.Date}}</td><td>{{.Author}}</td></tr>
{{end}}</table>
{{end}}
`))
