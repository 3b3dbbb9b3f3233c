package server

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/searchparam"
	"github.com/xming13/GoGovSG/pkg/searchstate"
)

// rowsChoices are the page sizes offered by the rows selector.
var rowsChoices = []int{10, 25, 50, 100}

// pageWindow is how many page links are shown on each side of the current
// page.
const pageWindow = 3

type choice struct {
	Label    string
	Value    string
	Href     string
	Selected bool
}

type resultsData struct {
	View     searchstate.View
	Sorts    []choice
	Rows     []choice
	Pages    []choice
	PrevHref string
	NextHref string
	Selected *links.Summary
}

func href(p searchparam.Params) string {
	return navigator.DefaultPath + "?" + searchparam.Encode(p)
}

func buildResults(v searchstate.View, selected *links.Summary) resultsData {
	p := v.Params
	d := resultsData{View: v, Selected: selected}

	for _, opt := range searchparam.SortOrders() {
		d.Sorts = append(d.Sorts, choice{
			Label:    opt.Label,
			Value:    string(opt.Order),
			Href:     href(p.WithSortOrder(opt.Order)),
			Selected: opt.Order == p.SortOrder,
		})
	}
	for _, n := range rowsChoices {
		d.Rows = append(d.Rows, choice{
			Label:    strconv.Itoa(n),
			Value:    strconv.Itoa(n),
			Href:     href(p.WithRowsPerPage(n)),
			Selected: n == p.RowsPerPage,
		})
	}

	first := max(0, p.CurrentPage-pageWindow)
	last := min(v.PageCount-1, p.CurrentPage+pageWindow)
	for n := first; n <= last; n++ {
		d.Pages = append(d.Pages, choice{
			Label:    strconv.Itoa(n + 1),
			Value:    strconv.Itoa(n),
			Href:     href(p.WithPage(n)),
			Selected: n == p.CurrentPage,
		})
	}
	if p.CurrentPage > 0 {
		d.PrevHref = href(p.WithPage(p.CurrentPage - 1))
	}
	if p.CurrentPage+1 < v.PageCount {
		d.NextHref = href(p.WithPage(p.CurrentPage + 1))
	}
	return d
}

type pageData struct {
	Results resultsData
	LiveURL string
}

func renderResults(d resultsData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "results", d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

var templates = template.Must(template.New("page").Funcs(funcs).Parse(pageTemplate))

func init() {
	template.Must(templates.New("results").Parse(resultsTemplate))
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Results.View.Params.Query}}{{.Results.View.Params.Query}} - {{end}}Go.gov.sg directory</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 960px; padding: 1rem; color: #384a51; }
form { display: flex; gap: .5rem; }
input[type=search] { flex: 1; font-size: 1.1rem; padding: .5rem; }
nav a, .sort a, .rows a { margin-right: .5rem; }
a.selected { font-weight: bold; text-decoration: none; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
td { padding: .5rem; border-bottom: 1px solid #d8d8d8; vertical-align: top; }
tr[data-short] { cursor: pointer; }
.stale, .loading { opacity: .5; }
.error { color: #c0392b; }
aside { border: 1px solid #d8d8d8; padding: 1rem; margin-top: 1rem; }
</style>
</head>
<body>
<h1>Search go.gov.sg links</h1>
<form method="get" action="/search" id="search-form">
<input type="search" name="query" id="query" value="{{.Results.View.PendingQuery}}" placeholder="Search links" autocomplete="off" autofocus>
<input type="hidden" name="sortOrder" value="{{.Results.View.Params.SortOrder}}">
<input type="hidden" name="rowsPerPage" value="{{.Results.View.Params.RowsPerPage}}">
<button type="submit">Search</button>
</form>
<main id="results">{{template "results" .Results}}</main>
<script>
(function () {
  var input = document.getElementById("query");
  var results = document.getElementById("results");
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + {{.LiveURL}});
  function send(msg) { if (ws.readyState === 1) ws.send(JSON.stringify(msg)); }
  input.addEventListener("input", function () { send({type: "query", text: input.value}); });
  document.getElementById("search-form").addEventListener("submit", function (e) {
    if (ws.readyState !== 1) return;
    e.preventDefault();
    send({type: "submit"});
  });
  results.addEventListener("click", function (e) {
    var a = e.target.closest("a[data-event]");
    if (a && ws.readyState === 1) {
      e.preventDefault();
      var msg = {type: a.dataset.event};
      if (a.dataset.event === "sort") msg.sort = a.dataset.value; else msg.n = parseInt(a.dataset.value, 10);
      send(msg);
      return;
    }
    var row = e.target.closest("tr[data-short]");
    if (row) send({type: "select", shortUrl: row.dataset.short, narrow: window.innerWidth < 768});
  });
  window.addEventListener("popstate", function () { send({type: "popstate", query: location.search}); });
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "url") {
      if (msg.mode === "replace") history.replaceState(null, "", msg.url); else history.pushState(null, "", msg.url);
    } else if (msg.type === "state") {
      results.innerHTML = msg.html;
      if (document.activeElement !== input && input.value !== msg.state.pendingQuery) input.value = msg.state.pendingQuery;
    } else if (msg.type === "redirect") {
      location.href = msg.url;
    }
  };
})();
</script>
</body>
</html>
`

const resultsTemplate = `{{$v := .View}}<div class="sort">Sort: {{range .Sorts}}<a href="{{.Href}}" data-event="sort" data-value="{{.Value}}"{{if .Selected}} class="selected"{{end}}>{{.Label}}</a>{{end}}</div>
<div class="rows">Rows: {{range .Rows}}<a href="{{.Href}}" data-event="rows" data-value="{{.Value}}"{{if .Selected}} class="selected"{{end}}>{{.Label}}</a>{{end}}</div>
{{if $v.Failed}}<p class="error">Search is unavailable right now. Please try again.</p>{{end}}
{{if $v.ShowResults}}<section class="{{if $v.Stale}}stale{{else if $v.Loading}}loading{{end}}">
<h2>{{$v.Header}}</h2>
{{if $v.Results.Items}}<table>
{{range $v.Results.Items}}<tr data-short="{{.ShortURL}}"><td><a href="/{{.ShortURL}}">/{{.ShortURL}}</a></td><td>{{.Description}}<br><small>{{.LongURL}}</small></td><td>{{.Clicks}} clicks</td></tr>
{{end}}</table>{{end}}
{{if gt $v.PageCount 1}}<nav>{{if .PrevHref}}<a href="{{.PrevHref}}" data-event="page" data-value="{{sub $v.Params.CurrentPage 1}}">Previous</a>{{end}}{{range .Pages}}<a href="{{.Href}}" data-event="page" data-value="{{.Value}}"{{if .Selected}} class="selected"{{end}}>{{.Label}}</a>{{end}}{{if .NextHref}}<a href="{{.NextHref}}" data-event="page" data-value="{{add $v.Params.CurrentPage 1}}">Next</a>{{end}}</nav>{{end}}
</section>{{else if $v.Loading}}<p class="loading">Searching…</p>{{end}}
{{with .Selected}}<aside><h3>/{{.ShortURL}}</h3><p>{{.Description}}</p><p><a href="{{.LongURL}}">{{.LongURL}}</a></p><p>{{.Clicks}} clicks</p><p><a href="/{{.ShortURL}}">Go to link</a></p></aside>{{end}}`
