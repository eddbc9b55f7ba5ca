package web

const indexHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{if .SagaTitle}}{{.SagaTitle}}{{else}}Fabula{{end}}</title>
    <link rel="stylesheet" href="/static/app.css" />
  </head>
  <body>
    <main class="container">
      <header class="header">
        <h1 class="title">{{if .SagaTitle}}{{.SagaTitle}}{{else}}Fabula{{end}}</h1>
        <div class="subtitle">{{if .Author}}by {{.Author}} · {{end}}{{.Total}} events</div>
      </header>

      {{if .Message}}<div class="flash">{{.Message}}</div>{{end}}
      {{if .Error}}<div class="flash flashError">{{.Error}}</div>{{end}}

      <section class="panel">
        <h2 class="panelTitle">Filter</h2>
        <form class="filterForm" method="get" action="/">
          <input type="hidden" name="view" value="{{.View}}" />
          <select name="story">
            <option value="">All stories</option>
            {{$f := .Filter}}
            {{range .Stories}}<option value="{{.}}" {{if eq . $f.Story}}selected{{end}}>{{.}}</option>{{end}}
          </select>
          <select name="era">
            <option value="">All eras</option>
            {{range .Eras}}<option value="{{.}}" {{if eq . $f.Era}}selected{{end}}>{{.}}</option>{{end}}
          </select>
          <select name="character">
            <option value="">All characters</option>
            {{range .Characters}}<option value="{{.}}" {{if eq . $f.Character}}selected{{end}}>{{.}}</option>{{end}}
          </select>
          <select name="category">
            <option value="">All categories</option>
            {{range .Categories}}<option value="{{.}}" {{if eq . $f.Category}}selected{{end}}>{{.}}</option>{{end}}</select>
          <input type="search" name="q" value="{{.Filter.Keyword}}" placeholder="Keyword…" />
          <button type="submit">Apply</button>
          <a class="btnLink" href="/?view={{.View}}">Clear</a>
        </form>
        <div class="viewToggle">
          <a class="btnLink {{if eq .View "cards"}}active{{end}}" href="/?view=cards&story={{.Filter.Story}}&era={{.Filter.Era}}&character={{.Filter.Character}}&category={{.Filter.Category}}&q={{.Filter.Keyword}}">Cards</a>
          <a class="btnLink {{if eq .View "chart"}}active{{end}}" href="/?view=chart&story={{.Filter.Story}}&era={{.Filter.Era}}&character={{.Filter.Character}}&category={{.Filter.Category}}&q={{.Filter.Keyword}}">Chart</a>
        </div>
      </section>

      {{if eq .View "chart"}}
        <section class="panel">
          <h2 class="panelTitle">Chart</h2>
          <div class="chartWrap">{{.Chart}}</div>
        </section>
      {{else}}
        <section class="panel">
          <h2 class="panelTitle">Events</h2>
          {{if .Events}}
            <ul class="list">
              {{range .Events}}
                <li class="row">
                  <div class="rowMain">
                    <div class="rowName">{{.Title}} <span class="muted">· {{.DateText}}</span></div>
                    <div class="rowMeta">
                      {{if .Story}}<span class="badge">{{.Story}}</span>{{end}}
                      {{if .Era}}<span class="badge">{{.Era}}</span>{{end}}
                      {{if .Characters}}<span>{{.Characters}}</span>{{end}}
                      {{if .Categories}}<span class="muted">{{.Categories}}</span>{{end}}
                      {{if not .Plottable}}<span class="badge badgeWarn">not on chart</span>{{end}}
                    </div>
                    {{if .Notes}}<div class="rowNotes">{{.Notes}}</div>{{end}}
                  </div>
                  <div class="rowActions">
                    <a class="btnLink" href="/events/{{.ID}}/edit">Edit</a>
                    <form method="post" action="/events/{{.ID}}/delete">
                      <button type="submit" class="btnDanger">Delete</button>
                    </form>
                  </div>
                </li>
              {{end}}
            </ul>
          {{else}}
            <div class="empty">No events match. Add one below.</div>
          {{end}}
        </section>
      {{end}}

      <section class="panel">
        <h2 class="panelTitle">Add Event</h2>
        <form class="eventForm" method="post" action="/events">
          <label>Title <input name="title" required /></label>
          <label>Date label <input name="date_text" required placeholder="Spring 1842" /></label>
          <label>Start date <input name="start_date" placeholder="1842 or 1842-04-12" /></label>
          <label>End date <input name="end_date" /></label>
          <label>Story <input name="story" /></label>
          <label>Era <input name="era" /></label>
          <label>Characters <input name="characters" placeholder="Maren, Tobias" /></label>
          <label>Categories <input name="categories" placeholder="war, politics" /></label>
          <label>Sort index <input name="sort_index" type="number" value="0" /></label>
          <label class="wide">Notes <textarea name="notes" rows="3"></textarea></label>
          <button type="submit">Add</button>
        </form>
      </section>

      <section class="panel">
        <h2 class="panelTitle">Data</h2>
        <div class="dataRow">
          <a class="btnLink" href="/export.json">Export JSON</a>
          <a class="btnLink" href="/export.csv">Export CSV</a>
        </div>
        <form class="dataRow" method="post" action="/import" enctype="multipart/form-data">
          <input type="file" name="file" accept=".json,.csv" required />
          <select name="mode">
            <option value="replace">Replace all</option>
            <option value="merge">Merge</option>
          </select>
          <button type="submit">Import</button>
        </form>
      </section>

      <section class="panel">
        <h2 class="panelTitle">Saga</h2>
        <form class="eventForm" method="post" action="/profile">
          <label>Saga title <input name="saga_title" value="{{.SagaTitle}}" /></label>
          <label>Author <input name="author" value="{{.Author}}" /></label>
          <button type="submit">Save</button>
        </form>
      </section>
    </main>
  </body>
</html>
`

const editHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Edit · Fabula</title>
    <link rel="stylesheet" href="/static/app.css" />
  </head>
  <body>
    <main class="container">
      <header class="header">
        <h1 class="title">Edit Event</h1>
        <div class="subtitle mono">{{.Event.ID}}</div>
      </header>

      {{if .Error}}<div class="flash flashError">{{.Error}}</div>{{end}}

      <section class="panel">
        <form class="eventForm" method="post" action="/events/{{.Event.ID}}/edit">
          <label>Title <input name="title" value="{{.Event.Title}}" required /></label>
          <label>Date label <input name="date_text" value="{{.Event.DateText}}" required /></label>
          <label>Start date <input name="start_date" value="{{.Event.StartDate}}" /></label>
          <label>End date <input name="end_date" value="{{.Event.EndDate}}" /></label>
          <label>Story <input name="story" value="{{.Event.Story}}" /></label>
          <label>Era <input name="era" value="{{.Event.Era}}" /></label>
          <label>Characters <input name="characters" value="{{.Characters}}" /></label>
          <label>Categories <input name="categories" value="{{.Categories}}" /></label>
          <label>Sort index <input name="sort_index" type="number" value="{{.Event.SortIndex}}" /></label>
          <label class="wide">Notes <textarea name="notes" rows="4">{{.Event.Notes}}</textarea></label>
          <button type="submit">Save</button>
          <a class="btnLink" href="/">Cancel</a>
        </form>
      </section>
    </main>
  </body>
</html>
`

const appCSS = `
:root{
  --bg: #0b0c10;
  --panel: #111217;
  --text: #e8eaf0;
  --muted: #a6adbb;
  --line: rgba(255,255,255,0.08);
  --badge: rgba(255,255,255,0.10);
  --warn: rgba(214,182,86,0.25);
  --danger: #b85450;
  --mono: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace;
  --sans: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, "Apple Color Emoji", "Segoe UI Emoji";
}
*{box-sizing:border-box}
html,body{height:100%}
body{
  margin:0;
  font-family:var(--sans);
  background: radial-gradient(1200px 800px at 20% 10%, #141528, var(--bg));
  color:var(--text);
}
.container{
  max-width: 1020px;
  margin: 0 auto;
  padding: 32px 20px 60px;
}
.header{margin-bottom:18px}
.title{margin:0; font-size:28px; letter-spacing:0.2px}
.subtitle{margin-top:6px; color:var(--muted); font-size:14px}
.flash{
  margin-bottom:14px; padding:10px 14px; border-radius:10px;
  background: rgba(130,179,102,0.18); border:1px solid var(--line);
}
.flashError{background: rgba(184,84,80,0.22)}
.panel{
  background: rgba(17,18,23,0.88);
  border: 1px solid var(--line);
  border-radius: 12px;
  overflow:hidden;
  backdrop-filter: blur(8px);
  margin-bottom: 18px;
}
.panelTitle{
  margin:0;
  padding: 14px 16px;
  font-size: 14px;
  letter-spacing: 0.4px;
  text-transform: uppercase;
  color: var(--muted);
  border-bottom: 1px solid var(--line);
}
.filterForm,.dataRow{display:flex; flex-wrap:wrap; gap:8px; padding:14px 16px; align-items:center}
.viewToggle{display:flex; gap:8px; padding:0 16px 14px}
.eventForm{display:grid; grid-template-columns:repeat(3,1fr); gap:10px; padding:14px 16px}
.eventForm label{display:flex; flex-direction:column; gap:4px; font-size:13px; color:var(--muted)}
.eventForm .wide{grid-column:1 / -1}
.eventForm button{grid-column:1; width:fit-content}
input,select,textarea,button{
  font:inherit; color:var(--text);
  background:rgba(255,255,255,0.05);
  border:1px solid var(--line); border-radius:8px; padding:7px 10px;
}
button{cursor:pointer}
.btnLink{
  display:inline-block; padding:7px 12px; border-radius:8px;
  border:1px solid var(--line); color:var(--text); text-decoration:none; font-size:14px;
}
.btnLink.active{background:var(--badge)}
.btnDanger{border-color:var(--danger); color:var(--danger); background:transparent}
.list{list-style:none; margin:0; padding:0}
.row{border-bottom:1px solid var(--line); display:flex; justify-content:space-between; align-items:flex-start}
.row:last-child{border-bottom:none}
.rowMain{padding: 14px 16px}
.rowName{font-size:16px; margin-bottom:6px}
.rowMeta{display:flex; flex-wrap:wrap; gap:10px; align-items:center; color:var(--muted); font-size:12px}
.rowNotes{margin-top:8px; color:var(--muted); font-size:13px; white-space:pre-wrap}
.rowActions{display:flex; gap:8px; padding:14px 16px; align-items:center}
.mono{font-family:var(--mono)}
.muted{color:var(--muted)}
.badge{
  display:inline-block;
  padding: 2px 8px;
  border-radius: 999px;
  background: var(--badge);
  color: var(--text);
}
.badgeWarn{background:var(--warn)}
.empty{padding: 16px; color: var(--muted)}
.chartWrap{padding:14px 16px; overflow-x:auto}
.chart{width:100%; min-width:720px}
.chart .tick{stroke:var(--line)}
.chart .tickLabel,.chart .laneLabel,.chart .barLabel{fill:var(--muted); font-size:12px; font-family:var(--sans)}
.chart .laneLine{stroke:var(--line)}
@media (prefers-color-scheme: light){
  :root{
    --bg:#f4f6fb;
    --panel:#ffffff;
    --text:#111827;
    --muted:#4b5563;
    --line: rgba(17,24,39,0.12);
    --badge: rgba(17,24,39,0.08);
  }
  body{background: radial-gradient(1200px 800px at 20% 10%, #e7eeff, var(--bg))}
  .panel{background: rgba(255,255,255,0.92)}
}
`
