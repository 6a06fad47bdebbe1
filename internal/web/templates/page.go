package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/aptviewer/internal/core"
)

// PageData is everything the table page shows. Links are prepared by the
// handler so the markup never builds query strings itself.
type PageData struct {
	Title  string
	Status core.Status
	Loaded bool

	Bands   []core.GroupBand
	Headers []HeaderCell
	Menus   []FilterMenu
	Rows    [][]string // Visible cells per row
	Summary []SummaryCell

	Shown int
	Total int

	HideIncomplete bool
	HideURL        string
	ResetURL       string
	ExportURL      string // Empty when export is disabled
	ReloadQuery    string // Encoded view state carried through a reload
}

// HeaderCell is one sortable column header.
type HeaderCell struct {
	Name    string
	SortURL string
	Dir     core.SortDir // Empty when this column is not the sort column
}

// FilterMenu is the value checklist for one column.
type FilterMenu struct {
	Key          string
	Name         string
	Active       bool
	Options      []FilterOption
	Keep         []Field // View state the menu form must carry along
	SelectAllURL string
	ClearURL     string
}

// FilterOption is one facet value in a menu.
type FilterOption struct {
	Value     string
	Label     string
	Checked   bool
	ToggleURL string // Flips only this value; used without the form
}

// Field is a hidden form input.
type Field struct {
	Name  string
	Value string
}

// SummaryCell is one cell of the aggregates row.
type SummaryCell struct {
	Text  string
	Title string
}

// Page renders the full table page.
func Page(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		h.text(pageTitle(d.Title))
		h.raw(`</title><link rel="stylesheet" href="/static/app.css">`,
			`<script src="/static/app.js" defer></script></head><body>`)

		h.raw(`<header class="bar"><h1>`)
		h.text(pageTitle(d.Title))
		h.raw(`</h1>`)
		h.render(ctx, StatusLine(d.Status, d.Shown, d.Total, d.Loaded))
		h.render(ctx, Toolbar(d))
		h.raw(`</header><main>`)

		if d.Loaded {
			h.render(ctx, Table(d))
		}

		h.raw(`</main></body></html>`)
		return h.err
	})
}

func pageTitle(title string) string {
	if title == "" {
		return "아파트 시세"
	}
	return title
}

// StatusLine renders the load status and row counts.
func StatusLine(st core.Status, shown, total int, loaded bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<p class="status status-`)
		h.text(string(st.Phase))
		h.raw(`" role="status">`)
		h.text(st.Message)
		if st.Code != "" {
			h.raw(` <span class="code">(`)
			h.text(st.Code)
			h.raw(`)</span>`)
		}
		if loaded {
			h.raw(` <span class="count">`)
			h.text(strconv.Itoa(shown) + " / " + strconv.Itoa(total) + "건 표시")
			h.raw(`</span>`)
		}
		h.raw(`</p>`)
		return h.err
	})
}

// Toolbar renders the hide toggle, reset, export and reload controls.
func Toolbar(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<nav class="toolbar">`)
		if d.Loaded {
			h.raw(`<a class="toggle`)
			if d.HideIncomplete {
				h.raw(` on`)
			}
			h.raw(`"`)
			h.attr("href", d.HideURL)
			h.raw(`>`)
			if d.HideIncomplete {
				h.text("모든 행 보기")
			} else {
				h.text("빈 값 있는 행 숨기기")
			}
			h.raw(`</a><a class="reset"`)
			h.attr("href", d.ResetURL)
			h.raw(`>필터 초기화</a>`)
			if d.ExportURL != "" {
				h.raw(`<a class="export"`)
				h.attr("href", d.ExportURL)
				h.raw(`>엑셀 다운로드</a>`)
			}
		}
		h.raw(`<form method="post" action="/reload" class="reload">`)
		h.raw(`<input type="hidden" name="q"`)
		h.attr("value", d.ReloadQuery)
		h.raw(`><button type="submit">다시 불러오기</button></form></nav>`)
		return h.err
	})
}

// Table renders group bands, headers with filter menus, rows and the
// aggregates row.
func Table(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="scroll"><table><thead><tr class="bands">`)
		for _, b := range d.Bands {
			h.raw(`<th`)
			h.attr("colspan", strconv.Itoa(b.Colspan))
			h.raw(`>`)
			h.text(b.Title)
			h.raw(`</th>`)
		}
		h.raw(`</tr><tr class="columns">`)
		for i, c := range d.Headers {
			h.raw(`<th><a class="sort`)
			if c.Dir != "" {
				h.raw(` sort-`)
				h.text(string(c.Dir))
			}
			h.raw(`"`)
			h.attr("href", c.SortURL)
			h.raw(`>`)
			h.text(c.Name)
			h.raw(`</a>`)
			if i < len(d.Menus) {
				h.render(ctx, FilterMenuView(d.Menus[i]))
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)

		if len(d.Rows) == 0 {
			h.raw(`<tr><td class="empty"`)
			h.attr("colspan", strconv.Itoa(max(len(d.Headers), 1)))
			h.raw(`>조건에 맞는 데이터가 없습니다</td></tr>`)
		}
		for _, row := range d.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody>`)

		if len(d.Summary) > 0 {
			h.raw(`<tfoot><tr class="summary">`)
			for _, c := range d.Summary {
				h.raw(`<td`)
				if c.Title != "" {
					h.attr("title", c.Title)
				}
				h.raw(`>`)
				h.text(c.Text)
				h.raw(`</td>`)
			}
			h.raw(`</tr></tfoot>`)
		}
		h.raw(`</table></div>`)
		return h.err
	})
}

// FilterMenuView renders one column's checklist as a GET form. The form
// always sends none=<key>, so unchecking every box is representable.
func FilterMenuView(m FilterMenu) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<details class="filter`)
		if m.Active {
			h.raw(` active`)
		}
		h.raw(`"><summary`)
		h.attr("aria-label", m.Name+" 필터")
		h.raw(`>▾</summary><form method="get" action="/" class="menu">`)
		for _, f := range m.Keep {
			h.raw(`<input type="hidden"`)
			h.attr("name", f.Name)
			h.attr("value", f.Value)
			h.raw(`>`)
		}
		h.raw(`<input type="hidden" name="none"`)
		h.attr("value", m.Key)
		h.raw(`><div class="links"><a`)
		h.attr("href", m.SelectAllURL)
		h.raw(` data-select="all">전체 선택</a><a`)
		h.attr("href", m.ClearURL)
		h.raw(` data-select="none">전체 해제</a></div><ul>`)
		name := "filter[" + m.Key + "]"
		for _, o := range m.Options {
			h.raw(`<li><label><input type="checkbox"`)
			h.attr("name", name)
			h.attr("value", o.Value)
			if o.Checked {
				h.raw(` checked`)
			}
			h.raw(`> <a class="toggle"`)
			h.attr("href", o.ToggleURL)
			h.raw(`>`)
			h.text(o.Label)
			h.raw(`</a></label></li>`)
		}
		h.raw(`</ul><button type="submit">적용</button></form></details>`)
		return h.err
	})
}

// ErrorPage renders a full page for a failed request.
func ErrorPage(msg core.UserMessage, status int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8"><title>`)
		h.text(strconv.Itoa(status) + " " + msg.Message)
		h.raw(`</title><link rel="stylesheet" href="/static/app.css"></head><body><main>`)
		h.render(ctx, ErrorAlert(msg.Message, msg.Action, msg.Code))
		h.raw(`<p><a href="/">돌아가기</a></p></main></body></html>`)
		return h.err
	})
}

// ErrorAlert renders a user-facing error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<p>`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<small>오류 코드: `)
			h.text(code)
			h.raw(`</small>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}
