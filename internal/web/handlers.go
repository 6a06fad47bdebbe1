package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/aptviewer/internal/core"
	"github.com/JonMunkholm/aptviewer/internal/logging"
	"github.com/JonMunkholm/aptviewer/internal/web/templates"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handlePage renders the table for the view state in the query string.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ds := s.service.Dataset()
	state := parseViewState(r.URL.Query(), ds)

	data := templates.PageData{
		Status:      s.service.Status(),
		ReloadQuery: encodeViewState(state).Encode(),
	}
	if ds != nil {
		fillPage(&data, core.BuildView(ds, state), s.service.CanExport())
		w.Header().Set("X-Dataset-ID", ds.ID)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// fillPage turns a view into page data, precomputing every link.
func fillPage(d *templates.PageData, v core.View, canExport bool) {
	state := v.State
	with := func(mutate func(*core.ViewState)) string {
		next := state
		next.Filters = state.Filters.Clone()
		mutate(&next)
		return viewURL("/", next)
	}

	d.Title = v.Title
	d.Loaded = true
	d.Bands = v.Bands
	d.Shown = len(v.Rows)
	d.Total = v.Total
	d.HideIncomplete = state.HideIncomplete
	d.HideURL = with(func(st *core.ViewState) { st.HideIncomplete = !st.HideIncomplete })
	d.ResetURL = "/"
	if canExport {
		d.ExportURL = viewURL("/export", state)
	}

	d.Headers = make([]templates.HeaderCell, len(v.Columns))
	d.Menus = make([]templates.FilterMenu, len(v.Columns))
	for i, c := range v.Columns {
		cell := templates.HeaderCell{
			Name:    c.Name,
			SortURL: with(func(st *core.ViewState) { st.Sort = st.Sort.Next(c.Index) }),
		}
		if state.Sort.Column == c.Index {
			cell.Dir = state.Sort.Dir
		}
		d.Headers[i] = cell

		set, active := state.Filters[c.Key]
		facets := v.Facets[c.Key]
		options := make([]templates.FilterOption, len(facets))
		for j, f := range facets {
			options[j] = templates.FilterOption{
				Value:     f.Value,
				Label:     f.Label,
				Checked:   !active || set.Has(f.Value),
				ToggleURL: with(func(st *core.ViewState) { st.Filters = st.Filters.Toggle(c.Key, f.Value, facets) }),
			}
		}
		d.Menus[i] = templates.FilterMenu{
			Key:          c.Key,
			Name:         c.Name,
			Active:       active,
			Options:      options,
			Keep:         keepFields(state, c.Key),
			SelectAllURL: with(func(st *core.ViewState) { st.Filters = st.Filters.SelectAll(c.Key, true) }),
			ClearURL:     with(func(st *core.ViewState) { st.Filters = st.Filters.SelectAll(c.Key, false) }),
		}
	}

	d.Rows = make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		d.Rows[i] = v.Cells(row)
	}

	d.Summary = summaryRow(v)
}

// summaryRow shows the mean of each numeric column, with the other
// aggregates in the tooltip. Nil when no column is numeric.
func summaryRow(v core.View) []templates.SummaryCell {
	if len(v.Aggregations) == 0 {
		return nil
	}
	p := message.NewPrinter(language.Korean)

	cells := make([]templates.SummaryCell, len(v.Columns))
	for i, c := range v.Columns {
		agg, ok := v.Aggregations[c.Key]
		if !ok {
			continue
		}
		cells[i] = templates.SummaryCell{
			Text: p.Sprintf("평균 %.1f", agg.Mean),
			Title: p.Sprintf("합계 %.1f · 중앙값 %.1f · 최소 %.1f · 최대 %.1f · %d건",
				agg.Sum, agg.Median, agg.Min, agg.Max, agg.Count),
		}
	}
	return cells
}

// handleExport streams the current view as an .xlsx attachment. The workbook
// is built in memory first so a failure never leaves a partial download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds := s.service.Dataset()
	state := parseViewState(r.URL.Query(), ds)

	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), &buf, state); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	log := logging.FromContext(r.Context())
	if ds != nil {
		log = logging.WithFields(r.Context(), "dataset_id", ds.ID)
	}

	filename := core.ExportFilename(time.Now())
	size := buf.Len()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(size))
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("export write interrupted", "error", err)
		return
	}

	log.Info("export written", "filename", filename, "bytes", size)
}

// handleReload refetches the sheet and returns to the page with the same
// view state. Failures show up in the status line.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Load(r.Context()); err != nil && !errors.Is(err, core.ErrNotConfigured) {
		logging.FromContext(r.Context()).Warn("reload failed", "error", err)
	}

	target := "/"
	if q, err := url.ParseQuery(r.FormValue("q")); err == nil {
		if enc := q.Encode(); enc != "" {
			target += "?" + enc
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// currentDataset returns the loaded dataset or the reason there is none.
func (s *Server) currentDataset() (*core.Dataset, error) {
	if ds := s.service.Dataset(); ds != nil {
		return ds, nil
	}
	if s.service.Status().Phase == core.PhaseUnconfigured {
		return nil, core.ErrNotConfigured
	}
	return nil, core.ErrNotLoaded
}

type columnResponse struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Group string `json:"group"`
	Index int    `json:"index"`
}

type stateResponse struct {
	Filters        map[string][]string `json:"filters"`
	Sort           core.SortState      `json:"sort"`
	HideIncomplete bool                `json:"hideIncomplete"`
	Query          string              `json:"query"`
}

type viewResponse struct {
	DatasetID    string            `json:"datasetId"`
	Title        string            `json:"title"`
	Columns      []columnResponse  `json:"columns"`
	Bands        []core.GroupBand  `json:"bands"`
	Rows         [][]string        `json:"rows"`
	Shown        int               `json:"shown"`
	Total        int               `json:"total"`
	Aggregations core.Aggregations `json:"aggregations,omitempty"`
	State        stateResponse     `json:"state"`
	LoadedAt     time.Time         `json:"loadedAt"`
}

func toViewResponse(v core.View) viewResponse {
	cols := make([]columnResponse, len(v.Columns))
	for i, c := range v.Columns {
		cols[i] = columnResponse{Name: c.Name, Key: c.Key, Group: c.Group, Index: c.Index}
	}

	rows := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		rows[i] = v.Cells(row)
	}

	filters := make(map[string][]string, len(v.State.Filters))
	for key, set := range v.State.Filters {
		values := make([]string, 0, len(set))
		for val := range set {
			values = append(values, val)
		}
		slices.Sort(values)
		filters[key] = values
	}

	return viewResponse{
		DatasetID:    v.DatasetID,
		Title:        v.Title,
		Columns:      cols,
		Bands:        v.Bands,
		Rows:         rows,
		Shown:        len(rows),
		Total:        v.Total,
		Aggregations: v.Aggregations,
		State: stateResponse{
			Filters:        filters,
			Sort:           v.State.Sort,
			HideIncomplete: v.State.HideIncomplete,
			Query:          encodeViewState(v.State).Encode(),
		},
		LoadedAt: v.LoadedAt,
	}
}

// handleAPIView returns the derived view for the query's state as JSON.
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	ds, err := s.currentDataset()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	view := core.BuildView(ds, parseViewState(r.URL.Query(), ds))
	w.Header().Set("X-Dataset-ID", ds.ID)
	writeJSON(w, r, http.StatusOK, toViewResponse(view))
}

// handleAPIFacets returns the distinct values per visible column.
func (s *Server) handleAPIFacets(w http.ResponseWriter, r *http.Request) {
	ds, err := s.currentDataset()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("X-Dataset-ID", ds.ID)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"datasetId": ds.ID,
		"facets":    ds.Facets,
	})
}

// handleAPIStatus returns the load status.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Status())
}

// handleAPIReload refetches the sheet and returns the new status.
func (s *Server) handleAPIReload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Load(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, s.service.Status())
}

// handleHealthz reports liveness. A failed sheet load does not make the
// process unhealthy; the previous dataset keeps being served.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"phase":  string(s.service.Status().Phase),
	})
}
