package web

// params.go maps between ViewState and URL query strings:
//
//	filter[<key>]=<raw value>   repeatable; values a column filter permits
//	none=<key>                  marks a column filter as present, so an
//	                            empty selection survives the round trip
//	sort=<column index>         explicit sort column
//	dir=asc|desc                explicit sort direction
//	hide=1                      hide rows with empty cells
//
// Keys are normalized column names. Unknown or hidden columns are dropped
// and a selection covering every facet collapses to unconstrained.

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/aptviewer/internal/core"
	"github.com/JonMunkholm/aptviewer/internal/web/templates"
)

const (
	paramNone = "none"
	paramSort = "sort"
	paramDir  = "dir"
	paramHide = "hide"
)

func filterParam(key string) string {
	return "filter[" + key + "]"
}

// parseViewState reads a ViewState from q. When ds is nil only the shape of
// the query is checked.
func parseViewState(q url.Values, ds *core.Dataset) core.ViewState {
	state := core.DefaultViewState()

	known := func(key string) bool {
		if ds == nil {
			return key != ""
		}
		c, ok := core.ColumnByKey(ds.Columns, key)
		return ok && c.Visible()
	}

	for name, values := range q {
		if !strings.HasPrefix(name, "filter[") || !strings.HasSuffix(name, "]") {
			continue
		}
		key := core.Normalize(name[len("filter[") : len(name)-1])
		if !known(key) {
			continue
		}
		set, ok := state.Filters[key]
		if !ok {
			set = core.ValueSet{}
			state.Filters[key] = set
		}
		for _, v := range values {
			set[strings.TrimSpace(v)] = struct{}{}
		}
	}

	for _, raw := range q[paramNone] {
		key := core.Normalize(raw)
		if !known(key) {
			continue
		}
		if _, ok := state.Filters[key]; !ok {
			state.Filters[key] = core.ValueSet{}
		}
	}

	if ds != nil {
		keys := make([]string, 0, len(state.Filters))
		for key := range state.Filters {
			keys = append(keys, key)
		}
		for _, key := range keys {
			state.Filters = state.Filters.Compact(key, ds.Facets[key])
		}
	}

	if raw := q.Get(paramSort); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil && sortable(ds, idx) {
			state.Sort = core.SortState{Column: idx, Dir: core.SortAsc}
			if q.Get(paramDir) == string(core.SortDesc) {
				state.Sort.Dir = core.SortDesc
			}
		}
	}

	switch q.Get(paramHide) {
	case "1", "true", "on":
		state.HideIncomplete = true
	}

	return state
}

func sortable(ds *core.Dataset, idx int) bool {
	if idx < 0 {
		return false
	}
	if ds == nil {
		return true
	}
	for _, c := range ds.Columns {
		if c.Index == idx {
			return c.Visible()
		}
	}
	return false
}

// encodeViewState is the inverse of parseViewState. Filter values are
// sorted so equal states produce equal URLs.
func encodeViewState(state core.ViewState) url.Values {
	q := url.Values{}

	keys := make([]string, 0, len(state.Filters))
	for key := range state.Filters {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		set := state.Filters[key]
		if len(set) == 0 {
			q.Add(paramNone, key)
			continue
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		slices.Sort(values)
		q[filterParam(key)] = values
	}

	if state.Sort.Active() {
		q.Set(paramSort, strconv.Itoa(state.Sort.Column))
		q.Set(paramDir, string(state.Sort.Dir))
	}
	if state.HideIncomplete {
		q.Set(paramHide, "1")
	}
	return q
}

// viewURL returns path with state encoded as its query.
func viewURL(path string, state core.ViewState) string {
	q := encodeViewState(state).Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// keepFields lists the hidden inputs a filter form for key needs so that
// submitting it leaves the rest of the state unchanged.
func keepFields(state core.ViewState, key string) []templates.Field {
	rest := state
	rest.Filters = state.Filters.Without(key)

	q := encodeViewState(rest)
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	slices.Sort(names)

	var fields []templates.Field
	for _, name := range names {
		for _, v := range q[name] {
			fields = append(fields, templates.Field{Name: name, Value: v})
		}
	}
	return fields
}
