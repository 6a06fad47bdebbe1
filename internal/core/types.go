package core

import (
	"maps"
	"time"
)

// Dataset is one immutable load of the sheet. The service swaps whole
// datasets; nothing mutates a Dataset after BuildDataset returns it.
type Dataset struct {
	ID       string
	Title    []string
	Header   []string
	Rows     [][]string // Deduplicated data rows, input order
	Columns  []Column
	Facets   map[string][]Facet
	LoadedAt time.Time
}

// ValueSet is the set of raw cell values a column filter permits.
type ValueSet map[string]struct{}

// NewValueSet builds a set from values.
func NewValueSet(values ...string) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is permitted.
func (s ValueSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// FilterState maps a normalized column key to the values it permits.
// A missing key leaves the column unconstrained; a key mapped to an empty
// set admits no rows. Methods return modified copies.
type FilterState map[string]ValueSet

// Active reports whether key has a filter.
func (f FilterState) Active(key string) bool {
	_, ok := f[key]
	return ok
}

// Clone returns a deep copy.
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, set := range f {
		out[k] = maps.Clone(set)
		if out[k] == nil {
			out[k] = ValueSet{}
		}
	}
	return out
}

// With returns a copy where key permits exactly values.
func (f FilterState) With(key string, values ...string) FilterState {
	out := f.Clone()
	out[key] = NewValueSet(values...)
	return out
}

// Without returns a copy with the filter on key removed.
func (f FilterState) Without(key string) FilterState {
	out := f.Clone()
	delete(out, key)
	return out
}

// Toggle flips one value of a column's filter. Toggling on an unconstrained
// column starts from all facet values, so the first click deselects value.
// A selection that grows back to every facet collapses to unconstrained.
func (f FilterState) Toggle(key, value string, facets []Facet) FilterState {
	out := f.Clone()
	set, ok := out[key]
	if !ok {
		set = make(ValueSet, len(facets))
		for _, fc := range facets {
			set[fc.Value] = struct{}{}
		}
		out[key] = set
	}
	if set.Has(value) {
		delete(set, value)
	} else {
		set[value] = struct{}{}
	}
	return out.Compact(key, facets)
}

// SelectAll returns a copy where key is unconstrained when all is true, or
// permits nothing when all is false.
func (f FilterState) SelectAll(key string, all bool) FilterState {
	if all {
		return f.Without(key)
	}
	return f.With(key)
}

// Compact drops the filter on key when it permits every facet value.
func (f FilterState) Compact(key string, facets []Facet) FilterState {
	set, ok := f[key]
	if !ok || len(set) < len(facets) {
		return f
	}
	for _, fc := range facets {
		if !set.Has(fc.Value) {
			return f
		}
	}
	return f.Without(key)
}

// SortDir is the direction of an explicit column sort.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// SortState selects an explicit sort column. Column < 0 means the default
// region ordering applies.
type SortState struct {
	Column int     `json:"column"`
	Dir    SortDir `json:"dir"`
}

// NoSort is the default ordering.
var NoSort = SortState{Column: -1, Dir: SortAsc}

// Active reports whether an explicit column sort is set.
func (s SortState) Active() bool {
	return s.Column >= 0
}

// Next returns the state after clicking the header of column: a new column
// sorts ascending, then descending, then back to the default ordering.
func (s SortState) Next(column int) SortState {
	if s.Column != column {
		return SortState{Column: column, Dir: SortAsc}
	}
	if s.Dir == SortAsc {
		return SortState{Column: column, Dir: SortDesc}
	}
	return NoSort
}

// ViewState is everything a user can change about the table. It is passed
// by value through the pipeline for every render.
type ViewState struct {
	Filters        FilterState
	Sort           SortState
	HideIncomplete bool
}

// DefaultViewState has no filters, the default ordering and all rows shown.
func DefaultViewState() ViewState {
	return ViewState{Filters: FilterState{}, Sort: NoSort}
}

// GroupBand is one group header cell spanning consecutive visible columns.
type GroupBand struct {
	Title   string `json:"title"`
	Colspan int    `json:"colspan"`
}

// ColumnAggregation holds aggregated values for a single numeric column.
type ColumnAggregation struct {
	Column string  `json:"column"` // Display column name
	Count  int     `json:"count"`  // Count of numeric cells
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Aggregations maps normalized column keys to their aggregation results.
type Aggregations map[string]*ColumnAggregation

// View is the derived, render-ready table for one ViewState.
type View struct {
	DatasetID    string
	Title        string
	Columns      []Column // Visible columns in grid order
	Bands        []GroupBand
	Rows         [][]string // Final rows, full grid width
	Facets       map[string][]Facet
	Aggregations Aggregations
	State        ViewState
	Total        int // Data rows before filtering
	LoadedAt     time.Time
}

// Cells projects row onto the visible columns.
func (v View) Cells(row []string) []string {
	out := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		out[i] = row[c.Index]
	}
	return out
}
