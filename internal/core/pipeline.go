package core

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
)

// fallbackRegionIndex is where the region sits in the published sheet layout,
// used when the header has no recognizable region column.
const fallbackRegionIndex = 1

// Apply runs the filter/sort pipeline over a dataset:
//
//  1. default ordering by region rank and Korean collation
//  2. column value filters
//  3. the hide-incomplete toggle
//  4. the explicit column sort, if any
//
// The dataset is not modified; the returned slice is freshly allocated.
func Apply(ds *Dataset, state ViewState) [][]string {
	coll := newCollator()

	rows := DefaultOrder(ds.Columns, ds.Rows, coll)
	rows = FilterRows(ds.Columns, rows, state.Filters)
	if state.HideIncomplete {
		rows = HideIncomplete(ds.Columns, rows)
	}
	if state.Sort.Active() {
		SortRows(ds.Columns, rows, state.Sort, coll)
	}
	return rows
}

// RegionRank buckets a region for the default ordering: Seoul first, then
// Gyeonggi, then any other region, and empty values last.
func RegionRank(region string) int {
	region = strings.TrimSpace(region)
	switch {
	case region == "":
		return 3
	case strings.HasPrefix(region, "서울"):
		return 0
	case strings.HasPrefix(region, "경기"):
		return 1
	default:
		return 2
	}
}

// DefaultOrder returns a copy of rows ordered by region rank, then by region,
// neighborhood, complex name and unit sizes in Korean collation.
func DefaultOrder(cols []Column, rows [][]string, coll *collate.Collator) [][]string {
	regionIdx := -1
	if c, ok := ColumnByRole(cols, RoleRegion); ok {
		regionIdx = c.Index
	} else if len(cols) > fallbackRegionIndex {
		regionIdx = fallbackRegionIndex
	}

	var tieBreak []int
	for _, role := range []Role{RoleNeighborhood, RoleComplex, RoleSupplyArea, RoleExclusiveArea} {
		if c, ok := ColumnByRole(cols, role); ok {
			tieBreak = append(tieBreak, c.Index)
		}
	}

	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b []string) int {
		if regionIdx >= 0 {
			ra := strings.TrimSpace(a[regionIdx])
			rb := strings.TrimSpace(b[regionIdx])
			if d := RegionRank(ra) - RegionRank(rb); d != 0 {
				return d
			}
			if c := coll.CompareString(ra, rb); c != 0 {
				return c
			}
		}
		for _, idx := range tieBreak {
			if c := coll.CompareString(a[idx], b[idx]); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// FilterRows keeps rows whose cell is permitted by every active filter.
// Filters on unknown or hidden columns are ignored.
func FilterRows(cols []Column, rows [][]string, filters FilterState) [][]string {
	type check struct {
		index int
		set   ValueSet
	}

	var checks []check
	for key, set := range filters {
		c, ok := ColumnByKey(cols, key)
		if !ok || !c.Visible() {
			continue
		}
		checks = append(checks, check{index: c.Index, set: set})
	}
	if len(checks) == 0 {
		return rows
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		pass := true
		for _, ch := range checks {
			if !ch.set.Has(row[ch.index]) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, row)
		}
	}
	return out
}

// HideIncomplete drops rows with an empty cell in any visible column other
// than the lease-count column.
func HideIncomplete(cols []Column, rows [][]string) [][]string {
	var required []int
	for _, c := range VisibleColumns(cols) {
		if c.Role == RoleLeaseCount {
			continue
		}
		required = append(required, c.Index)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		complete := true
		for _, idx := range required {
			if row[idx] == "" {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, row)
		}
	}
	return out
}

// CompareCells orders two cells for an explicit sort. When both parse as
// numbers they compare numerically; otherwise they compare as Korean text.
// The choice is made per pair, so a column mixing numbers and text may not
// sort transitively.
func CompareCells(a, b string, coll *collate.Collator) int {
	na, okA := ParseNumber(a)
	nb, okB := ParseNumber(b)
	if okA && okB {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return coll.CompareString(a, b)
}

// SortRows sorts rows in place by the selected column. Equal cells keep
// their incoming (default) order. An out-of-range or invisible column is
// ignored.
func SortRows(cols []Column, rows [][]string, sort SortState, coll *collate.Collator) {
	if sort.Column < 0 || sort.Column >= len(cols) || !cols[sort.Column].Visible() {
		return
	}
	idx := cols[sort.Column].Index
	desc := sort.Dir == SortDesc

	slices.SortStableFunc(rows, func(a, b []string) int {
		c := CompareCells(a[idx], b[idx], coll)
		if desc {
			return -c
		}
		return c
	})
}

// GroupBands groups consecutive visible columns sharing a group title.
func GroupBands(visible []Column) []GroupBand {
	var bands []GroupBand
	for _, c := range visible {
		if n := len(bands); n > 0 && bands[n-1].Title == c.Group {
			bands[n-1].Colspan++
			continue
		}
		bands = append(bands, GroupBand{Title: c.Group, Colspan: 1})
	}
	return bands
}
