package core

import "slices"

// BlankLabel is shown in filter menus for empty cells.
const BlankLabel = "(빈 값)"

// Facet is one distinct value of a column, as offered in its filter menu.
type Facet struct {
	Value string `json:"value"` // Raw cell value, used for matching
	Label string `json:"label"` // Display text
}

// ExtractFacets computes the distinct values of every visible column over
// all data rows. Facets ignore the current filters so menus stay stable
// while selections are toggled. Each list is sorted by label in Korean
// collation order.
func ExtractFacets(cols []Column, rows [][]string) map[string][]Facet {
	coll := newCollator()
	out := make(map[string][]Facet)

	for _, c := range VisibleColumns(cols) {
		seen := make(map[string]bool)
		var facets []Facet
		for _, row := range rows {
			v := row[c.Index]
			if seen[v] {
				continue
			}
			seen[v] = true
			facets = append(facets, Facet{Value: v, Label: facetLabel(v)})
		}
		slices.SortStableFunc(facets, func(a, b Facet) int {
			return coll.CompareString(a.Label, b.Label)
		})
		out[c.Key] = facets
	}
	return out
}

func facetLabel(v string) string {
	if v == "" {
		return BlankLabel
	}
	return v
}
