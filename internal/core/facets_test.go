package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(facets []Facet) []string {
	out := make([]string, 0, len(facets))
	for _, f := range facets {
		if f.Value != "" {
			out = append(out, f.Label)
		}
	}
	return out
}

func TestExtractFacets(t *testing.T) {
	ds := testDataset(t)

	regions := ds.Facets["지역구"]
	require.Len(t, regions, 4)
	assert.Equal(t, []string{"경기 성남", "부산 해운대", "서울 강남"}, labels(regions), "Korean collation order")
	assert.Contains(t, regions, Facet{Value: "", Label: BlankLabel})

	assert.Len(t, ds.Facets["단지명"], 5)
	assert.Len(t, ds.Facets["공급평형"], 3)

	assert.NotContains(t, ds.Facets, "단지접근키")
	assert.NotContains(t, ds.Facets, "최근수정일")
	assert.NotContains(t, ds.Facets, "", "padding columns have no facets")
}

func TestExtractFacetsIgnoresFilters(t *testing.T) {
	ds := testDataset(t)

	state := DefaultViewState()
	state.Filters = state.Filters.With("지역구", "서울 강남")
	view := BuildView(ds, state)

	assert.Len(t, view.Rows, 2)
	assert.Len(t, view.Facets["단지명"], 5)
}
