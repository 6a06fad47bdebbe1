package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var abcFacets = []Facet{{Value: "a", Label: "a"}, {Value: "b", Label: "b"}, {Value: "c", Label: "c"}}

func TestFilterStateToggle(t *testing.T) {
	f := FilterState{}

	f = f.Toggle("k", "a", abcFacets)
	require.True(t, f.Active("k"))
	assert.Equal(t, NewValueSet("b", "c"), f["k"], "first toggle deselects one value")

	f = f.Toggle("k", "b", abcFacets).Toggle("k", "c", abcFacets)
	require.True(t, f.Active("k"))
	assert.Empty(t, f["k"], "an empty selection stays active")

	f = f.Toggle("k", "a", abcFacets).Toggle("k", "b", abcFacets).Toggle("k", "c", abcFacets)
	assert.False(t, f.Active("k"), "full selection collapses to unconstrained")
}

func TestFilterStateCopies(t *testing.T) {
	orig := FilterState{}.With("k", "a")

	changed := orig.Toggle("k", "b", abcFacets)
	assert.Equal(t, NewValueSet("a"), orig["k"])
	assert.Equal(t, NewValueSet("a", "b"), changed["k"])

	clone := orig.Clone()
	clone["k"]["z"] = struct{}{}
	assert.False(t, orig["k"].Has("z"))

	assert.False(t, orig.Without("k").Active("k"))
	assert.True(t, orig.Active("k"))
}

func TestFilterStateSelectAll(t *testing.T) {
	f := FilterState{}.With("k", "a")

	none := f.SelectAll("k", false)
	require.True(t, none.Active("k"))
	assert.Empty(t, none["k"])

	all := none.SelectAll("k", true)
	assert.False(t, all.Active("k"))
}

func TestFilterStateCompact(t *testing.T) {
	full := FilterState{}.With("k", "a", "b", "c")
	assert.False(t, full.Compact("k", abcFacets).Active("k"))

	partial := FilterState{}.With("k", "a", "b")
	assert.True(t, partial.Compact("k", abcFacets).Active("k"))

	// Stale values do not make up for a missing facet.
	stale := FilterState{}.With("k", "a", "b", "x")
	assert.True(t, stale.Compact("k", abcFacets).Active("k"))

	assert.False(t, FilterState{}.Compact("k", abcFacets).Active("k"))
}

func TestSortStateNext(t *testing.T) {
	s := NoSort
	assert.False(t, s.Active())

	s = s.Next(3)
	assert.Equal(t, SortState{Column: 3, Dir: SortAsc}, s)
	s = s.Next(3)
	assert.Equal(t, SortState{Column: 3, Dir: SortDesc}, s)
	s = s.Next(3)
	assert.Equal(t, NoSort, s)

	s = SortState{Column: 3, Dir: SortDesc}.Next(5)
	assert.Equal(t, SortState{Column: 5, Dir: SortAsc}, s, "a new column starts ascending")
}

func TestViewCells(t *testing.T) {
	v := View{Columns: []Column{{Index: 2}, {Index: 0}}}
	assert.Equal(t, []string{"c", "a"}, v.Cells([]string{"a", "b", "c"}))
}
