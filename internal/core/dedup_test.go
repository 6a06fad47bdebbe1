package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dedupHeader = []string{"지역구", "단지명", "매매가", "전세가", "단지접근키", "비고"}

func complexNames(rows [][]string, idx int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[idx]
	}
	return out
}

func TestDedupeKeepsMostCompleteRow(t *testing.T) {
	grid := Grid{
		{"제목", "", "", "", "", ""},
		dedupHeader,
		{"서울 강남", "A단지", "", "", "K1", ""},
		{"경기 성남", "B단지", "850", "", "K2", ""},
		{"서울 강남", "A단지", "1,200", "900", "K1", ""},
	}

	out := Dedupe(grid, DefaultRegistry())
	require.Len(t, out, 4)
	assert.Equal(t, grid[0], out[0])
	assert.Equal(t, grid[1], out[1])

	rows := out.DataRows()
	assert.Equal(t, []string{"K1", "K2"}, complexNames(rows, 4), "first appearance order")
	assert.Equal(t, "1,200", rows[0][2], "more complete K1 row wins")
}

func TestDedupeTieKeepsFirst(t *testing.T) {
	grid := Grid{
		{"제목", "", "", "", "", ""},
		dedupHeader,
		{"서울 강남", "A단지", "1,000", "", "K1", ""},
		{"서울 강남", "A단지", "", "700", "K1", "메모"},
	}

	rows := Dedupe(grid, DefaultRegistry()).DataRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "1,000", rows[0][2], "other-group cells do not count")
}

func TestDedupeDropsEmptyKeys(t *testing.T) {
	grid := Grid{
		{"제목", "", "", "", "", ""},
		dedupHeader,
		{"서울 강남", "A단지", "1,000", "", "", ""},
		{"경기 성남", "B단지", "850", "", "K2", ""},
	}

	rows := Dedupe(grid, DefaultRegistry()).DataRows()
	assert.Equal(t, []string{"B단지"}, complexNames(rows, 1))
}

func TestDedupeWithoutAccessKeyColumn(t *testing.T) {
	grid := Grid{
		{"제목", ""},
		{"지역구", "단지명"},
		{"서울 강남", "A단지"},
		{"서울 강남", "A단지"},
	}
	assert.Equal(t, grid, Dedupe(grid, DefaultRegistry()))

	short := Grid{{"제목"}}
	assert.Equal(t, short, Dedupe(short, DefaultRegistry()))
}

func TestCompletenessScore(t *testing.T) {
	reg := DefaultRegistry()
	cols := reg.Resolve(dedupHeader)

	assert.Equal(t, 0, CompletenessScore(make([]string, len(dedupHeader)), cols, reg))
	// Hidden access key and the 기타 column are not counted.
	assert.Equal(t, 4, CompletenessScore([]string{"a", "b", "c", "d", "K", "메모"}, cols, reg))
}

func TestDedupeThreeVersusFiveFilled(t *testing.T) {
	records := [][]string{
		{"title"},
		{"지역구", "생활권(동)", "단지명", "준공년월", "세대수", "단지접근키"},
		{"서울 강남", "대치", "A단지", "", "", "K1"},
		{"서울 강남", "대치", "A단지", "2004.01", "1,200", "K1"},
	}

	rows := Dedupe(NormalizeRows(records, DefaultColumnCount), DefaultRegistry()).DataRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "2004.01", rows[0][3])
	assert.Equal(t, "1,200", rows[0][4])
}
