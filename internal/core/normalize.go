package core

import "strings"

// DefaultColumnCount is the fixed row width of the published sheet.
const DefaultColumnCount = 18

// Row layout of a normalized grid.
const (
	TitleRow  = 0
	HeaderRow = 1
	FirstData = 2
)

// Grid is a rectangular table of trimmed cells. Row 0 is the sheet title,
// row 1 the header, and the remaining rows are data.
type Grid [][]string

// Header returns the header row, or nil if the grid has none.
func (g Grid) Header() []string {
	if len(g) <= HeaderRow {
		return nil
	}
	return g[HeaderRow]
}

// Title returns the banner row, or nil if the grid is empty.
func (g Grid) Title() []string {
	if len(g) <= TitleRow {
		return nil
	}
	return g[TitleRow]
}

// DataRows returns the rows after the header.
func (g Grid) DataRows() [][]string {
	if len(g) <= FirstData {
		return nil
	}
	return g[FirstData:]
}

// NormalizeRows turns parsed CSV records into a Grid: cells are trimmed,
// every row is cut or padded to exactly width cells, and rows left with no
// non-empty cell are dropped. Row order is preserved.
func NormalizeRows(records [][]string, width int) Grid {
	if width <= 0 {
		width = DefaultColumnCount
	}

	grid := make(Grid, 0, len(records))
	for _, rec := range records {
		row := make([]string, width)
		empty := true
		for i := 0; i < width && i < len(rec); i++ {
			row[i] = strings.TrimSpace(rec[i])
			if row[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		grid = append(grid, row)
	}
	return grid
}
