package core

// Dedupe collapses data rows that share a complex access key down to the
// single most complete row.
//
// When no header cell resolves to the access-key column the grid is returned
// unchanged. Otherwise rows with an empty key are dropped, since they cannot
// be matched against anything. Within a key the row with the strictly highest
// CompletenessScore survives; ties keep the row seen first. Survivors keep the
// position of their key's first appearance, and the title and header rows
// pass through untouched.
func Dedupe(grid Grid, reg *Registry) Grid {
	header := grid.Header()
	if header == nil {
		return grid
	}

	cols := reg.Resolve(header)
	keyCol, ok := ColumnByRole(cols, RoleAccessKey)
	if !ok {
		return grid
	}

	type candidate struct {
		row   []string
		score int
	}

	var order []string
	best := make(map[string]candidate)

	for _, row := range grid.DataRows() {
		key := row[keyCol.Index]
		if key == "" {
			continue
		}

		score := CompletenessScore(row, cols, reg)
		cur, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = candidate{row: row, score: score}
			continue
		}
		if score > cur.score {
			best[key] = candidate{row: row, score: score}
		}
	}

	out := make(Grid, 0, FirstData+len(order))
	out = append(out, grid[:FirstData]...)
	for _, key := range order {
		out = append(out, best[key].row)
	}
	return out
}

// CompletenessScore counts the non-empty cells of row that fall in visible
// columns of a completeness group.
func CompletenessScore(row []string, cols []Column, reg *Registry) int {
	score := 0
	for _, c := range cols {
		if c.Hidden || c.Index >= len(row) {
			continue
		}
		if !reg.CountsTowardCompleteness(c.Group) {
			continue
		}
		if row[c.Index] != "" {
			score++
		}
	}
	return score
}
