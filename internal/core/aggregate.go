package core

import "github.com/montanaflynn/stats"

// Aggregate summarizes every visible column whose non-empty cells all parse
// as numbers. Columns with any text cell, or with no cells at all, are
// skipped.
func Aggregate(visible []Column, rows [][]string) Aggregations {
	out := make(Aggregations)

	for _, c := range visible {
		values := make(stats.Float64Data, 0, len(rows))
		numeric := true
		for _, row := range rows {
			cell := row[c.Index]
			if cell == "" {
				continue
			}
			n, ok := ParseNumber(cell)
			if !ok {
				numeric = false
				break
			}
			values = append(values, n)
		}
		if !numeric || len(values) == 0 {
			continue
		}

		agg, err := summarize(values)
		if err != nil {
			continue
		}
		agg.Column = c.Name
		out[c.Key] = agg
	}
	return out
}

func summarize(values stats.Float64Data) (*ColumnAggregation, error) {
	sum, err := values.Sum()
	if err != nil {
		return nil, err
	}
	mean, err := values.Mean()
	if err != nil {
		return nil, err
	}
	median, err := values.Median()
	if err != nil {
		return nil, err
	}
	lo, err := values.Min()
	if err != nil {
		return nil, err
	}
	hi, err := values.Max()
	if err != nil {
		return nil, err
	}
	return &ColumnAggregation{
		Count:  values.Len(),
		Sum:    sum,
		Mean:   mean,
		Median: median,
		Min:    lo,
		Max:    hi,
	}, nil
}
