// Package xlsx writes string grids as .xlsx workbooks using excelize.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	maxSheetName = 31

	minColWidth = 8
	maxColWidth = 60
)

// Writer renders a grid as a single-sheet workbook. The first row is treated
// as the header: it is bold and frozen. Cells are written as text, unchanged.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements core.WorkbookWriter.
func (wr *Writer) Write(w io.Writer, sheet string, grid [][]string) (err error) {
	if len(grid) == 0 {
		return errors.New("xlsx: empty grid")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("xlsx: close workbook: %w", cerr)
		}
	}()

	name := SheetName(sheet)
	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("xlsx: rename sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F3F4F6"}},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	// Widths and panes must be set before the first row.
	for i, width := range ColumnWidths(grid) {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx: freeze header: %w", err)
	}

	for r, row := range grid {
		values := make([]interface{}, len(row))
		for c, v := range row {
			if r == 0 {
				values[c] = excelize.Cell{StyleID: headerStyle, Value: v}
			} else {
				values[c] = v
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("xlsx: row %d: %w", r+1, err)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// ColumnWidths returns a display width per column, sized to the widest
// cell. Hangul counts as two cells wide.
func ColumnWidths(grid [][]string) []float64 {
	var widths []float64
	for _, row := range grid {
		for c, v := range row {
			for len(widths) <= c {
				widths = append(widths, minColWidth)
			}
			w := float64(runewidth.StringWidth(v) + 2)
			if w > maxColWidth {
				w = maxColWidth
			}
			if w > widths[c] {
				widths[c] = w
			}
		}
	}
	return widths
}

// SheetName makes name usable as a worksheet name: invalid characters are
// replaced and the result is cut to 31 characters.
func SheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		out = append(out, r)
		if len(out) == maxSheetName {
			break
		}
	}
	s := string(out)
	if s == "" || !utf8.ValidString(s) {
		return defaultSheet
	}
	return s
}
