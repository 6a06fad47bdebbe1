package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ExportSheetName is the worksheet name used when none is configured.
const ExportSheetName = "aptviewer"

var (
	// ErrNoRowsToExport is returned when the current view has no rows.
	ErrNoRowsToExport = errors.New("no rows to export")

	// ErrExporterUnavailable is returned when no workbook writer is configured.
	ErrExporterUnavailable = errors.New("exporter unavailable")
)

// WorkbookWriter serializes a rectangular grid of strings as a workbook.
type WorkbookWriter interface {
	Write(w io.Writer, sheet string, grid [][]string) error
}

// ExportGrid projects a view into a row-major grid: the visible header
// first, then the visible cells of every row in view order.
func ExportGrid(v View) ([][]string, error) {
	if len(v.Rows) == 0 {
		return nil, ErrNoRowsToExport
	}

	grid := make([][]string, 0, len(v.Rows)+1)
	header := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		header[i] = c.Name
	}
	grid = append(grid, header)
	for _, row := range v.Rows {
		grid = append(grid, v.Cells(row))
	}
	return grid, nil
}

// ExportFilename returns the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("aptviewer-export-%s.xlsx", t.Format("20060102-1504"))
}

// Export writes the view for state as a workbook to w. Preconditions are
// checked before anything is written, so a failed export never produces a
// partial file.
func (s *Service) Export(ctx context.Context, w io.Writer, state ViewState) error {
	if s.writer == nil {
		return ErrExporterUnavailable
	}

	view, err := s.View(state)
	if err != nil {
		return err
	}

	grid, err := ExportGrid(view)
	if err != nil {
		return err
	}

	if err := s.exports.Acquire(ctx); err != nil {
		return err
	}
	defer s.exports.Release()

	if err := s.writer.Write(w, s.sheetName, grid); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
