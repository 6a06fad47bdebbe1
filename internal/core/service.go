package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Status messages shown above the table.
const (
	MsgLoading      = "데이터를 불러오는 중입니다..."
	MsgUnconfigured = "CSV URL 또는 SHEET_ID를 설정해주세요."
	MsgLoadFailed   = "데이터 로드 실패. 스프레드시트 공개 설정을 확인해주세요."
)

var (
	// ErrNotConfigured is returned by Load when no data source is configured.
	ErrNotConfigured = errors.New("no data source configured")

	// ErrNotLoaded is returned when a view is requested before the first
	// successful load.
	ErrNotLoaded = errors.New("dataset not loaded")
)

// Source fetches the raw sheet as parsed CSV records.
type Source interface {
	Fetch(ctx context.Context) ([][]string, error)
}

// LoadPhase is the state of the most recent load.
type LoadPhase string

const (
	PhaseUnconfigured LoadPhase = "unconfigured"
	PhaseLoading      LoadPhase = "loading"
	PhaseLoaded       LoadPhase = "loaded"
	PhaseFailed       LoadPhase = "failed"
)

// Status describes the dataset for the status line.
type Status struct {
	Phase     LoadPhase `json:"phase"`
	Message   string    `json:"message"`
	Rows      int       `json:"rows"`
	DatasetID string    `json:"datasetId,omitempty"`
	Code      string    `json:"code,omitempty"` // Error code when Phase is PhaseFailed
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceOptions tunes dataset construction and export.
type ServiceOptions struct {
	ColumnCount   int           // Grid width (default: 18)
	SheetName     string        // Worksheet name for exports (default: "aptviewer")
	MaxExports    int           // Concurrent workbook builds (default: 4)
	ExportMaxWait time.Duration // Wait for a free export slot (default: 10s)
}

// Service owns the current dataset and derives views from it.
type Service struct {
	source      Source
	registry    *Registry
	writer      WorkbookWriter
	exports     *ExportLimiter
	columnCount int
	sheetName   string

	mu      sync.RWMutex
	dataset *Dataset
	status  Status

	loads singleflight.Group
}

// NewService creates a Service. A nil source leaves the service permanently
// unconfigured; a nil writer disables export.
func NewService(source Source, registry *Registry, writer WorkbookWriter, opts ServiceOptions) *Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if opts.ColumnCount <= 0 {
		opts.ColumnCount = DefaultColumnCount
	}
	if opts.SheetName == "" {
		opts.SheetName = ExportSheetName
	}

	status := Status{Phase: PhaseLoading, Message: MsgLoading, UpdatedAt: time.Now()}
	if source == nil {
		status = Status{Phase: PhaseUnconfigured, Message: MsgUnconfigured, Code: MapError(ErrNotConfigured).Code, UpdatedAt: time.Now()}
	}

	return &Service{
		source:      source,
		registry:    registry,
		writer:      writer,
		exports:     NewExportLimiter(opts.MaxExports, opts.ExportMaxWait),
		columnCount: opts.ColumnCount,
		sheetName:   opts.SheetName,
		status:      status,
	}
}

// CanExport reports whether a workbook writer is configured.
func (s *Service) CanExport() bool {
	return s.writer != nil
}

// ActiveExports is the number of workbooks being written.
func (s *Service) ActiveExports() int {
	return s.exports.Active()
}

// WaitForExports blocks until in-flight exports finish or ctx ends.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.exports.WaitForDrain(ctx)
}

// Status returns the current load status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Dataset returns the current snapshot, or nil before the first load.
func (s *Service) Dataset() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Load fetches the sheet and replaces the current dataset. Concurrent calls
// share one fetch. On failure the previous dataset, if any, stays in place
// and the status reports the failure; nothing is retried.
//
// The fetch runs detached from ctx and is bounded by the source's own
// timeout. If ctx ends first, Load returns ctx.Err() and the shared fetch
// finishes for the remaining callers without recording a failure.
func (s *Service) Load(ctx context.Context) error {
	if s.source == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan("load", func() (any, error) {
		return s.load(fetchCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		slog.Debug("load abandoned by caller", "error", ctx.Err())
		return ctx.Err()
	}
}

func (s *Service) load(ctx context.Context) (*Dataset, error) {
	start := time.Now()

	records, err := s.source.Fetch(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	ds := BuildDataset(records, s.registry, s.columnCount)

	s.mu.Lock()
	s.dataset = ds
	s.status = Status{
		Phase:     PhaseLoaded,
		Message:   fmt.Sprintf("총 %d건 로드됨", len(ds.Rows)),
		Rows:      len(ds.Rows),
		DatasetID: ds.ID,
		UpdatedAt: ds.LoadedAt,
	}
	s.mu.Unlock()

	slog.Info("dataset loaded",
		"dataset_id", ds.ID,
		"records", len(records),
		"rows", len(ds.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func (s *Service) fail(err error) {
	msg := MapError(err)
	slog.Error("dataset load failed", "error", err, "code", msg.Code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{
		Phase:     PhaseFailed,
		Message:   MsgLoadFailed,
		Code:      msg.Code,
		UpdatedAt: time.Now(),
	}
	if s.dataset != nil {
		s.status.Rows = len(s.dataset.Rows)
		s.status.DatasetID = s.dataset.ID
	}
}

// BuildDataset runs ingestion over parsed records: normalize to a fixed
// width grid, deduplicate, resolve columns and extract facets.
func BuildDataset(records [][]string, reg *Registry, width int) *Dataset {
	if width <= 0 {
		width = DefaultColumnCount
	}

	grid := Dedupe(NormalizeRows(records, width), reg)

	header := grid.Header()
	if header == nil {
		header = make([]string, width)
	}
	title := grid.Title()
	if title == nil {
		title = make([]string, width)
	}

	cols := reg.Resolve(header)
	rows := grid.DataRows()

	return &Dataset{
		ID:       uuid.NewString(),
		Title:    title,
		Header:   header,
		Rows:     rows,
		Columns:  cols,
		Facets:   ExtractFacets(cols, rows),
		LoadedAt: time.Now(),
	}
}

// View derives the render-ready table for state from the current dataset.
func (s *Service) View(state ViewState) (View, error) {
	ds := s.Dataset()
	if ds == nil {
		return View{}, ErrNotLoaded
	}
	return BuildView(ds, state), nil
}

// BuildView applies the pipeline to ds and collects everything a renderer
// or exporter needs.
func BuildView(ds *Dataset, state ViewState) View {
	if state.Filters == nil {
		state.Filters = FilterState{}
	}

	visible := VisibleColumns(ds.Columns)
	rows := Apply(ds, state)

	return View{
		DatasetID:    ds.ID,
		Title:        joinNonEmpty(ds.Title),
		Columns:      visible,
		Bands:        GroupBands(visible),
		Rows:         rows,
		Facets:       ds.Facets,
		Aggregations: Aggregate(visible, rows),
		State:        state,
		Total:        len(ds.Rows),
		LoadedAt:     ds.LoadedAt,
	}
}

func joinNonEmpty(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
