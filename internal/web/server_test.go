package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/aptviewer/internal/config"
	"github.com/JonMunkholm/aptviewer/internal/core"
	"github.com/JonMunkholm/aptviewer/internal/web/templates"
	"github.com/JonMunkholm/aptviewer/internal/xlsx"
)

type stubSource struct {
	records [][]string
	err     error
}

func (s *stubSource) Fetch(context.Context) ([][]string, error) {
	return s.records, s.err
}

func sampleRecords() [][]string {
	return [][]string{
		{"아파트 시세표"},
		{"지역구", "생활권(동)", "단지명", "매매가", "단지접근키"},
		{"경기 성남", "분당", "B단지", "850", "K2"},
		{"서울 강남", "대치", "A단지", "1,200", "K1"},
		{"", "", "C단지", "", "K3"},
		{"서울 강남", "대치", "A단지", "", "K1"},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Export:   config.ExportConfig{Enabled: true, SheetName: "aptviewer"},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, src core.Source, writer core.WorkbookWriter, load bool) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewService(src, nil, writer, core.ServiceOptions{SheetName: cfg.Export.SheetName})
	if load {
		require.NoError(t, svc.Load(context.Background()))
	}
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(srv *Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var v viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func complexNames(v viewResponse) []string {
	names := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		names[i] = row[2]
	}
	return names
}

func TestPageRendersDefaultOrder(t *testing.T) {
	srv, svc := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	rec := do(srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	a, b, c := strings.Index(body, "<td>A단지</td>"), strings.Index(body, "<td>B단지</td>"), strings.Index(body, "<td>C단지</td>")
	require.True(t, a > 0 && b > 0 && c > 0)
	assert.Less(t, a, b, "서울 before 경기")
	assert.Less(t, b, c, "경기 before empty region")

	assert.Contains(t, body, "아파트 시세표")
	assert.Contains(t, body, "3 / 3건 표시")
	assert.NotContains(t, body, "K1", "hidden access key never rendered")
	assert.Equal(t, svc.Dataset().ID, rec.Header().Get("X-Dataset-ID"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestPageFilters(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	t.Run("value filter", func(t *testing.T) {
		q := url.Values{"filter[지역구]": {"서울 강남"}}
		body := do(srv, http.MethodGet, "/?"+q.Encode(), nil).Body.String()
		assert.Contains(t, body, "<td>A단지</td>")
		assert.NotContains(t, body, "<td>B단지</td>")
		assert.Contains(t, body, "1 / 3건 표시")
	})

	t.Run("empty selection shows nothing", func(t *testing.T) {
		q := url.Values{"none": {"지역구"}}
		body := do(srv, http.MethodGet, "/?"+q.Encode(), nil).Body.String()
		assert.Contains(t, body, "조건에 맞는 데이터가 없습니다")
		assert.NotContains(t, body, "A단지</td>")
	})
}

func TestPageToggleLinks(t *testing.T) {
	srv, svc := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	var d templates.PageData
	fillPage(&d, core.BuildView(svc.Dataset(), core.DefaultViewState()), true)

	var toggle string
	for _, m := range d.Menus {
		if m.Key != "지역구" {
			continue
		}
		for _, o := range m.Options {
			if o.Value == "서울 강남" {
				toggle = o.ToggleURL
			}
		}
	}
	require.NotEmpty(t, toggle)

	want := core.DefaultViewState()
	want.Filters = want.Filters.With("지역구", "경기 성남", "")
	assert.Equal(t, viewURL("/", want), toggle)

	body := do(srv, http.MethodGet, toggle, nil).Body.String()
	assert.NotContains(t, body, "<td>A단지</td>")
	assert.Contains(t, body, "<td>B단지</td>")
	assert.Contains(t, body, "<td>C단지</td>")
}

func TestAPIViewSortAndHide(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	rec := do(srv, http.MethodGet, "/api/view?sort=3&dir=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	assert.Equal(t, []string{"C단지", "B단지", "A단지"}, complexNames(v))
	assert.Equal(t, 3, v.State.Sort.Column)
	assert.Equal(t, []string{"지역구", "생활권(동)", "단지명", "매매가"}, columnNames(v))

	rec = do(srv, http.MethodGet, "/api/view?sort=3&dir=desc", nil)
	assert.Equal(t, []string{"A단지", "B단지", "C단지"}, complexNames(decodeView(t, rec)))

	rec = do(srv, http.MethodGet, "/api/view?hide=1", nil)
	v = decodeView(t, rec)
	assert.Equal(t, []string{"A단지", "B단지"}, complexNames(v))
	assert.Equal(t, 3, v.Total)
	assert.True(t, v.State.HideIncomplete)
}

func columnNames(v viewResponse) []string {
	names := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		names[i] = c.Name
	}
	return names
}

func TestAPIFacetsAndStatus(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	rec := do(srv, http.MethodGet, "/api/facets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var facets struct {
		Facets map[string][]core.Facet `json:"facets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &facets))
	assert.NotContains(t, facets.Facets, "단지접근키")
	assert.Len(t, facets.Facets["지역구"], 3)

	rec = do(srv, http.MethodGet, "/api/status", nil)
	var st core.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, core.PhaseLoaded, st.Phase)
	assert.Equal(t, 3, st.Rows)
}

func TestAPIBeforeLoad(t *testing.T) {
	t.Run("not loaded yet", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, nil, false)
		rec := do(srv, http.MethodGet, "/api/view", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "DAT001")
	})

	t.Run("unconfigured", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), nil, nil, false)
		rec := do(srv, http.MethodGet, "/api/view", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "CFG001")

		page := do(srv, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), core.MsgUnconfigured)
	})
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)

	rec := do(srv, http.MethodGet, "/export?"+url.Values{"filter[지역구]": {"서울 강남"}}.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="aptviewer-export-`)
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("aptviewer")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"지역구", "생활권(동)", "단지명", "매매가"}, rows[0])
	assert.Equal(t, []string{"서울 강남", "대치", "A단지", "1,200"}, rows[1])
}

func TestExportErrors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, xlsx.NewWriter(), true)
		rec := do(srv, http.MethodGet, "/export?"+url.Values{"none": {"지역구"}}.Encode(), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "EXP001")
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})

	t.Run("exporter disabled", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &stubSource{records: sampleRecords()}, nil, true)
		rec := do(srv, http.MethodGet, "/export", map[string]string{"Accept": "application/json"})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "EXP002", resp.Code)

		page := do(srv, http.MethodGet, "/", nil)
		assert.NotContains(t, page.Body.String(), "엑셀 다운로드")
	})
}

func TestReload(t *testing.T) {
	src := &stubSource{records: sampleRecords()}
	srv, svc := newTestServer(t, testConfig(), src, xlsx.NewWriter(), false)

	req := httptest.NewRequest(http.MethodPost, "/reload", strings.NewReader("q="+url.QueryEscape("sort=3&dir=desc")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?dir=desc&sort=3", rec.Header().Get("Location"))
	require.NotNil(t, svc.Dataset())
	first := svc.Dataset().ID

	// A failed reload keeps the previous dataset on screen.
	src.err = errors.New("fetch sheet: unexpected status 404 Not Found")
	rec = do(srv, http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, first, svc.Dataset().ID)

	page := do(srv, http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, page, core.MsgLoadFailed)
	assert.Contains(t, page, "<td>A단지</td>")
}

func TestAPIReload(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv, _ := newTestServer(t, cfg, &stubSource{records: sampleRecords()}, nil, false)

	rec := do(srv, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(srv, http.MethodPost, "/api/reload", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var st core.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, core.PhaseLoaded, st.Phase)
}

func TestAPIReloadSourceFailure(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubSource{err: errors.New("fetch sheet: dial tcp: connection refused")}, nil, false)

	rec := do(srv, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "SRC001")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ExportLimit: 1}
	srv, _ := newTestServer(t, cfg, &stubSource{records: sampleRecords()}, nil, true)

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", nil).Code)

	rec := do(srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE001")
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil, nil, false)

	rec := do(srv, http.MethodGet, "/static/app.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "details.filter")
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)
	defer rl.stop()

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("a"))
}
