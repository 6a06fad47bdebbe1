// Package sheet fetches a published Google Sheets CSV export and parses it
// into records for the core pipeline.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxBytes caps the size of a fetched sheet.
const DefaultMaxBytes int64 = 32 << 20

var (
	// ErrEmptySheet is returned when the sheet parses to zero records.
	ErrEmptySheet = errors.New("empty sheet")

	// ErrTooLarge is returned when the body exceeds the configured size.
	ErrTooLarge = errors.New("sheet too large")
)

// BuildCSVURL returns the URL to fetch. A direct CSV URL wins; otherwise a
// sheet ID is turned into its CSV export URL. Returns "" when neither is set.
func BuildCSVURL(csvURL, sheetID, gid string) string {
	if u := strings.TrimSpace(csvURL); u != "" {
		return u
	}
	id := strings.TrimSpace(sheetID)
	if id == "" {
		return ""
	}
	gid = strings.TrimSpace(gid)
	if gid == "" {
		gid = "0"
	}

	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?%s", url.PathEscape(id), q.Encode())
}

// HTTPSource fetches the sheet over HTTP. It implements core.Source.
type HTTPSource struct {
	Client   *http.Client
	URL      string
	Timeout  time.Duration // 0 = no timeout beyond ctx
	MaxBytes int64         // 0 = DefaultMaxBytes, negative = unlimited
}

// NewHTTPSource creates a source for url using http.DefaultClient.
func NewHTTPSource(url string, timeout time.Duration, maxBytes int64) *HTTPSource {
	return &HTTPSource{
		Client:   http.DefaultClient,
		URL:      url,
		Timeout:  timeout,
		MaxBytes: maxBytes,
	}
}

// Fetch downloads and parses the sheet. Nothing is returned unless the whole
// body was read and parsed.
func (s *HTTPSource) Fetch(ctx context.Context) ([][]string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch sheet: unexpected status %s", resp.Status)
	}

	limit := s.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}
	if limit < 0 {
		limit = 0
	}

	body, counter := wrapBody(resp.Body, limit)
	records, err := Parse(body)
	if err != nil {
		if errors.Is(err, ErrEmptySheet) || errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("fetch sheet: %w", err)
		}
		return nil, err
	}

	slog.Debug("sheet fetched",
		"bytes", counter.BytesRead,
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

// Parse reads every CSV record from r. Rows may have differing field counts
// and stray quotes are tolerated; blank lines are skipped by encoding/csv.
func Parse(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	return records, nil
}
