package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing source maps to configuration error",
			err:         ErrNotConfigured,
			wantCode:    "CFG001",
			wantMessage: MsgUnconfigured,
		},
		{
			name:        "non-2xx response maps to generic load failure",
			err:         errors.New("fetch sheet: unexpected status 404 Not Found"),
			wantCode:    "SRC002",
			wantMessage: MsgLoadFailed,
		},
		{
			name:        "parse failure maps to generic load failure",
			err:         errors.New("invalid csv: record on line 3: wrong number of fields"),
			wantCode:    "CSV001",
			wantMessage: MsgLoadFailed,
		},
		{
			name:        "network failure maps to generic load failure",
			err:         errors.New("fetch sheet: dial tcp: connection refused"),
			wantCode:    "SRC001",
			wantMessage: MsgLoadFailed,
		},
		{
			name:        "wrapped empty export",
			err:         fmt.Errorf("export: %w", ErrNoRowsToExport),
			wantCode:    "EXP001",
			wantMessage: "내보낼 데이터가 없습니다",
		},
		{
			name:        "exporter unavailable",
			err:         ErrExporterUnavailable,
			wantCode:    "EXP002",
			wantMessage: "엑셀 내보내기를 사용할 수 없습니다",
		},
		{
			name:        "export slots exhausted",
			err:         fmt.Errorf("export: %w", ErrTooManyExports),
			wantCode:    "EXP003",
			wantMessage: "다른 내보내기 요청을 처리하는 중입니다",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "요청이 너무 많습니다",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "알 수 없는 오류가 발생했습니다",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FETCH SHEET failed"),
			wantCode:    "SRC001",
			wantMessage: MsgLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrExporterUnavailable,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
